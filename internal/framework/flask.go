package framework

import "regexp"

// FlaskProfile returns the rule-set for path-decorator routing
// (Flask-style applications and blueprints).
func FlaskProfile() *Profile {
	return &Profile{
		Family: FamilyFlask,
		ImportSignatures: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*from\s+flask\b`),
			regexp.MustCompile(`(?m)^\s*import\s+flask\b`),
			regexp.MustCompile(`Flask\(__name__\)`),
			regexp.MustCompile(`\bBlueprint\(`),
		},
		RoutePatterns: []RoutePattern{
			{
				Regex:           regexp.MustCompile(`@\w+\.route\(\s*['"]([^'"]+)['"]`),
				PathGroup:       1,
				MethodsFromList: true,
				DefaultMethods:  []string{"GET"},
			},
			{
				Regex:           regexp.MustCompile(`\badd_url_rule\(\s*['"]([^'"]+)['"]`),
				PathGroup:       1,
				MethodsFromList: true,
				DefaultMethods:  []string{"GET"},
			},
		},
		AuthMarkers: []AuthMarker{
			{Literal: "@jwt_required", Kind: "token", Confidence: "high"},
			{Literal: "@token_required", Kind: "token", Confidence: "medium"},
			{Literal: "@login_required", Kind: "session", Confidence: "high"},
			{Literal: "@auth.login_required", Kind: "basic", Confidence: "high"},
			{Literal: "HTTPBasicAuth(", Kind: "basic", Confidence: "high"},
			{Literal: "HTTPTokenAuth(", Kind: "token", Confidence: "high"},
			{Literal: "session[", Kind: "session", Confidence: "low"},
		},
		VersionHeaders: []string{"accept-version", "x-api-version", "api-version"},
		VersionParams:  []string{"version", "api_version", "v"},
	}
}
