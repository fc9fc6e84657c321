package framework

import "regexp"

// DjangoProfile returns the rule-set for class-based view routing
// (Django-style urlpatterns).
func DjangoProfile() *Profile {
	return &Profile{
		Family: FamilyDjango,
		ImportSignatures: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*from\s+django\b`),
			regexp.MustCompile(`(?m)^\s*import\s+django\b`),
			regexp.MustCompile(`\burlpatterns\s*=`),
			regexp.MustCompile(`\.as_view\(\)`),
		},
		RoutePatterns: []RoutePattern{
			{
				Regex:          regexp.MustCompile(`\bre_path\(\s*r?['"]([^'"]+)['"]`),
				PathGroup:      1,
				DefaultMethods: []string{"GET"},
				StripAnchors:   true,
			},
			{
				Regex:          regexp.MustCompile(`\bpath\(\s*['"]([^'"]+)['"]`),
				PathGroup:      1,
				DefaultMethods: []string{"GET"},
			},
			{
				Regex:          regexp.MustCompile(`\burl\(\s*r?['"]([^'"]+)['"]`),
				PathGroup:      1,
				DefaultMethods: []string{"GET"},
				StripAnchors:   true,
			},
		},
		AuthMarkers: []AuthMarker{
			{Literal: "LoginRequiredMixin", Kind: "session", Confidence: "high"},
			{Literal: "@login_required", Kind: "session", Confidence: "high"},
			{Literal: "SessionAuthentication", Kind: "session", Confidence: "high"},
			{Literal: "TokenAuthentication", Kind: "token", Confidence: "high"},
			{Literal: "JWTAuthentication", Kind: "token", Confidence: "high"},
			{Literal: "BasicAuthentication", Kind: "basic", Confidence: "high"},
			{Literal: "permission_classes", Kind: "session", Confidence: "low"},
		},
		VersionHeaders: []string{"accept-version", "x-api-version", "api-version"},
		VersionParams:  []string{"version", "api_version", "v"},
	}
}
