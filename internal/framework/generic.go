package framework

import "regexp"

// GenericProfile returns the fallback rule-set used when no family was
// identified. Its patterns are the loose union of the known families,
// so extraction still finds the obvious registrations without making
// family-specific assumptions.
func GenericProfile() *Profile {
	return &Profile{
		Family:           FamilyUnknown,
		ImportSignatures: nil,
		RoutePatterns: []RoutePattern{
			{
				Regex:       regexp.MustCompile(`@\w+\.(get|post|put|delete|patch)\(\s*['"]([^'"]+)['"]`),
				PathGroup:   2,
				MethodGroup: 1,
			},
			{
				Regex:           regexp.MustCompile(`@\w+\.route\(\s*['"]([^'"]+)['"]`),
				PathGroup:       1,
				MethodsFromList: true,
				DefaultMethods:  []string{"GET"},
			},
			{
				Regex:          regexp.MustCompile(`\b(?:re_)?path\(\s*r?['"]([^'"]+)['"]`),
				PathGroup:      1,
				DefaultMethods: []string{"GET"},
				StripAnchors:   true,
			},
		},
		AuthMarkers: []AuthMarker{
			{Literal: "@login_required", Kind: "session", Confidence: "medium"},
			{Literal: "@jwt_required", Kind: "token", Confidence: "medium"},
			{Literal: "Authorization", Kind: "token", Confidence: "low"},
			{Literal: "BasicAuth", Kind: "basic", Confidence: "low"},
		},
		VersionHeaders: []string{"accept-version", "x-api-version", "api-version", "x-version"},
		VersionParams:  []string{"version", "api_version", "v"},
	}
}
