package framework

import "regexp"

// FastAPIProfile returns the rule-set for dependency-injected router
// routing (FastAPI-style applications and APIRouters).
func FastAPIProfile() *Profile {
	return &Profile{
		Family: FamilyFastAPI,
		ImportSignatures: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*from\s+fastapi\b`),
			regexp.MustCompile(`(?m)^\s*import\s+fastapi\b`),
			regexp.MustCompile(`\bFastAPI\(`),
			regexp.MustCompile(`\bAPIRouter\(`),
		},
		RoutePatterns: []RoutePattern{
			{
				Regex:       regexp.MustCompile(`@\w+\.(get|post|put|delete|patch|head|options)\(\s*['"]([^'"]+)['"]`),
				PathGroup:   2,
				MethodGroup: 1,
			},
			{
				Regex:           regexp.MustCompile(`@\w+\.api_route\(\s*['"]([^'"]+)['"]`),
				PathGroup:       1,
				MethodsFromList: true,
				DefaultMethods:  []string{"GET"},
			},
		},
		AuthMarkers: []AuthMarker{
			{Literal: "OAuth2PasswordBearer", Kind: "token", Confidence: "high"},
			{Literal: "HTTPBearer", Kind: "token", Confidence: "high"},
			{Literal: "HTTPBasic", Kind: "basic", Confidence: "high"},
			{Literal: "APIKeyHeader", Kind: "token", Confidence: "medium"},
			{Literal: "Security(", Kind: "token", Confidence: "medium"},
			{Literal: "SessionMiddleware", Kind: "session", Confidence: "medium"},
		},
		VersionHeaders: []string{"accept-version", "x-api-version", "api-version"},
		VersionParams:  []string{"version", "api_version", "v"},
	}
}
