package detect

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aaronchenweb/apiscan/internal/endpoint"
	"github.com/aaronchenweb/apiscan/internal/framework"
	"github.com/aaronchenweb/apiscan/internal/logger"
	"github.com/aaronchenweb/apiscan/internal/report"
)

// AuthPolicy holds the security scoring parameters.
type AuthPolicy struct {
	Baseline    int // starting score before bonuses and penalties
	MethodBonus int // total bonus split evenly across detected methods
}

// DefaultAuthPolicy preserves the historical scoring constants.
func DefaultAuthPolicy() AuthPolicy {
	return AuthPolicy{Baseline: 50, MethodBonus: 30}
}

// SecurityScore is the numeric auth assessment with its letter grade.
type SecurityScore struct {
	Score int
	Grade string
}

// secretPatterns flag literal-looking credential assignments. Each entry
// is (identifier pattern, minimum value length) kept as data so the list
// stays independently testable.
var secretPatterns = []struct {
	regex *regexp.Regexp
	kind  string
}{
	{regexp.MustCompile(`(?i)\bapi[_-]?key\s*=\s*["']([^"']{10,})["']`), "api_key"},
	{regexp.MustCompile(`(?i)\bsecret[_-]?key\s*=\s*["']([^"']{10,})["']`), "secret_key"},
	{regexp.MustCompile(`(?i)\bpassword\s*=\s*["']([^"']{6,})["']`), "password"},
	{regexp.MustCompile(`(?i)\b(?:auth|access)[_-]?token\s*=\s*["']([^"']{10,})["']`), "token"},
	{regexp.MustCompile(`(?i)\bprivate[_-]?key\s*=\s*["']([^"']{10,})["']`), "private_key"},
	{regexp.MustCompile(`(?i)\bclient[_-]?secret\s*=\s*["']([^"']{10,})["']`), "client_secret"},
	{regexp.MustCompile(`AKIA[A-Z0-9]{16}`), "aws_access_key"},
}

// customAuthDefRe finds auth-like function definitions not covered by
// any known marker.
var customAuthDefRe = regexp.MustCompile(`(?i)^\s*(?:async\s+)?def\s+\w*(authenticate|authorize|check_auth|verify_token|check_token|require_auth)\w*\s*\(`)

// envLookupMarkers exclude credential assignments sourced from the
// environment or configuration rather than hard-coded.
var envLookupMarkers = []string{"os.environ", "getenv", "config[", "config.get", "settings."}

// secretPlaceholders are value fragments that mark non-secrets.
var secretPlaceholders = []string{
	"your_", "example", "xxx", "placeholder", "dummy", "changeme", "<", ">", "${", "{{",
}

// AuthDetector classifies the project's authentication methods and
// flags secret and coverage issues.
type AuthDetector struct {
	profile *framework.Profile
	policy  AuthPolicy
	log     *logger.Logger
}

// NewAuthDetector creates a detector bound to a family profile.
func NewAuthDetector(profile *framework.Profile, policy AuthPolicy) *AuthDetector {
	if profile == nil {
		profile = framework.GenericProfile()
	}
	if policy.Baseline == 0 && policy.MethodBonus == 0 {
		policy = DefaultAuthPolicy()
	}
	return &AuthDetector{
		profile: profile,
		policy:  policy,
		log:     logger.Global().WithComponent("detect"),
	}
}

// Detect classifies authentication methods, scans for hardcoded secrets
// and unprotected endpoints, and computes the security score.
func (d *AuthDetector) Detect(scans []endpoint.FileScan, endpoints []endpoint.Endpoint) ([]report.AuthMethod, []report.Issue, SecurityScore) {
	methods := d.detectMethods(scans)

	var issues []report.Issue
	issues = append(issues, d.detectSecrets(scans)...)
	issues = append(issues, d.detectMissingAuth(scans, endpoints)...)

	score := d.scoreSecurity(methods, issues)
	return methods, issues, score
}

// methodRank orders confidence levels for upgrades.
var methodRank = map[report.Confidence]int{
	report.ConfidenceLow:    1,
	report.ConfidenceMedium: 2,
	report.ConfidenceHigh:   3,
}

func (d *AuthDetector) detectMethods(scans []endpoint.FileScan) []report.AuthMethod {
	type record struct {
		confidence report.Confidence
		locations  *EvidenceBuffer
	}
	byKind := make(map[string]*record)

	note := func(kind string, conf report.Confidence, loc string) {
		r, ok := byKind[kind]
		if !ok {
			r = &record{confidence: conf, locations: NewEvidenceBuffer(DefaultEvidenceCap)}
			byKind[kind] = r
		}
		if methodRank[conf] > methodRank[r.confidence] {
			r.confidence = conf
		}
		r.locations.Add(loc)
	}

	for _, scan := range scans {
		for i, line := range scan.Lines {
			loc := fmt.Sprintf("%s:%d", scan.File.Path, i+1)
			matched := false
			for _, marker := range d.profile.AuthMarkers {
				if strings.Contains(line, marker.Literal) {
					note(marker.Kind, report.Confidence(marker.Confidence), loc)
					matched = true
				}
			}
			if !matched && customAuthDefRe.MatchString(line) {
				note("custom", report.ConfidenceLow, loc)
			}
		}
	}

	kinds := make([]string, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	methods := make([]report.AuthMethod, 0, len(kinds))
	for _, kind := range kinds {
		r := byKind[kind]
		methods = append(methods, report.AuthMethod{
			Kind:       kind,
			Confidence: r.confidence,
			Locations:  r.locations.Entries(),
		})
	}
	return methods
}

func (d *AuthDetector) detectSecrets(scans []endpoint.FileScan) []report.Issue {
	var issues []report.Issue

	for _, scan := range scans {
		for i, line := range scan.Lines {
			if hasEnvLookup(line) {
				continue
			}
			for _, sp := range secretPatterns {
				m := sp.regex.FindStringSubmatch(line)
				if m == nil {
					continue
				}
				value := m[0]
				if len(m) > 1 {
					value = m[1]
				}
				if isPlaceholderValue(value) {
					continue
				}
				issues = append(issues, report.Issue{
					Type:        report.IssueHardcodedSecret,
					Severity:    report.SeverityHigh,
					Description: fmt.Sprintf("hardcoded %s assigned to a literal string", sp.kind),
					Suggestion:  "load credentials from the environment or a secret manager",
					Location:    fmt.Sprintf("%s:%d", scan.File.Path, i+1),
				})
				break
			}
		}
	}
	return issues
}

// detectMissingAuth flags endpoints whose registration window carries no
// authentication marker. Mutating methods rate high severity.
func (d *AuthDetector) detectMissingAuth(scans []endpoint.FileScan, endpoints []endpoint.Endpoint) []report.Issue {
	linesByFile := make(map[string][]string, len(scans))
	for _, scan := range scans {
		linesByFile[scan.File.Path] = scan.Lines
	}

	var issues []report.Issue
	for _, ep := range endpoints {
		lines := linesByFile[ep.File]
		if lines == nil || ep.Line < 1 || ep.Line > len(lines) {
			continue
		}

		window, ok := HandlerWindow(lines, ep.Line-1)
		if !ok {
			// url-table registrations carry no adjacent handler text;
			// absence of markers there is not evidence.
			continue
		}
		context := append([]string{lines[ep.Line-1]}, window...)

		if d.windowHasAuthMarker(context) {
			continue
		}

		severity := report.SeverityMedium
		if isMutating(ep.Methods) {
			severity = report.SeverityHigh
		}
		issues = append(issues, report.Issue{
			Type:        report.IssueMissingAuth,
			Severity:    severity,
			Description: fmt.Sprintf("endpoint %s has no attached authentication marker", ep.Path),
			Suggestion:  "protect the endpoint or document it as intentionally public",
			Endpoint:    ep.Path,
			Location:    ep.Location(),
		})
	}
	return issues
}

func (d *AuthDetector) windowHasAuthMarker(window []string) bool {
	for _, marker := range d.profile.AuthMarkers {
		if windowContains(window, marker.Literal) {
			return true
		}
	}
	for _, l := range window {
		if customAuthDefRe.MatchString(l) {
			return true
		}
	}
	return false
}

// scoreSecurity implements the fixed scoring formula: baseline plus a
// per-method bonus split evenly (low-confidence custom methods count
// half a share), minus severity-weighted penalties, clamped to [0,100].
func (d *AuthDetector) scoreSecurity(methods []report.AuthMethod, issues []report.Issue) SecurityScore {
	score := d.policy.Baseline

	if len(methods) > 0 {
		share := d.policy.MethodBonus / len(methods)
		for _, m := range methods {
			if m.Kind == "custom" && m.Confidence == report.ConfidenceLow {
				score += share / 2
			} else {
				score += share
			}
		}
	}

	for _, is := range issues {
		score -= is.Severity.Weight()
	}

	score = report.Clamp(score)
	return SecurityScore{Score: score, Grade: gradeFor(score)}
}

func gradeFor(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func isMutating(methods []string) bool {
	for _, m := range methods {
		switch m {
		case "POST", "PUT", "DELETE", "PATCH":
			return true
		}
	}
	return false
}

func hasEnvLookup(line string) bool {
	for _, m := range envLookupMarkers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

func isPlaceholderValue(value string) bool {
	lower := strings.ToLower(value)
	for _, p := range secretPlaceholders {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
