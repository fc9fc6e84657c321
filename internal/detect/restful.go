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

// RESTfulPolicy holds the configurable convention thresholds.
type RESTfulPolicy struct {
	MaxHierarchyDepth int // literal-segment depth beyond which hierarchy is flagged
}

// DefaultRESTfulPolicy preserves the historical threshold.
func DefaultRESTfulPolicy() RESTfulPolicy {
	return RESTfulPolicy{MaxHierarchyDepth: 3}
}

// verbPrefixRe flags verb-prefixed camel-case path segments.
var verbPrefixRe = regexp.MustCompile(`^(get|create|update|delete|fetch|list|add|remove|set)[A-Z]`)

// mutationWords suggest state changes when present in a path.
var mutationWords = []string{"create", "update", "delete", "remove", "add", "set", "edit", "insert"}

// statusEvidenceRes recognize status-code handling in a handler body.
var statusEvidenceRes = []*regexp.Regexp{
	regexp.MustCompile(`\bstatus_code\s*=`),
	regexp.MustCompile(`\bstatus\s*=\s*\d{3}`),
	regexp.MustCompile(`\bHTTP_\d{3}`),
	regexp.MustCompile(`\babort\(\s*\d{3}`),
	regexp.MustCompile(`\breturn\b.*,\s*\d{3}`),
	regexp.MustCompile(`\bResponse\([^)]*\b\d{3}`),
	regexp.MustCompile(`\bmake_response\(`),
}

// contentTypeLiterals are the recognized media types a handler may emit.
var contentTypeLiterals = []string{"application/json", "application/xml", "text/html", "text/plain"}

// negotiationMarkers indicate accept-header or content-type handling.
var negotiationMarkers = []string{"accept_mimetypes", "request.accept", "get('Accept'", `get("Accept"`, "best_match"}

// contentTypeSetters indicate the handler sets a response content type.
var contentTypeSetters = []string{"jsonify", "JSONResponse", "content_type", "mimetype", "media_type", "Content-Type", "make_response"}

// returnRe finds handler return statements.
var returnRe = regexp.MustCompile(`^\s*return\b`)

// RESTfulDetector runs the five convention checks over the endpoint set.
type RESTfulDetector struct {
	profile *framework.Profile
	policy  RESTfulPolicy
	log     *logger.Logger
}

// NewRESTfulDetector creates a detector bound to a family profile.
func NewRESTfulDetector(profile *framework.Profile, policy RESTfulPolicy) *RESTfulDetector {
	if profile == nil {
		profile = framework.GenericProfile()
	}
	if policy.MaxHierarchyDepth <= 0 {
		policy.MaxHierarchyDepth = DefaultRESTfulPolicy().MaxHierarchyDepth
	}
	return &RESTfulDetector{
		profile: profile,
		policy:  policy,
		log:     logger.Global().WithComponent("detect"),
	}
}

// Detect runs all five checks. The checks are independent; their issue
// slices concatenate in fixed check order for determinism.
func (d *RESTfulDetector) Detect(scans []endpoint.FileScan, endpoints []endpoint.Endpoint) []report.Issue {
	linesByFile := make(map[string][]string, len(scans))
	for _, scan := range scans {
		linesByFile[scan.File.Path] = scan.Lines
	}

	var issues []report.Issue
	issues = append(issues, d.checkNaming(endpoints)...)
	issues = append(issues, d.checkMethods(endpoints)...)
	issues = append(issues, d.checkHierarchy(endpoints)...)
	issues = append(issues, d.checkStatusCodes(endpoints, linesByFile)...)
	issues = append(issues, d.checkContentNegotiation(endpoints, linesByFile)...)
	return issues
}

func (d *RESTfulDetector) checkNaming(endpoints []endpoint.Endpoint) []report.Issue {
	var issues []report.Issue

	for _, ep := range endpoints {
		segs := ep.Segments()
		for _, seg := range segs {
			if m := verbPrefixRe.FindStringSubmatch(seg); m != nil {
				issues = append(issues, report.Issue{
					Type:        report.IssueEndpointNaming,
					Severity:    report.SeverityMedium,
					Description: fmt.Sprintf("path segment %q embeds the verb %q; HTTP methods should carry the action", seg, m[1]),
					Suggestion:  "name segments after resources and express actions through HTTP methods",
					Endpoint:    ep.Path,
					Location:    ep.Location(),
				})
				break
			}
		}

		if seg, ok := singularCollectionSegment(ep); ok {
			issues = append(issues, report.Issue{
				Type:        report.IssueResourceNaming,
				Severity:    report.SeverityMedium,
				Description: fmt.Sprintf("collection segment %q is singular", seg),
				Suggestion:  "use plural nouns for collection segments",
				Endpoint:    ep.Path,
				Location:    ep.Location(),
			})
		}

		if strings.Contains(ep.Path, "_") && !strings.Contains(ep.Path, "-") {
			issues = append(issues, report.Issue{
				Type:        report.IssueEndpointNaming,
				Severity:    report.SeverityLow,
				Description: fmt.Sprintf("path %s uses underscore separators", ep.Path),
				Suggestion:  "prefer hyphen-separated path segments",
				Endpoint:    ep.Path,
				Location:    ep.Location(),
			})
		}
	}
	return issues
}

// singularCollectionSegment reports a literal segment immediately
// followed by a parameter placeholder but not written in plural form.
func singularCollectionSegment(ep endpoint.Endpoint) (string, bool) {
	segs := ep.Segments()
	for i := 0; i+1 < len(segs); i++ {
		if endpoint.IsParamSegment(segs[i]) || !endpoint.IsParamSegment(segs[i+1]) {
			continue
		}
		seg := segs[i]
		if !strings.HasSuffix(strings.ToLower(seg), "s") {
			return seg, true
		}
	}
	return "", false
}

func (d *RESTfulDetector) checkMethods(endpoints []endpoint.Endpoint) []report.Issue {
	var issues []report.Issue

	for _, ep := range endpoints {
		lower := strings.ToLower(ep.Path)

		if ep.HasMethod("GET") {
			for _, w := range mutationWords {
				if strings.Contains(lower, w) {
					issues = append(issues, report.Issue{
						Type:        report.IssueHTTPMethod,
						Severity:    report.SeverityHigh,
						Description: fmt.Sprintf("GET endpoint %s suggests mutation (%q)", ep.Path, w),
						Suggestion:  "GET must be safe; move mutations to POST/PUT/PATCH/DELETE",
						Endpoint:    ep.Path,
						Location:    ep.Location(),
					})
					break
				}
			}
		}

		if ep.HasMethod("POST") && strings.Contains(lower, "update") {
			issues = append(issues, report.Issue{
				Type:        report.IssueHTTPMethod,
				Severity:    report.SeverityMedium,
				Description: fmt.Sprintf("POST endpoint %s names an update action", ep.Path),
				Suggestion:  "use PUT or PATCH for updates",
				Endpoint:    ep.Path,
				Location:    ep.Location(),
			})
		}

		if strings.Contains(lower, "delete") && !ep.HasMethod("DELETE") {
			issues = append(issues, report.Issue{
				Type:        report.IssueHTTPMethod,
				Severity:    report.SeverityMedium,
				Description: fmt.Sprintf("endpoint %s names deletion but does not accept DELETE", ep.Path),
				Suggestion:  "expose deletion through the DELETE method",
				Endpoint:    ep.Path,
				Location:    ep.Location(),
			})
		}
	}
	return issues
}

func (d *RESTfulDetector) checkHierarchy(endpoints []endpoint.Endpoint) []report.Issue {
	var issues []report.Issue

	for _, ep := range endpoints {
		literals := ep.LiteralSegments()
		if len(literals) > d.policy.MaxHierarchyDepth {
			issues = append(issues, report.Issue{
				Type:     report.IssueResourceHierarchy,
				Severity: report.SeverityMedium,
				Description: fmt.Sprintf("path %s nests %d resource levels (limit %d)",
					ep.Path, len(literals), d.policy.MaxHierarchyDepth),
				Suggestion: "flatten deep hierarchies; expose nested resources at the top level",
				Endpoint:   ep.Path,
				Location:   ep.Location(),
			})
		}
	}

	// Project-wide singular/plural pairs among literal segments.
	segments := make(map[string]bool)
	for _, ep := range endpoints {
		for _, s := range ep.LiteralSegments() {
			segments[strings.ToLower(s)] = true
		}
	}
	var pairs []string
	for seg := range segments {
		if segments[seg+"s"] {
			pairs = append(pairs, seg)
		}
	}
	sort.Strings(pairs)
	for _, seg := range pairs {
		issues = append(issues, report.Issue{
			Type:        report.IssueResourceNaming,
			Severity:    report.SeverityMedium,
			Description: fmt.Sprintf("both %q and %q appear as resource segments", seg, seg+"s"),
			Suggestion:  "standardize on plural resource names",
		})
	}
	return issues
}

func (d *RESTfulDetector) checkStatusCodes(endpoints []endpoint.Endpoint, linesByFile map[string][]string) []report.Issue {
	var issues []report.Issue

	for _, ep := range endpoints {
		window, ok := handlerWindowFor(ep, linesByFile)
		if !ok {
			continue
		}

		if !hasStatusEvidence(window) {
			issues = append(issues, report.Issue{
				Type:        report.IssueStatusCode,
				Severity:    report.SeverityMedium,
				Description: fmt.Sprintf("handler for %s sets no recognizable status code", ep.Path),
				Suggestion:  "return explicit status codes instead of relying on framework defaults",
				Endpoint:    ep.Path,
				Location:    ep.Location(),
			})
		}

		if ep.HasMethod("POST") && impliesCreation(ep) && !windowContains(window, "201") {
			issues = append(issues, report.Issue{
				Type:        report.IssueStatusCode,
				Severity:    report.SeverityLow,
				Description: fmt.Sprintf("creating POST handler for %s does not return 201", ep.Path),
				Suggestion:  "return 201 Created for successful resource creation",
				Endpoint:    ep.Path,
				Location:    ep.Location(),
			})
		}

		if ep.HasMethod("DELETE") && !windowContains(window, "204") {
			issues = append(issues, report.Issue{
				Type:        report.IssueStatusCode,
				Severity:    report.SeverityLow,
				Description: fmt.Sprintf("DELETE handler for %s does not return 204", ep.Path),
				Suggestion:  "return 204 No Content for successful deletion",
				Endpoint:    ep.Path,
				Location:    ep.Location(),
			})
		}
	}
	return issues
}

func (d *RESTfulDetector) checkContentNegotiation(endpoints []endpoint.Endpoint, linesByFile map[string][]string) []report.Issue {
	var issues []report.Issue

	for _, ep := range endpoints {
		window, ok := handlerWindowFor(ep, linesByFile)
		if !ok {
			continue
		}

		if emitsContentTypeLiteral(window) && !hasNegotiationLogic(window) {
			issues = append(issues, report.Issue{
				Type:        report.IssueContentNegotiation,
				Severity:    report.SeverityLow,
				Description: fmt.Sprintf("handler for %s hardcodes a content type without accept-header handling", ep.Path),
				Suggestion:  "honor the Accept header when emitting a fixed content type",
				Endpoint:    ep.Path,
				Location:    ep.Location(),
			})
		}

		if hasReturn(window) && !setsContentType(window) {
			issues = append(issues, report.Issue{
				Type:        report.IssueContentNegotiation,
				Severity:    report.SeverityLow,
				Description: fmt.Sprintf("handler for %s returns data without content-type evidence", ep.Path),
				Suggestion:  "declare the response content type explicitly",
				Endpoint:    ep.Path,
				Location:    ep.Location(),
			})
		}
	}
	return issues
}

func handlerWindowFor(ep endpoint.Endpoint, linesByFile map[string][]string) ([]string, bool) {
	lines := linesByFile[ep.File]
	if lines == nil || ep.Line < 1 || ep.Line > len(lines) {
		return nil, false
	}
	return HandlerWindow(lines, ep.Line-1)
}

func hasStatusEvidence(window []string) bool {
	for _, l := range window {
		for _, re := range statusEvidenceRes {
			if re.MatchString(l) {
				return true
			}
		}
	}
	return false
}

// impliesCreation reports whether a POST route targets a collection
// (final segment is a literal, not an item parameter).
func impliesCreation(ep endpoint.Endpoint) bool {
	segs := ep.Segments()
	if len(segs) == 0 {
		return false
	}
	return !endpoint.IsParamSegment(segs[len(segs)-1])
}

func emitsContentTypeLiteral(window []string) bool {
	for _, ct := range contentTypeLiterals {
		if windowContains(window, ct) {
			return true
		}
	}
	return false
}

func hasNegotiationLogic(window []string) bool {
	for _, m := range negotiationMarkers {
		if windowContains(window, m) {
			return true
		}
	}
	return false
}

func setsContentType(window []string) bool {
	for _, m := range contentTypeSetters {
		if windowContains(window, m) {
			return true
		}
	}
	return false
}

func hasReturn(window []string) bool {
	for _, l := range window {
		if returnRe.MatchString(l) {
			return true
		}
	}
	return false
}
