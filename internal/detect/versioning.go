package detect

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/aaronchenweb/apiscan/internal/endpoint"
	"github.com/aaronchenweb/apiscan/internal/framework"
	"github.com/aaronchenweb/apiscan/internal/logger"
	"github.com/aaronchenweb/apiscan/internal/report"
)

// pathProbe is one version-shape pattern for endpoint paths. Probes run
// in declaration order; the first matching probe per endpoint wins.
type pathProbe struct {
	name       string
	regex      *regexp.Regexp
	tokenGroup int
}

// The ordered URL-path probe list. Client-visible schemes are more
// authoritative than internal layout, so these run before the structure
// probe and short-circuit the header probe.
var pathProbes = []pathProbe{
	{name: "path_v", regex: regexp.MustCompile(`/[vV](\d+)(?:/|$)`), tokenGroup: 1},
	{name: "api_v", regex: regexp.MustCompile(`/api/[vV](\d+)(?:/|$)`), tokenGroup: 1},
	{name: "api_decimal", regex: regexp.MustCompile(`/api/(\d+\.\d+)(?:/|$)`), tokenGroup: 1},
}

// versionDirRe matches directory base names with a version-shaped
// prefix. The token must end at a separator or the name's end, so
// v2/ and v2_api/ match while verify/ and v8engine/ do not.
var versionDirRe = regexp.MustCompile(`^[vV](\d+(?:\.\d+)?)(?:[._-]|$)`)

// versionFileRe matches version-suffixed file base names.
var versionFileRe = regexp.MustCompile(`_[vV](\d+(?:\.\d+)?)\.[A-Za-z0-9]+$`)

// nearbyTokenRe extracts version-like tokens near a header/param hit.
var nearbyTokenRe = regexp.MustCompile(`\b[vV](\d+(?:\.\d+)?)\b|['"](\d+(?:\.\d+)?)['"]`)

// nearbyWindow is how many lines around a header/param hit are searched
// for version tokens.
const nearbyWindow = 2

// VersioningPolicy holds the configurable versioning heuristics.
type VersioningPolicy struct {
	SkewFactor  int // unbalanced when max_count > SkewFactor * min_count
	MaxExamples int
}

// DefaultVersioningPolicy preserves the historical thresholds.
func DefaultVersioningPolicy() VersioningPolicy {
	return VersioningPolicy{SkewFactor: 5, MaxExamples: DefaultEvidenceCap}
}

// VersioningDetector classifies how (and whether) the project
// communicates API version.
type VersioningDetector struct {
	profile *framework.Profile
	policy  VersioningPolicy
	paramRe *regexp.Regexp
	log     *logger.Logger
}

// NewVersioningDetector creates a detector bound to a family profile.
func NewVersioningDetector(profile *framework.Profile, policy VersioningPolicy) *VersioningDetector {
	if profile == nil {
		profile = framework.GenericProfile()
	}
	if policy.SkewFactor <= 0 {
		policy.SkewFactor = DefaultVersioningPolicy().SkewFactor
	}
	return &VersioningDetector{
		profile: profile,
		policy:  policy,
		paramRe: paramLookupPattern(profile.VersionParams),
		log:     logger.Global().WithComponent("detect"),
	}
}

// paramLookupPattern compiles a query-parameter lookup matcher for the
// family's version parameter names.
func paramLookupPattern(params []string) *regexp.Regexp {
	if len(params) == 0 {
		return nil
	}
	quoted := make([]string, len(params))
	for i, p := range params {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)\b(?:args|params|query_params|GET)\s*\.get\(\s*['"](` +
		strings.Join(quoted, "|") + `)['"]`)
}

// Detect runs the probes over the endpoint set and raw file text and
// returns the aggregated signal plus versioning issues.
func (d *VersioningDetector) Detect(scans []endpoint.FileScan, endpoints []endpoint.Endpoint) (report.VersioningSignal, []report.Issue) {
	examples := NewEvidenceBuffer(d.policy.MaxExamples)
	dist := make(map[string]int)

	scheme := report.SchemeNone

	// Probe 1: URL-path shapes, first matching pattern per endpoint wins.
	if d.probePaths(endpoints, dist, examples) {
		scheme = report.SchemeURLPath
	} else if d.probeHeaders(scans, dist, examples) {
		// Probe 2 runs only when no endpoint-path evidence was found.
		scheme = report.SchemeHeader
	}

	// Probe 3: directory/file structure always runs; it can coexist with
	// the path/header probes.
	structDist := make(map[string]int)
	structFound := d.probeStructure(scans, structDist, examples)

	var issues []report.Issue

	if structFound && scheme != report.SchemeNone {
		issues = append(issues, report.Issue{
			Type:     report.IssueInconsistentVersioning,
			Severity: report.SeverityMedium,
			Description: fmt.Sprintf("versioning is communicated both via %s and via source layout; "+
				"mixed schemes confuse clients and maintainers", scheme),
			Suggestion: "consolidate on a single versioning scheme, preferably URL-path versioning",
		})
	}
	if structFound && scheme == report.SchemeNone {
		scheme = report.SchemeStructure
	}

	// Union structure counts into the distribution, summing per token.
	for tok, n := range structDist {
		dist[tok] += n
	}

	signal := report.VersioningSignal{
		Scheme:       scheme,
		Versions:     sortedKeys(dist),
		Distribution: dist,
		Examples:     examples.Entries(),
	}

	issues = append(issues, d.postProbeIssues(signal)...)
	return signal, issues
}

func (d *VersioningDetector) probePaths(endpoints []endpoint.Endpoint, dist map[string]int, examples *EvidenceBuffer) bool {
	found := false
	for _, ep := range endpoints {
		for _, probe := range pathProbes {
			m := probe.regex.FindStringSubmatch(ep.Path)
			if m == nil {
				continue
			}
			tok := m[probe.tokenGroup]
			dist[tok]++
			examples.Add(fmt.Sprintf("%s (%s)", ep.Path, probe.name))
			found = true
			break
		}
	}
	return found
}

func (d *VersioningDetector) probeHeaders(scans []endpoint.FileScan, dist map[string]int, examples *EvidenceBuffer) bool {
	found := false
	for _, scan := range scans {
		for i, line := range scan.Lines {
			if !d.lineMentionsVersionCarrier(line) {
				continue
			}
			found = true
			examples.Add(fmt.Sprintf("%s:%d", scan.File.Path, i+1))
			for _, tok := range nearbyTokens(scan.Lines, i) {
				dist[tok]++
			}
		}
	}
	return found
}

// lineMentionsVersionCarrier checks for known version-header literals or
// version query-parameter lookups, case-insensitively.
func (d *VersioningDetector) lineMentionsVersionCarrier(line string) bool {
	lower := strings.ToLower(line)
	for _, h := range d.profile.VersionHeaders {
		if strings.Contains(lower, `"`+h+`"`) || strings.Contains(lower, `'`+h+`'`) {
			return true
		}
	}
	return d.paramRe != nil && d.paramRe.MatchString(line)
}

// nearbyTokens extracts version-like tokens within nearbyWindow lines of
// a hit.
func nearbyTokens(lines []string, center int) []string {
	var toks []string
	lo := center - nearbyWindow
	hi := center + nearbyWindow
	if lo < 0 {
		lo = 0
	}
	if hi >= len(lines) {
		hi = len(lines) - 1
	}
	for i := lo; i <= hi; i++ {
		for _, m := range nearbyTokenRe.FindAllStringSubmatch(lines[i], -1) {
			tok := m[1]
			if tok == "" {
				tok = m[2]
			}
			toks = append(toks, tok)
		}
	}
	return toks
}

func (d *VersioningDetector) probeStructure(scans []endpoint.FileScan, dist map[string]int, examples *EvidenceBuffer) bool {
	found := false

	// Each version-shaped directory contributes its immediate source-file
	// count. Walk scans in order so examples stay deterministic.
	dirCounts := make(map[string]int)
	var dirOrder []string
	for _, scan := range scans {
		if _, ok := dirCounts[scan.File.Dir]; !ok {
			dirOrder = append(dirOrder, scan.File.Dir)
		}
		dirCounts[scan.File.Dir]++
	}

	for _, dir := range dirOrder {
		base := path.Base(dir)
		m := versionDirRe.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		dist[m[1]] += dirCounts[dir]
		examples.Add(dir + "/")
		found = true
	}

	for _, scan := range scans {
		m := versionFileRe.FindStringSubmatch(path.Base(scan.File.Path))
		if m == nil {
			continue
		}
		dist[m[1]]++
		examples.Add(scan.File.Path)
		found = true
	}

	return found
}

// postProbeIssues derives issues from the aggregated signal.
func (d *VersioningDetector) postProbeIssues(signal report.VersioningSignal) []report.Issue {
	var issues []report.Issue

	if signal.Scheme == report.SchemeNone {
		return []report.Issue{{
			Type:        report.IssueNoVersioning,
			Severity:    report.SeverityMedium,
			Description: "no API versioning detected in URL paths, headers, or source layout",
			Suggestion:  "introduce URL-path versioning (e.g. /api/v1/) before the first breaking change",
		}}
	}

	if mixed := tokenFormatsMixed(signal.Versions); mixed {
		issues = append(issues, report.Issue{
			Type:        report.IssueInconsistentVersionForms,
			Severity:    report.SeverityLow,
			Description: fmt.Sprintf("version tokens mix formats: %s", strings.Join(signal.Versions, ", ")),
			Suggestion:  "use a single version token format across the API",
		})
	}

	if tok, ok := d.skewedVersion(signal.Distribution); ok {
		issues = append(issues, report.Issue{
			Type:     report.IssueUnbalancedVersions,
			Severity: report.SeverityMedium,
			Description: fmt.Sprintf("endpoint distribution across versions is unbalanced (version %s dominates)",
				tok),
			Suggestion: "migrate or retire sparsely populated versions",
		})
	}

	return issues
}

var (
	integerTokenRe = regexp.MustCompile(`^\d+$`)
	decimalTokenRe = regexp.MustCompile(`^\d+\.\d+$`)
)

// tokenFormatsMixed reports whether integer and decimal (or other)
// version token styles coexist.
func tokenFormatsMixed(versions []string) bool {
	classes := make(map[string]bool)
	for _, v := range versions {
		switch {
		case integerTokenRe.MatchString(v):
			classes["integer"] = true
		case decimalTokenRe.MatchString(v):
			classes["decimal"] = true
		default:
			classes["other"] = true
		}
	}
	return len(classes) > 1
}

// skewedVersion reports the dominant token when the distribution skew
// exceeds the policy factor across two or more versions.
func (d *VersioningDetector) skewedVersion(dist map[string]int) (string, bool) {
	if len(dist) < 2 {
		return "", false
	}
	maxTok := ""
	maxN, minN := 0, -1
	for _, tok := range sortedKeys(dist) {
		n := dist[tok]
		if n > maxN {
			maxN = n
			maxTok = tok
		}
		if minN < 0 || n < minN {
			minN = n
		}
	}
	// The boundary is inclusive: a 10-to-2 split across two versions is
	// already unbalanced at the default factor of 5.
	if minN > 0 && maxN >= d.policy.SkewFactor*minN {
		return maxTok, true
	}
	return "", false
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
