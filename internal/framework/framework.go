// Package framework provides modular routing-framework family detection.
//
// Each known family contributes a Profile: a declarative rule-set of
// import signatures, route-site patterns, authentication markers, and
// version-header literals. Detection selects one profile which is then
// passed explicitly into every downstream detector, so family-specific
// branching lives here and nowhere else.
package framework

import (
	"regexp"
	"strings"

	"github.com/aaronchenweb/apiscan/internal/logger"
	"github.com/aaronchenweb/apiscan/internal/walker"
)

// Family represents a routing-framework family.
type Family string

const (
	FamilyUnknown Family = "unknown"
	FamilyFlask   Family = "flask"   // path-decorator routing
	FamilyDjango  Family = "django"  // class-based view routing
	FamilyFastAPI Family = "fastapi" // dependency-injected router
)

// detectionOrder is the fixed priority used to break signature-count ties.
var detectionOrder = []Family{FamilyFlask, FamilyDjango, FamilyFastAPI}

// RoutePattern locates a route-registration site in one source line.
// Patterns are data, not code: an ordered list per profile, first match wins.
type RoutePattern struct {
	Regex *regexp.Regexp
	// PathGroup is the capture group holding the literal path.
	PathGroup int
	// MethodGroup is the capture group holding a single HTTP verb
	// (decorator-name verbs); 0 when the pattern carries none.
	MethodGroup int
	// MethodsFromList enables scanning the matched line for an explicit
	// methods=[...] list.
	MethodsFromList bool
	// DefaultMethods apply when no explicit verb evidence is present.
	DefaultMethods []string
	// StripAnchors removes regex anchors (^, $) from extracted paths.
	StripAnchors bool
}

// AuthMarker is a structural marker characteristic of one authentication kind.
type AuthMarker struct {
	Literal    string // matched case-sensitively against raw source text
	Kind       string // token, session, basic
	Confidence string // low, medium, high
}

// Profile is the per-family rule-set consumed by the detectors.
type Profile struct {
	Family Family

	// ImportSignatures identify the family from import/declaration lines.
	ImportSignatures []*regexp.Regexp

	// RoutePatterns locate endpoint registrations, in precedence order.
	RoutePatterns []RoutePattern

	// AuthMarkers are the family's authentication signals.
	AuthMarkers []AuthMarker

	// VersionHeaders and VersionParams are literal names whose presence
	// (case-insensitive) indicates header/parameter versioning.
	VersionHeaders []string
	VersionParams  []string
}

// methodListRe extracts an explicit methods=[...] list on a route line.
var methodListRe = regexp.MustCompile(`methods\s*=\s*\[([^\]]*)\]`)

// Detector classifies the dominant routing-framework family of a tree.
type Detector struct {
	profiles []*Profile
	log      *logger.Logger
}

// NewDetector creates a detector with all known family profiles.
func NewDetector() *Detector {
	return &Detector{
		profiles: []*Profile{
			FlaskProfile(),
			DjangoProfile(),
			FastAPIProfile(),
		},
		log: logger.Global().WithComponent("framework"),
	}
}

// ProfileFor returns the profile for a family, or the generic profile
// for unknown families.
func ProfileFor(family Family) *Profile {
	switch family {
	case FamilyFlask:
		return FlaskProfile()
	case FamilyDjango:
		return DjangoProfile()
	case FamilyFastAPI:
		return FastAPIProfile()
	default:
		return GenericProfile()
	}
}

// Sample is one file's content made available to detection.
type Sample struct {
	File    walker.File
	Content []byte
}

// Detect returns the family with the highest signature count across the
// sample files. Ties break by fixed priority order; no signatures at all
// yields FamilyUnknown.
func (d *Detector) Detect(samples []Sample) Family {
	counts := make(map[Family]int, len(d.profiles))

	for _, s := range samples {
		text := string(s.Content)
		for _, p := range d.profiles {
			for _, sig := range p.ImportSignatures {
				counts[p.Family] += len(sig.FindAllStringIndex(text, -1))
			}
		}
	}

	best := FamilyUnknown
	bestCount := 0
	for _, fam := range detectionOrder {
		if counts[fam] > bestCount {
			best = fam
			bestCount = counts[fam]
		}
	}

	d.log.Debugf("framework signature counts: flask=%d django=%d fastapi=%d -> %s",
		counts[FamilyFlask], counts[FamilyDjango], counts[FamilyFastAPI], best)
	return best
}

// ExplicitMethods parses a methods=[...] list from a route line.
// Returns nil when the line carries no list.
func ExplicitMethods(line string) []string {
	m := methodListRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	return splitMethodList(m[1])
}

var methodTokenRe = regexp.MustCompile(`['"]([A-Za-z]+)['"]`)

func splitMethodList(list string) []string {
	var methods []string
	for _, tok := range methodTokenRe.FindAllStringSubmatch(list, -1) {
		methods = append(methods, strings.ToUpper(tok[1]))
	}
	return methods
}

var knownVerbs = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// IsKnownVerb reports whether a token is a recognized HTTP verb.
func IsKnownVerb(v string) bool {
	return knownVerbs[v]
}
