package endpoint

import (
	"sort"
	"strings"

	"github.com/aaronchenweb/apiscan/internal/framework"
	"github.com/aaronchenweb/apiscan/internal/logger"
	"github.com/aaronchenweb/apiscan/internal/walker"
)

// FileScan is the per-file result of the extraction pass. Detectors that
// need raw textual evidence (version headers, secrets, handler bodies)
// read Lines; everything else uses Endpoints.
type FileScan struct {
	File      walker.File
	Lines     []string
	Endpoints []Endpoint
}

// Extractor locates route-registration sites using the selected family
// profile's surface patterns.
type Extractor struct {
	profile *framework.Profile
	log     *logger.Logger
}

// NewExtractor creates an extractor for the given profile.
func NewExtractor(profile *framework.Profile) *Extractor {
	if profile == nil {
		profile = framework.GenericProfile()
	}
	return &Extractor{
		profile: profile,
		log:     logger.Global().WithComponent("extractor"),
	}
}

// ScanFile extracts endpoints from one file. Endpoints with empty or
// unparseable paths are dropped, not errored. Endpoint order follows
// source-line order.
func (x *Extractor) ScanFile(f walker.File, content []byte) FileScan {
	lines := strings.Split(string(content), "\n")
	scan := FileScan{File: f, Lines: lines}

	for i, line := range lines {
		ep, ok := x.matchLine(line)
		if !ok {
			continue
		}
		ep.File = f.Path
		ep.Line = i + 1
		scan.Endpoints = append(scan.Endpoints, ep)
	}
	return scan
}

// matchLine tries the profile's route patterns in precedence order.
func (x *Extractor) matchLine(line string) (Endpoint, bool) {
	for _, p := range x.profile.RoutePatterns {
		m := p.Regex.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		path := normalizePath(m[p.PathGroup], p.StripAnchors)
		if path == "" {
			// a matched registration with no usable path is dropped
			continue
		}

		methods := x.resolveMethods(p, m, line)
		if len(methods) == 0 {
			continue
		}

		return Endpoint{
			Path:     path,
			Methods:  methods,
			RouteRaw: strings.TrimSpace(line),
		}, true
	}
	return Endpoint{}, false
}

func (x *Extractor) resolveMethods(p framework.RoutePattern, m []string, line string) []string {
	var methods []string

	if p.MethodGroup > 0 {
		v := strings.ToUpper(m[p.MethodGroup])
		if framework.IsKnownVerb(v) {
			methods = []string{v}
		}
	}
	if methods == nil && p.MethodsFromList {
		for _, v := range framework.ExplicitMethods(line) {
			if framework.IsKnownVerb(v) {
				methods = append(methods, v)
			}
		}
	}
	if methods == nil {
		methods = append(methods, p.DefaultMethods...)
	}

	sort.Strings(methods)
	return dedupeSorted(methods)
}

// normalizePath canonicalizes an extracted route literal: strips regex
// anchors where the pattern requires it, guarantees a leading slash, and
// drops paths with no literal content.
func normalizePath(raw string, stripAnchors bool) string {
	p := strings.TrimSpace(raw)
	if stripAnchors {
		p = strings.TrimPrefix(p, "^")
		p = strings.TrimSuffix(p, "$")
	}
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p == "/" {
		return p
	}
	// a path made only of separators carries no signal
	if strings.Trim(p, "/") == "" {
		return ""
	}
	return p
}

func dedupeSorted(in []string) []string {
	out := in[:0]
	var prev string
	for i, v := range in {
		if i == 0 || v != prev {
			out = append(out, v)
		}
		prev = v
	}
	return out
}

// Merge combines per-file scans back into walk order, restoring the
// deterministic ordering guarantee regardless of scan completion order.
func Merge(scans []FileScan) []Endpoint {
	sorted := make([]FileScan, len(scans))
	copy(sorted, scans)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].File.Index < sorted[j].File.Index
	})

	var endpoints []Endpoint
	for _, s := range sorted {
		endpoints = append(endpoints, s.Endpoints...)
	}
	return endpoints
}

// SortScans orders scans by walk index in place.
func SortScans(scans []FileScan) {
	sort.Slice(scans, func(i, j int) bool {
		return scans[i].File.Index < scans[j].File.Index
	})
}
