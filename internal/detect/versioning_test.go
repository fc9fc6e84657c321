package detect

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/aaronchenweb/apiscan/internal/endpoint"
	"github.com/aaronchenweb/apiscan/internal/framework"
	"github.com/aaronchenweb/apiscan/internal/report"
	"github.com/aaronchenweb/apiscan/internal/walker"
)

func epGET(path string) endpoint.Endpoint {
	return endpoint.Endpoint{Path: path, Methods: []string{"GET"}, File: "app.py", Line: 1}
}

func TestVersioningDetector_URLPathProbe(t *testing.T) {
	d := NewVersioningDetector(framework.FlaskProfile(), DefaultVersioningPolicy())

	endpoints := []endpoint.Endpoint{
		epGET("/api/v2/users"),
		epGET("/api/v2/orders"),
	}

	signal, issues := d.Detect(nil, endpoints)

	if signal.Scheme != report.SchemeURLPath {
		t.Errorf("Scheme = %s, want url_path", signal.Scheme)
	}
	if !reflect.DeepEqual(signal.Versions, []string{"2"}) {
		t.Errorf("Versions = %v, want [2]", signal.Versions)
	}
	if signal.Distribution["2"] != 2 {
		t.Errorf("Distribution[2] = %d, want 2", signal.Distribution["2"])
	}
	for _, is := range issues {
		if is.Type == report.IssueNoVersioning {
			t.Error("no_versioning issue should not fire when url_path versioning exists")
		}
	}
}

func TestVersioningDetector_NoEvidence(t *testing.T) {
	d := NewVersioningDetector(framework.FlaskProfile(), DefaultVersioningPolicy())

	signal, issues := d.Detect(nil, []endpoint.Endpoint{epGET("/users")})

	if signal.Scheme != report.SchemeNone {
		t.Errorf("Scheme = %s, want none", signal.Scheme)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want exactly 1: %v", len(issues), issues)
	}
	if issues[0].Type != report.IssueNoVersioning || issues[0].Severity != report.SeverityMedium {
		t.Errorf("issue = %s/%s, want no_versioning/medium", issues[0].Type, issues[0].Severity)
	}
}

func TestVersioningDetector_HeaderProbe(t *testing.T) {
	d := NewVersioningDetector(framework.FlaskProfile(), DefaultVersioningPolicy())

	scans := []endpoint.FileScan{{
		File: walker.File{Path: "api.py"},
		Lines: []string{
			`def handler(request):`,
			`    requested = request.headers.get("X-API-Version")`,
			`    if requested == "v2":`,
			`        return new_handler(request)`,
		},
	}}

	signal, _ := d.Detect(scans, []endpoint.Endpoint{epGET("/users")})

	if signal.Scheme != report.SchemeHeader {
		t.Errorf("Scheme = %s, want http_header", signal.Scheme)
	}
	if signal.Distribution["2"] == 0 {
		t.Errorf("nearby token v2 should be attributed to the file, got %v", signal.Distribution)
	}
}

func TestVersioningDetector_PathProbeShortCircuitsHeaderProbe(t *testing.T) {
	d := NewVersioningDetector(framework.FlaskProfile(), DefaultVersioningPolicy())

	scans := []endpoint.FileScan{{
		File:  walker.File{Path: "api.py"},
		Lines: []string{`v = request.headers.get("X-API-Version")  # "3"`},
	}}

	signal, _ := d.Detect(scans, []endpoint.Endpoint{epGET("/api/v1/users")})

	if signal.Scheme != report.SchemeURLPath {
		t.Errorf("Scheme = %s, want url_path (path evidence outranks header evidence)", signal.Scheme)
	}
	if _, ok := signal.Distribution["3"]; ok {
		t.Error("header probe should not run once path evidence is found")
	}
}

func TestVersioningDetector_StructureProbe(t *testing.T) {
	d := NewVersioningDetector(framework.FlaskProfile(), DefaultVersioningPolicy())

	var scans []endpoint.FileScan
	for i := 0; i < 10; i++ {
		scans = append(scans, endpoint.FileScan{
			File: walker.File{Path: fmt.Sprintf("v1/mod%d.py", i), Dir: "v1"},
		})
	}
	for i := 0; i < 2; i++ {
		scans = append(scans, endpoint.FileScan{
			File: walker.File{Path: fmt.Sprintf("v2/mod%d.py", i), Dir: "v2"},
		})
	}

	signal, issues := d.Detect(scans, nil)

	if signal.Scheme != report.SchemeStructure {
		t.Errorf("Scheme = %s, want structure", signal.Scheme)
	}
	if signal.Distribution["1"] != 10 || signal.Distribution["2"] != 2 {
		t.Errorf("Distribution = %v, want 1:10 2:2", signal.Distribution)
	}

	var unbalanced bool
	for _, is := range issues {
		if is.Type == report.IssueUnbalancedVersions {
			unbalanced = true
			if is.Severity != report.SeverityMedium {
				t.Errorf("unbalanced_versions severity = %s, want medium", is.Severity)
			}
		}
	}
	if !unbalanced {
		t.Error("unbalanced_versions should fire for a 10-to-2 split at skew factor 5")
	}
}

func TestVersioningDetector_ConflictingSchemes(t *testing.T) {
	d := NewVersioningDetector(framework.FlaskProfile(), DefaultVersioningPolicy())

	scans := []endpoint.FileScan{
		{File: walker.File{Path: "v2/routes.py", Dir: "v2"}},
	}
	endpoints := []endpoint.Endpoint{epGET("/api/v1/users")}

	signal, issues := d.Detect(scans, endpoints)

	if signal.Scheme != report.SchemeURLPath {
		t.Errorf("Scheme = %s, want the client-visible url_path to win", signal.Scheme)
	}
	if !reflect.DeepEqual(signal.Versions, []string{"1", "2"}) {
		t.Errorf("Versions = %v, want union [1 2]", signal.Versions)
	}

	var inconsistent bool
	for _, is := range issues {
		if is.Type == report.IssueInconsistentVersioning && is.Severity == report.SeverityMedium {
			inconsistent = true
		}
	}
	if !inconsistent {
		t.Errorf("conflicting schemes should surface an inconsistent_versioning issue, got %v", issues)
	}
}

func TestVersioningDetector_MixedFormats(t *testing.T) {
	d := NewVersioningDetector(framework.FlaskProfile(), DefaultVersioningPolicy())

	endpoints := []endpoint.Endpoint{
		epGET("/api/v1/users"),
		epGET("/api/2.0/orders"),
	}

	_, issues := d.Detect(nil, endpoints)

	var mixed bool
	for _, is := range issues {
		if is.Type == report.IssueInconsistentVersionForms && is.Severity == report.SeverityLow {
			mixed = true
		}
	}
	if !mixed {
		t.Errorf("integer and decimal tokens should flag inconsistent_version_formats, got %v", issues)
	}
}

func TestVersioningDetector_Deterministic(t *testing.T) {
	d := NewVersioningDetector(framework.FlaskProfile(), DefaultVersioningPolicy())

	scans := []endpoint.FileScan{
		{File: walker.File{Path: "v1/a.py", Dir: "v1"}},
		{File: walker.File{Path: "v2/b.py", Dir: "v2"}},
	}
	endpoints := []endpoint.Endpoint{
		epGET("/api/v1/users"),
		epGET("/api/v2/users"),
		epGET("/api/v2/orders"),
	}

	first, _ := d.Detect(scans, endpoints)
	second, _ := d.Detect(scans, endpoints)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two runs over an unchanged tree differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestVersioningDetector_ExamplesBounded(t *testing.T) {
	d := NewVersioningDetector(framework.FlaskProfile(), DefaultVersioningPolicy())

	var endpoints []endpoint.Endpoint
	for i := 0; i < 20; i++ {
		endpoints = append(endpoints, epGET(fmt.Sprintf("/api/v1/resource%d", i)))
	}

	signal, _ := d.Detect(nil, endpoints)
	if len(signal.Examples) > DefaultEvidenceCap {
		t.Errorf("examples list has %d entries, cap is %d", len(signal.Examples), DefaultEvidenceCap)
	}
}

func TestVersioningDetector_ParamLookupFromProfile(t *testing.T) {
	// The parameter names come from the family profile, not a fixed list.
	custom := framework.GenericProfile()
	custom.VersionParams = []string{"rev"}

	tests := []struct {
		name    string
		profile *framework.Profile
		line    string
		want    bool
	}{
		{"flask default version param", framework.FlaskProfile(), `ver = request.args.get('version')`, true},
		{"flask default short param", framework.FlaskProfile(), `ver = request.args.get('v')`, true},
		{"custom profile param", custom, `ver = request.args.get('rev')`, true},
		{"custom profile ignores foreign param", custom, `ver = request.args.get('version')`, false},
		{"unrelated param", framework.FlaskProfile(), `page = request.args.get('page')`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewVersioningDetector(tt.profile, DefaultVersioningPolicy())

			scans := []endpoint.FileScan{{
				File:  walker.File{Path: "api.py"},
				Lines: []string{tt.line},
			}}

			signal, _ := d.Detect(scans, []endpoint.Endpoint{epGET("/users")})
			got := signal.Scheme == report.SchemeHeader
			if got != tt.want {
				t.Errorf("Scheme = %s for %q, want carrier hit %v", signal.Scheme, tt.line, tt.want)
			}
		})
	}
}

func TestVersioningDetector_StructureProbePrefixedDirs(t *testing.T) {
	d := NewVersioningDetector(framework.FlaskProfile(), DefaultVersioningPolicy())

	scans := []endpoint.FileScan{
		{File: walker.File{Path: "v2_api/routes.py", Dir: "v2_api"}},
		{File: walker.File{Path: "verify/token.py", Dir: "verify"}},
		{File: walker.File{Path: "v8engine/render.py", Dir: "v8engine"}},
	}

	signal, _ := d.Detect(scans, nil)

	if signal.Scheme != report.SchemeStructure {
		t.Errorf("Scheme = %s, want structure for a v2_api/ directory", signal.Scheme)
	}
	if signal.Distribution["2"] != 1 {
		t.Errorf("Distribution = %v, want 2:1 from v2_api/", signal.Distribution)
	}
	if _, ok := signal.Distribution["8"]; ok {
		t.Error("v8engine/ should not count as a version directory")
	}
	if len(signal.Versions) != 1 {
		t.Errorf("Versions = %v, want only the v2_api token", signal.Versions)
	}
}
