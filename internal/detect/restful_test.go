package detect

import (
	"testing"

	"github.com/aaronchenweb/apiscan/internal/endpoint"
	"github.com/aaronchenweb/apiscan/internal/framework"
	"github.com/aaronchenweb/apiscan/internal/report"
)

func newRESTful() *RESTfulDetector {
	return NewRESTfulDetector(framework.FlaskProfile(), DefaultRESTfulPolicy())
}

func ep(path string, methods ...string) endpoint.Endpoint {
	return endpoint.Endpoint{Path: path, Methods: methods, File: "app.py", Line: 1}
}

func typesOf(issues []report.Issue) map[report.IssueType]int {
	m := make(map[report.IssueType]int)
	for _, is := range issues {
		m[is.Type]++
	}
	return m
}

func TestRESTfulDetector_Scenario(t *testing.T) {
	// GET /getUsers, POST /users/update, DELETE /users/{id}
	endpoints := []endpoint.Endpoint{
		ep("/getUsers", "GET"),
		ep("/users/update", "POST"),
		ep("/users/{id}", "DELETE"),
	}

	issues := newRESTful().Detect(nil, endpoints)

	var naming, postUpdate bool
	for _, is := range issues {
		if is.Type == report.IssueEndpointNaming && is.Endpoint == "/getUsers" && is.Severity == report.SeverityMedium {
			naming = true
		}
		if is.Type == report.IssueHTTPMethod && is.Endpoint == "/users/update" && is.Severity == report.SeverityMedium {
			postUpdate = true
		}
		if is.Type == report.IssueHTTPMethod && is.Endpoint == "/users/{id}" {
			t.Errorf("DELETE endpoint should not be flagged: %v", is)
		}
	}
	if !naming {
		t.Error("endpoint_naming (medium) should fire on /getUsers")
	}
	if !postUpdate {
		t.Error("http_method (medium) should fire on POST /users/update")
	}
}

func TestRESTfulDetector_GETWithMutationWord(t *testing.T) {
	issues := newRESTful().Detect(nil, []endpoint.Endpoint{ep("/users/delete", "GET")})

	var found bool
	for _, is := range issues {
		if is.Type == report.IssueHTTPMethod && is.Severity == report.SeverityHigh {
			found = true
		}
	}
	if !found {
		t.Errorf("GET with mutation-suggesting path should rate high severity, got %v", issues)
	}
}

func TestRESTfulDetector_Hierarchy(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"shallow", "/users/{id}/orders", false},
		{"exactly at limit", "/api/users/orders", false},
		{"deep", "/api/shops/categories/products/reviews", true},
		{"deep but params stripped", "/api/{v}/users/{id}/orders", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := newRESTful().Detect(nil, []endpoint.Endpoint{ep(tt.path, "GET")})
			got := typesOf(issues)[report.IssueResourceHierarchy] > 0
			if got != tt.want {
				t.Errorf("resource_hierarchy fired = %v, want %v for %s", got, tt.want, tt.path)
			}
			if tt.want {
				for _, is := range issues {
					if is.Type == report.IssueResourceHierarchy && is.Endpoint != tt.path {
						t.Errorf("issue carries path %s, want %s", is.Endpoint, tt.path)
					}
				}
			}
		})
	}
}

func TestRESTfulDetector_SingularPluralPair(t *testing.T) {
	endpoints := []endpoint.Endpoint{
		ep("/user/{id}", "GET"),
		ep("/users", "GET"),
	}

	issues := newRESTful().Detect(nil, endpoints)

	var pair bool
	for _, is := range issues {
		if is.Type == report.IssueResourceNaming && is.Location == "" {
			pair = true
		}
	}
	if !pair {
		t.Errorf("coexisting user/users segments should flag resource_naming, got %v", issues)
	}
}

func TestRESTfulDetector_UnderscoreSeparators(t *testing.T) {
	issues := newRESTful().Detect(nil, []endpoint.Endpoint{ep("/user_profiles", "GET")})

	var found bool
	for _, is := range issues {
		if is.Type == report.IssueEndpointNaming && is.Severity == report.SeverityLow {
			found = true
		}
	}
	if !found {
		t.Errorf("underscore separators should flag low-severity naming, got %v", issues)
	}
}

func TestRESTfulDetector_StatusCodes(t *testing.T) {
	content := `from flask import Flask

@app.route("/items", methods=["POST"])
def create_item():
    item = make_item()
    return jsonify(item), 201

@app.route("/things", methods=["POST"])
def create_thing():
    return jsonify(make_thing())
`
	scan := scanFromText("app.py", content)
	endpoints := []endpoint.Endpoint{
		{Path: "/items", Methods: []string{"POST"}, File: "app.py", Line: 3},
		{Path: "/things", Methods: []string{"POST"}, File: "app.py", Line: 8},
	}

	issues := newRESTful().Detect([]endpoint.FileScan{scan}, endpoints)

	for _, is := range report.FilterByTypes(issues, report.IssueStatusCode) {
		if is.Endpoint == "/items" {
			t.Errorf("handler returning 201 should not be flagged: %v", is)
		}
	}

	var missing201, noStatus bool
	for _, is := range report.FilterByTypes(issues, report.IssueStatusCode) {
		if is.Endpoint == "/things" && is.Severity == report.SeverityLow {
			missing201 = true
		}
		if is.Endpoint == "/things" && is.Severity == report.SeverityMedium {
			noStatus = true
		}
	}
	if !missing201 {
		t.Error("creating POST without 201 should flag status_code (low)")
	}
	if !noStatus {
		t.Error("handler without status evidence should flag status_code (medium)")
	}
}

func TestRESTfulDetector_DeleteWithout204(t *testing.T) {
	content := `@app.route("/items/<id>", methods=["DELETE"])
def delete_item(id):
    remove(id)
    return "", 204
`
	scan := scanFromText("app.py", content)
	endpoints := []endpoint.Endpoint{
		{Path: "/items/<id>", Methods: []string{"DELETE"}, File: "app.py", Line: 1},
	}

	issues := newRESTful().Detect([]endpoint.FileScan{scan}, endpoints)
	if n := typesOf(issues)[report.IssueStatusCode]; n != 0 {
		t.Errorf("DELETE handler returning 204 should not be flagged, got %d status issues", n)
	}
}

func TestRESTfulDetector_ContentNegotiation(t *testing.T) {
	content := `@app.route("/report")
def report_view():
    body = render()
    return Response(body, mimetype="application/json", status=200)

@app.route("/raw")
def raw_view():
    return build_payload()
`
	scan := scanFromText("app.py", content)
	endpoints := []endpoint.Endpoint{
		{Path: "/report", Methods: []string{"GET"}, File: "app.py", Line: 1},
		{Path: "/raw", Methods: []string{"GET"}, File: "app.py", Line: 6},
	}

	issues := newRESTful().Detect([]endpoint.FileScan{scan}, endpoints)
	negotiation := report.FilterByTypes(issues, report.IssueContentNegotiation)

	var hardcoded, noEvidence bool
	for _, is := range negotiation {
		if is.Endpoint == "/report" {
			hardcoded = true
		}
		if is.Endpoint == "/raw" {
			noEvidence = true
		}
		if is.Severity != report.SeverityLow {
			t.Errorf("content_negotiation severity = %s, want low", is.Severity)
		}
	}
	if !hardcoded {
		t.Error("hardcoded content type without accept handling should be flagged")
	}
	if !noEvidence {
		t.Error("return without content-type evidence should be flagged")
	}
}

func TestRESTfulDetector_NoWindowNoTextualChecks(t *testing.T) {
	// Django-style url tables have no adjacent handler body; the textual
	// checks must stay silent rather than flag everything.
	content := `urlpatterns = [
    path('users/', UserView.as_view()),
]
`
	scan := scanFromText("urls.py", content)
	endpoints := []endpoint.Endpoint{
		{Path: "/users/", Methods: []string{"GET"}, File: "urls.py", Line: 2},
	}

	issues := newRESTful().Detect([]endpoint.FileScan{scan}, endpoints)
	got := typesOf(issues)
	if got[report.IssueStatusCode] > 0 || got[report.IssueContentNegotiation] > 0 {
		t.Errorf("textual checks should skip endpoints without handler windows, got %v", issues)
	}
}

func TestRESTfulScore(t *testing.T) {
	issues := []report.Issue{
		{Type: report.IssueHTTPMethod, Severity: report.SeverityHigh},
		{Type: report.IssueEndpointNaming, Severity: report.SeverityMedium},
		{Type: report.IssueContentNegotiation, Severity: report.SeverityLow},
	}
	if got := report.Score(issues); got != 70 {
		t.Errorf("Score = %d, want 100-15-10-5 = 70", got)
	}
}
