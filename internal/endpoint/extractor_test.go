package endpoint

import (
	"reflect"
	"testing"

	"github.com/aaronchenweb/apiscan/internal/framework"
	"github.com/aaronchenweb/apiscan/internal/walker"
)

func scanOne(t *testing.T, fam framework.Family, content string) FileScan {
	t.Helper()
	x := NewExtractor(framework.ProfileFor(fam))
	return x.ScanFile(walker.File{Path: "app.py"}, []byte(content))
}

func TestExtractor_Flask(t *testing.T) {
	content := `from flask import Flask
app = Flask(__name__)

@app.route("/users")
def list_users():
    return users

@app.route("/users", methods=["POST", "PUT"])
def create_user():
    return user, 201
`
	scan := scanOne(t, framework.FamilyFlask, content)

	if len(scan.Endpoints) != 2 {
		t.Fatalf("got %d endpoints, want 2", len(scan.Endpoints))
	}

	first := scan.Endpoints[0]
	if first.Path != "/users" || first.Line != 4 {
		t.Errorf("first endpoint = %s at line %d, want /users at 4", first.Path, first.Line)
	}
	if !reflect.DeepEqual(first.Methods, []string{"GET"}) {
		t.Errorf("decorator without methods list should default to GET, got %v", first.Methods)
	}

	second := scan.Endpoints[1]
	if !reflect.DeepEqual(second.Methods, []string{"POST", "PUT"}) {
		t.Errorf("explicit methods = %v, want [POST PUT]", second.Methods)
	}
}

func TestExtractor_FastAPI(t *testing.T) {
	content := `from fastapi import APIRouter
router = APIRouter()

@router.get("/items/{item_id}")
def read_item(item_id: int):
    return item

@router.delete("/items/{item_id}")
def delete_item(item_id: int):
    return None
`
	scan := scanOne(t, framework.FamilyFastAPI, content)

	if len(scan.Endpoints) != 2 {
		t.Fatalf("got %d endpoints, want 2", len(scan.Endpoints))
	}
	if !reflect.DeepEqual(scan.Endpoints[0].Methods, []string{"GET"}) {
		t.Errorf("verb from decorator name = %v, want [GET]", scan.Endpoints[0].Methods)
	}
	if !reflect.DeepEqual(scan.Endpoints[1].Methods, []string{"DELETE"}) {
		t.Errorf("verb from decorator name = %v, want [DELETE]", scan.Endpoints[1].Methods)
	}
	if scan.Endpoints[0].Path != "/items/{item_id}" {
		t.Errorf("path = %s, want /items/{item_id}", scan.Endpoints[0].Path)
	}
}

func TestExtractor_Django(t *testing.T) {
	content := `from django.urls import path, re_path

urlpatterns = [
    path('users/', UserListView.as_view()),
    re_path(r'^accounts/(?P<pk>\d+)/$', AccountView.as_view()),
]
`
	scan := scanOne(t, framework.FamilyDjango, content)

	if len(scan.Endpoints) != 2 {
		t.Fatalf("got %d endpoints, want 2", len(scan.Endpoints))
	}
	if scan.Endpoints[0].Path != "/users/" {
		t.Errorf("path = %s, want /users/", scan.Endpoints[0].Path)
	}
	if scan.Endpoints[1].Path != "/accounts/(?P<pk>\\d+)/" {
		t.Errorf("anchors should be stripped, got %s", scan.Endpoints[1].Path)
	}
	if !reflect.DeepEqual(scan.Endpoints[0].Methods, []string{"GET"}) {
		t.Errorf("class-based views default to GET, got %v", scan.Endpoints[0].Methods)
	}
}

func TestExtractor_DropsEmptyPaths(t *testing.T) {
	content := `@app.route("")
def broken():
    pass

@app.route("///")
def also_broken():
    pass
`
	scan := scanOne(t, framework.FamilyFlask, content)
	if len(scan.Endpoints) != 0 {
		t.Errorf("empty/unparseable paths should be dropped, got %v", scan.Endpoints)
	}
}

func TestExtractor_GenericProfile(t *testing.T) {
	content := `@app.post("/orders")
def create_order():
    pass

@app.route("/legacy", methods=["GET"])
def legacy():
    pass
`
	x := NewExtractor(nil) // nil profile falls back to generic
	scan := x.ScanFile(walker.File{Path: "x.py"}, []byte(content))

	if len(scan.Endpoints) != 2 {
		t.Fatalf("got %d endpoints, want 2", len(scan.Endpoints))
	}
	if !reflect.DeepEqual(scan.Endpoints[0].Methods, []string{"POST"}) {
		t.Errorf("generic verb extraction = %v, want [POST]", scan.Endpoints[0].Methods)
	}
}

func TestMerge_RestoresWalkOrder(t *testing.T) {
	scans := []FileScan{
		{File: walker.File{Index: 2, Path: "c.py"}, Endpoints: []Endpoint{{Path: "/c", Methods: []string{"GET"}}}},
		{File: walker.File{Index: 0, Path: "a.py"}, Endpoints: []Endpoint{{Path: "/a", Methods: []string{"GET"}}}},
		{File: walker.File{Index: 1, Path: "b.py"}, Endpoints: []Endpoint{{Path: "/b", Methods: []string{"GET"}}}},
	}

	got := Merge(scans)
	want := []string{"/a", "/b", "/c"}
	if len(got) != len(want) {
		t.Fatalf("got %d endpoints, want %d", len(got), len(want))
	}
	for i, p := range want {
		if got[i].Path != p {
			t.Errorf("endpoint[%d].Path = %s, want %s", i, got[i].Path, p)
		}
	}
}

func TestEndpoint_LiteralSegments(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/api/v1/users/{id}/orders", []string{"api", "v1", "users", "orders"}},
		{"/users/<int:pk>/", []string{"users"}},
		{"/users/:id", []string{"users"}},
		{"/", nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ep := Endpoint{Path: tt.path}
			got := ep.LiteralSegments()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LiteralSegments() = %v, want %v", got, tt.want)
			}
		})
	}
}
