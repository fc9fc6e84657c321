package framework

import (
	"testing"

	"github.com/aaronchenweb/apiscan/internal/walker"
)

func sample(path, content string) Sample {
	return Sample{
		File:    walker.File{Path: path},
		Content: []byte(content),
	}
}

func TestDetector_Detect(t *testing.T) {
	tests := []struct {
		name    string
		samples []Sample
		want    Family
	}{
		{
			name: "flask app",
			samples: []Sample{
				sample("app.py", "from flask import Flask\napp = Flask(__name__)\n"),
			},
			want: FamilyFlask,
		},
		{
			name: "fastapi app",
			samples: []Sample{
				sample("main.py", "from fastapi import FastAPI\napp = FastAPI()\nrouter = APIRouter()\n"),
			},
			want: FamilyFastAPI,
		},
		{
			name: "django urls",
			samples: []Sample{
				sample("urls.py", "from django.urls import path\nurlpatterns = [\n    path('users/', UserView.as_view()),\n]\n"),
			},
			want: FamilyDjango,
		},
		{
			name: "no signatures",
			samples: []Sample{
				sample("util.py", "def helper():\n    return 1\n"),
			},
			want: FamilyUnknown,
		},
		{
			name:    "empty sample set",
			samples: nil,
			want:    FamilyUnknown,
		},
		{
			name: "tie broken by fixed priority",
			samples: []Sample{
				sample("a.py", "from flask import Flask\n"),
				sample("b.py", "from fastapi import FastAPI\n"),
			},
			want: FamilyFlask,
		},
		{
			name: "dominant family wins",
			samples: []Sample{
				sample("a.py", "from flask import Flask\n"),
				sample("b.py", "from fastapi import FastAPI\nFastAPI()\nAPIRouter()\n"),
			},
			want: FamilyFastAPI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			if got := d.Detect(tt.samples); got != tt.want {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProfileFor(t *testing.T) {
	tests := []struct {
		family Family
		want   Family
	}{
		{FamilyFlask, FamilyFlask},
		{FamilyDjango, FamilyDjango},
		{FamilyFastAPI, FamilyFastAPI},
		{FamilyUnknown, FamilyUnknown},
		{Family("bottle"), FamilyUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.family), func(t *testing.T) {
			p := ProfileFor(tt.family)
			if p == nil {
				t.Fatal("ProfileFor() returned nil")
			}
			if p.Family != tt.want {
				t.Errorf("ProfileFor(%v).Family = %v, want %v", tt.family, p.Family, tt.want)
			}
			if len(p.RoutePatterns) == 0 {
				t.Error("profile should carry route patterns")
			}
		})
	}
}

func TestExplicitMethods(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "two methods",
			line: `@app.route("/users", methods=["GET", "POST"])`,
			want: []string{"GET", "POST"},
		},
		{
			name: "lowercase normalized",
			line: `@app.route("/users", methods=['post'])`,
			want: []string{"POST"},
		},
		{
			name: "no list",
			line: `@app.route("/users")`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExplicitMethods(tt.line)
			if len(got) != len(tt.want) {
				t.Fatalf("ExplicitMethods() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ExplicitMethods()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
