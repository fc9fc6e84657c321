package report

import (
	"time"

	"github.com/aaronchenweb/apiscan/internal/endpoint"
)

// VersioningScheme is the mechanism by which an API communicates version.
type VersioningScheme string

const (
	SchemeNone      VersioningScheme = "none"
	SchemeURLPath   VersioningScheme = "url_path"
	SchemeHeader    VersioningScheme = "http_header"
	SchemeStructure VersioningScheme = "structure"
)

// VersioningSignal is the aggregated versioning evidence for a project.
type VersioningSignal struct {
	Scheme       VersioningScheme `json:"scheme"`
	Versions     []string         `json:"versions"`     // sorted version tokens
	Distribution map[string]int   `json:"distribution"` // version token -> endpoint/file count
	Examples     []string         `json:"examples"`     // bounded, insertion-ordered
}

// Confidence is the qualitative certainty of a heuristic inference.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// AuthMethod is one detected authentication method.
type AuthMethod struct {
	Kind       string     `json:"kind"` // token, session, basic, custom, unknown
	Confidence Confidence `json:"confidence"`
	Locations  []string   `json:"locations"`
}

// Scores holds the per-concern numeric scores.
type Scores struct {
	RESTful   int    `json:"restful"`
	Auth      int    `json:"auth"`
	AuthGrade string `json:"auth_grade"`
}

// Stats summarizes the scan itself.
type Stats struct {
	FilesWalked    int           `json:"files_walked"`
	FilesScanned   int           `json:"files_scanned"`
	FilesSkipped   int           `json:"files_skipped"`
	DuplicateFiles int           `json:"duplicate_files"`
	BytesScanned   int64         `json:"bytes_scanned"`
	Duration       time.Duration `json:"duration"`
}

// AnalysisReport is the complete structured diagnosis of one analysis
// run. All contained entities are fresh per run and read-only afterward.
type AnalysisReport struct {
	Root        string              `json:"root"`
	Framework   string              `json:"framework"`
	GeneratedAt time.Time           `json:"generated_at"`
	Endpoints   []endpoint.Endpoint `json:"endpoints"`
	Versioning  VersioningSignal    `json:"versioning"`
	AuthMethods []AuthMethod        `json:"auth_methods"`
	Issues      []Issue             `json:"issues"`
	Scores      Scores              `json:"scores"`
	Stats       Stats               `json:"stats"`
}

// Assemble builds the final report from the aggregated pieces.
func Assemble(root, family string, endpoints []endpoint.Endpoint, versioning VersioningSignal,
	methods []AuthMethod, issues []Issue, scores Scores, stats Stats) *AnalysisReport {
	if endpoints == nil {
		endpoints = []endpoint.Endpoint{}
	}
	if methods == nil {
		methods = []AuthMethod{}
	}
	if issues == nil {
		issues = []Issue{}
	}
	return &AnalysisReport{
		Root:        root,
		Framework:   family,
		GeneratedAt: time.Now().UTC(),
		Endpoints:   endpoints,
		Versioning:  versioning,
		AuthMethods: methods,
		Issues:      issues,
		Scores:      scores,
		Stats:       stats,
	}
}
