// Package report defines the analysis data model, issue aggregation, and
// severity-weighted scoring.
package report

// Severity is the issue severity tier.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Weight returns the score deduction for this severity tier.
func (s Severity) Weight() int {
	switch s {
	case SeverityHigh:
		return 15
	case SeverityMedium:
		return 10
	case SeverityLow:
		return 5
	default:
		return 0
	}
}

// IssueType is the closed set of issue classifications.
type IssueType string

const (
	IssueEndpointNaming           IssueType = "endpoint_naming"
	IssueResourceNaming           IssueType = "resource_naming"
	IssueHTTPMethod               IssueType = "http_method"
	IssueResourceHierarchy        IssueType = "resource_hierarchy"
	IssueStatusCode               IssueType = "status_code"
	IssueContentNegotiation       IssueType = "content_negotiation"
	IssueMissingAuth              IssueType = "missing_auth"
	IssueHardcodedSecret          IssueType = "hardcoded_secret"
	IssueNoVersioning             IssueType = "no_versioning"
	IssueInconsistentVersioning   IssueType = "inconsistent_versioning"
	IssueInconsistentVersionForms IssueType = "inconsistent_version_formats"
	IssueUnbalancedVersions       IssueType = "unbalanced_versions"
)

// Issue is a single detected problem. Created by exactly one detector,
// never mutated after creation.
type Issue struct {
	Type        IssueType `json:"type"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`
	Suggestion  string    `json:"suggestion,omitempty"`
	Endpoint    string    `json:"endpoint,omitempty"`
	Location    string    `json:"location,omitempty"` // file or file:line
}
