package model

// CheckStatus represents the status of a health check.
type CheckStatus string

const (
	// CheckStatusOK indicates the check passed.
	CheckStatusOK CheckStatus = "ok"
	// CheckStatusWarning indicates something needs attention but works.
	CheckStatusWarning CheckStatus = "warning"
	// CheckStatusError indicates the check failed.
	CheckStatusError CheckStatus = "error"
)

// CheckResult is the result of a single health check.
type CheckResult struct {
	// ID identifies the checked part (e.g. "store").
	ID      string
	Message string
	Status  CheckStatus
}

// CheckSummary counts health check results by status.
type CheckSummary struct {
	OK       int
	Warnings int
	Errors   int
}

// Healthy returns true when every check passed.
func (s CheckSummary) Healthy() bool { return s.Warnings == 0 && s.Errors == 0 }

// SummarizeChecks counts the results by status.
func SummarizeChecks(results []CheckResult) CheckSummary {
	var s CheckSummary
	for _, r := range results {
		switch r.Status {
		case CheckStatusOK:
			s.OK++
		case CheckStatusWarning:
			s.Warnings++
		case CheckStatusError:
			s.Errors++
		}
	}
	return s
}
