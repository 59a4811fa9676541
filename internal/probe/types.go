package probe

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusSuccess      Status = "success"
	StatusUnauthorized Status = "unauthorized"
	StatusNotFound     Status = "not_found"
	StatusError        Status = "error"
	StatusFailed       Status = "failed"
	StatusUnknown      Status = "unknown"
)

// Result is the classified outcome of a single probe. ResponseTime is set as
// soon as execution starts, failures included; ResponseCode only when the
// server answered at all.
type Result struct {
	Endpoint     string   `json:"endpoint"`
	Timestamp    string   `json:"timestamp"`
	Status       Status   `json:"status"`
	ResponseTime *float64 `json:"response_time"`
	ResponseCode *int     `json:"response_code"`
	Error        string   `json:"error,omitempty"`
}

type Summary struct {
	TotalRequests      int     `json:"total_requests"`
	SuccessfulRequests int     `json:"successful_requests"`
	SuccessRate        float64 `json:"success_rate"`
	PrimaryOnline      bool    `json:"primary_online"`
}

// RunRecord is one complete batch of probe executions. Summary is derived from
// Results at construction time and never touched afterwards.
type RunRecord struct {
	RunID         string   `json:"run_id"`
	Timestamp     string   `json:"timestamp"`
	Target        string   `json:"target_identity"`
	Handle        string   `json:"handle,omitempty"`
	Authenticated bool     `json:"authenticated"`
	Results       []Result `json:"results"`
	Summary       Summary  `json:"summary"`
}

func NewRunRecord(target, handle string, authenticated bool, results []Result) RunRecord {
	return RunRecord{
		RunID:         uuid.NewString(),
		Timestamp:     nowRFC3339(),
		Target:        target,
		Handle:        handle,
		Authenticated: authenticated,
		Results:       results,
		Summary:       Summarize(results),
	}
}

func Summarize(results []Result) Summary {
	summary := Summary{
		TotalRequests: len(results),
	}
	for _, result := range results {
		if result.Status == StatusSuccess {
			summary.SuccessfulRequests++
		}
	}
	if summary.TotalRequests > 0 {
		summary.SuccessRate = round2(float64(summary.SuccessfulRequests) / float64(summary.TotalRequests) * 100)
	}
	if len(results) > 0 {
		summary.PrimaryOnline = results[0].Status == StatusSuccess
	}
	return summary
}

// Primary returns the record's primary health probe result: the first result,
// by catalog-order convention.
func (r RunRecord) Primary() (Result, bool) {
	if len(r.Results) == 0 {
		return Result{}, false
	}
	return r.Results[0], true
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
