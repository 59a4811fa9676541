package report

import (
	"strings"
	"testing"

	"pdswatch/internal/probe"
	"pdswatch/internal/stats"
)

func TestWriteRun(t *testing.T) {
	rt := 0.321
	results := []probe.Result{
		{Endpoint: "server_describe", Status: probe.StatusSuccess, ResponseTime: &rt},
		{Endpoint: "get_timeline", Status: probe.StatusUnauthorized, ResponseTime: &rt},
		{Endpoint: "get_trending", Status: probe.StatusError, ResponseTime: &rt, Error: "HTTP 500"},
	}
	record := probe.RunRecord{
		Target:    "https://pds.example.com",
		Handle:    "j4ck.xyz",
		Timestamp: "2025-03-01T08:00:00Z",
		Results:   results,
		Summary:   probe.Summarize(results),
	}

	var out strings.Builder
	WriteRun(&out, record)
	text := out.String()

	for _, want := range []string{
		"Target: https://pds.example.com",
		"[success] server_describe (0.321s)",
		"[unauthorized] get_timeline",
		"error: HTTP 500",
		"Server: online",
		"Requests: 1/3 successful (33.33%)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("run output missing %q:\n%s", want, text)
		}
	}
}

func TestWriteSummaryWithData(t *testing.T) {
	overview := stats.Overview{
		GeneratedAt:     "2025-03-04T00:00:00Z",
		TotalRuns:       3,
		FirstRun:        "2025-03-01T08:00:00Z",
		LastRun:         "2025-03-03T08:00:00Z",
		Uptime:          stats.ValidMetric(66.67),
		SuccessRate:     stats.ValidMetric(71.43),
		AvgResponseTime: stats.ValidMetric(0.245),
		Endpoints: []stats.EndpointStat{
			{Endpoint: "server_describe", Successes: 2, Total: 3, SuccessRate: 66.67},
		},
		Daily: []stats.DayStat{
			{Date: "2025-03-01", Runs: 1, Online: 1, Uptime: stats.ValidMetric(100)},
			{Date: "2025-03-02"},
			{Date: "2025-03-03", Runs: 1, Uptime: stats.ValidMetric(0)},
		},
	}

	var out strings.Builder
	WriteSummary(&out, overview)
	text := out.String()

	for _, want := range []string{
		"Total monitoring runs: 3",
		"Overall uptime: 66.67%",
		"Overall success rate: 71.43%",
		"Average response time: 0.245s",
		"server_describe",
		"2025-03-02  no data",
		"2025-03-03    0.00% (1 runs)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("summary missing %q:\n%s", want, text)
		}
	}
}

func TestWriteSummaryNoData(t *testing.T) {
	var out strings.Builder
	WriteSummary(&out, stats.Overview{GeneratedAt: "2025-03-04T00:00:00Z"})
	text := out.String()

	if !strings.Contains(text, "Overall uptime: no data") {
		t.Fatalf("empty history summary should say no data:\n%s", text)
	}
	if strings.Contains(text, "0.00%") {
		t.Fatalf("empty history must not render as 0%%:\n%s", text)
	}
}
