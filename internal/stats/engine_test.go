package stats

import (
	"encoding/json"
	"testing"

	"pdswatch/internal/probe"
)

func record(timestamp string, primaryStatus probe.Status, rest ...probe.Status) probe.RunRecord {
	rt := 0.2
	results := []probe.Result{
		{Endpoint: "server_describe", Status: primaryStatus, ResponseTime: &rt},
	}
	names := []string{"get_profile", "get_timeline", "get_follows"}
	for i, status := range rest {
		name := names[i%len(names)]
		results = append(results, probe.Result{Endpoint: name, Status: status, ResponseTime: &rt})
	}
	return probe.RunRecord{
		RunID:     "run-" + timestamp,
		Timestamp: timestamp,
		Target:    "https://pds.example.com",
		Results:   results,
		Summary:   probe.Summarize(results),
	}
}

func TestComputeEmptyHistory(t *testing.T) {
	overview := Compute(nil)
	if overview.TotalRuns != 0 {
		t.Fatalf("total_runs = %d, want 0", overview.TotalRuns)
	}
	if overview.Uptime.Valid || overview.SuccessRate.Valid || overview.AvgResponseTime.Valid {
		t.Fatal("empty history must yield no-data metrics across the board")
	}
	if len(overview.Endpoints) != 0 || len(overview.Daily) != 0 {
		t.Fatal("empty history must yield empty series")
	}
}

func TestComputeSingleFailingRun(t *testing.T) {
	overview := Compute([]probe.RunRecord{
		record("2025-03-01T10:00:00Z", probe.StatusFailed, probe.StatusFailed),
	})
	if !overview.Uptime.Valid {
		t.Fatal("one run exists, uptime must be data, not no-data")
	}
	if overview.Uptime.Value != 0 {
		t.Fatalf("uptime = %v, want 0", overview.Uptime.Value)
	}
	if !overview.SuccessRate.Valid || overview.SuccessRate.Value != 0 {
		t.Fatalf("success rate = %+v, want valid 0", overview.SuccessRate)
	}
}

func TestComputeOverallRates(t *testing.T) {
	records := []probe.RunRecord{
		record("2025-03-01T10:00:00Z", probe.StatusSuccess, probe.StatusSuccess, probe.StatusSuccess),
		record("2025-03-01T12:00:00Z", probe.StatusFailed, probe.StatusSuccess, probe.StatusUnauthorized),
	}
	overview := Compute(records)
	if overview.TotalRuns != 2 {
		t.Fatalf("total_runs = %d, want 2", overview.TotalRuns)
	}
	if overview.Uptime.Value != 50 {
		t.Fatalf("uptime = %v, want 50", overview.Uptime.Value)
	}
	// 4 successes out of 6 probe calls.
	if overview.SuccessRate.Value != 66.67 {
		t.Fatalf("success rate = %v, want 66.67", overview.SuccessRate.Value)
	}
	if !overview.AvgResponseTime.Valid || overview.AvgResponseTime.Value != 0.2 {
		t.Fatalf("avg response time = %+v, want valid 0.2", overview.AvgResponseTime)
	}
	if overview.FirstRun != records[0].Timestamp || overview.LastRun != records[1].Timestamp {
		t.Fatalf("unexpected period: %s to %s", overview.FirstRun, overview.LastRun)
	}
}

func TestComputePerEndpoint(t *testing.T) {
	records := []probe.RunRecord{
		record("2025-03-01T10:00:00Z", probe.StatusSuccess, probe.StatusSuccess),
		record("2025-03-01T12:00:00Z", probe.StatusSuccess, probe.StatusFailed),
	}
	overview := Compute(records)

	byName := map[string]EndpointStat{}
	total := 0
	for _, stat := range overview.Endpoints {
		byName[stat.Endpoint] = stat
		total += stat.Total
	}
	// Per-endpoint totals sum to the sum of per-run totals.
	if total != 4 {
		t.Fatalf("endpoint totals sum to %d, want 4", total)
	}
	profile, ok := byName["get_profile"]
	if !ok {
		t.Fatal("get_profile missing from endpoint stats")
	}
	if profile.Successes != 1 || profile.Total != 2 || profile.SuccessRate != 50 {
		t.Fatalf("unexpected get_profile stat: %+v", profile)
	}
	if _, ok := byName["get_trending"]; ok {
		t.Fatal("never-observed endpoints must be omitted, not reported as 0%")
	}
}

func TestComputeDailySeries(t *testing.T) {
	records := []probe.RunRecord{
		// day 1: all online
		record("2025-03-01T08:00:00Z", probe.StatusSuccess),
		record("2025-03-01T20:00:00Z", probe.StatusSuccess),
		// day 2: one of two online
		record("2025-03-02T08:00:00Z", probe.StatusSuccess),
		record("2025-03-02T20:00:00Z", probe.StatusFailed),
		// day 3: all offline
		record("2025-03-03T08:00:00Z", probe.StatusFailed),
	}
	overview := Compute(records)
	if len(overview.Daily) != 3 {
		t.Fatalf("expected 3 days, got %d", len(overview.Daily))
	}
	want := []float64{100, 50, 0}
	for i, day := range overview.Daily {
		if !day.Uptime.Valid {
			t.Fatalf("day %s unexpectedly has no data", day.Date)
		}
		if day.Uptime.Value != want[i] {
			t.Fatalf("day %s uptime = %v, want %v", day.Date, day.Uptime.Value, want[i])
		}
	}
}

func TestComputeDailyGap(t *testing.T) {
	records := []probe.RunRecord{
		record("2025-03-01T08:00:00Z", probe.StatusSuccess),
		record("2025-03-03T08:00:00Z", probe.StatusFailed),
	}
	overview := Compute(records)
	if len(overview.Daily) != 3 {
		t.Fatalf("expected 3 days spanning the gap, got %d", len(overview.Daily))
	}
	gap := overview.Daily[1]
	if gap.Date != "2025-03-02" {
		t.Fatalf("expected gap day 2025-03-02, got %s", gap.Date)
	}
	if gap.Uptime.Valid {
		t.Fatalf("gap day must be no-data, got %v", gap.Uptime.Value)
	}
	if gap.Runs != 0 {
		t.Fatalf("gap day runs = %d, want 0", gap.Runs)
	}
	if !overview.Daily[2].Uptime.Valid || overview.Daily[2].Uptime.Value != 0 {
		t.Fatal("an all-failing day is 0%, distinct from no-data")
	}
}

func TestComputeSkipsNullResponseTimes(t *testing.T) {
	withTime := record("2025-03-01T08:00:00Z", probe.StatusSuccess)
	withoutTime := record("2025-03-01T09:00:00Z", probe.StatusFailed)
	withoutTime.Results[0].ResponseTime = nil

	overview := Compute([]probe.RunRecord{withTime, withoutTime})
	if !overview.AvgResponseTime.Valid {
		t.Fatal("expected avg response time data")
	}
	// Only the record with a measured primary response time counts.
	if overview.AvgResponseTime.Value != 0.2 {
		t.Fatalf("avg response time = %v, want 0.2", overview.AvgResponseTime.Value)
	}
}

func TestMetricJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Metric{
		"known":   ValidMetric(99.18),
		"unknown": {},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]Metric
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded["known"].Valid || decoded["known"].Value != 99.18 {
		t.Fatalf("unexpected round-trip value: %+v", decoded["known"])
	}
	if decoded["unknown"].Valid {
		t.Fatal("null must decode as no-data")
	}
}
