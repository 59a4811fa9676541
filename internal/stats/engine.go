// Package stats derives reporting statistics from the persisted run history.
// Everything here is a pure function of the loaded records.
package stats

import (
	"encoding/json"
	"math"
	"time"

	"pdswatch/internal/probe"
)

// Metric is a derived value that may legitimately have no data behind it.
// An invalid Metric marshals to JSON null, keeping "no data" distinct from a
// measured zero.
type Metric struct {
	Value float64
	Valid bool
}

func ValidMetric(value float64) Metric {
	return Metric{Value: value, Valid: true}
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric{}
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*m = ValidMetric(value)
	return nil
}

type EndpointStat struct {
	Endpoint    string  `json:"endpoint"`
	Successes   int     `json:"successes"`
	Total       int     `json:"total"`
	SuccessRate float64 `json:"success_rate"`
}

// DayStat is one calendar day of the daily uptime series. A day inside the
// observed range with no recorded runs has Runs==0 and an invalid Uptime.
type DayStat struct {
	Date   string `json:"date"`
	Runs   int    `json:"runs"`
	Online int    `json:"online"`
	Uptime Metric `json:"uptime"`
}

type Overview struct {
	GeneratedAt     string         `json:"generated_at"`
	TotalRuns       int            `json:"total_runs"`
	FirstRun        string         `json:"first_run,omitempty"`
	LastRun         string         `json:"last_run,omitempty"`
	Uptime          Metric         `json:"uptime"`
	SuccessRate     Metric         `json:"success_rate"`
	AvgResponseTime Metric         `json:"avg_response_time"`
	Endpoints       []EndpointStat `json:"endpoints"`
	Daily           []DayStat      `json:"daily"`
}

// Compute derives the full statistics set over the history, oldest first.
// An empty history yields invalid metrics across the board, never a division
// error.
func Compute(records []probe.RunRecord) Overview {
	overview := Overview{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		TotalRuns:   len(records),
		Endpoints:   []EndpointStat{},
		Daily:       []DayStat{},
	}
	if len(records) == 0 {
		return overview
	}
	overview.FirstRun = records[0].Timestamp
	overview.LastRun = records[len(records)-1].Timestamp

	overview.Uptime = computeUptime(records)
	overview.SuccessRate = computeSuccessRate(records)
	overview.AvgResponseTime = computeAvgResponseTime(records)
	overview.Endpoints = computeEndpointStats(records)
	overview.Daily = computeDaily(records)
	return overview
}

func computeUptime(records []probe.RunRecord) Metric {
	online := 0
	for _, record := range records {
		if primaryOnline(record) {
			online++
		}
	}
	return ValidMetric(round2(float64(online) / float64(len(records)) * 100))
}

func computeSuccessRate(records []probe.RunRecord) Metric {
	total := 0
	successful := 0
	for _, record := range records {
		total += record.Summary.TotalRequests
		successful += record.Summary.SuccessfulRequests
	}
	if total == 0 {
		return Metric{}
	}
	return ValidMetric(round2(float64(successful) / float64(total) * 100))
}

func computeAvgResponseTime(records []probe.RunRecord) Metric {
	sum := 0.0
	count := 0
	for _, record := range records {
		primary, ok := record.Primary()
		if !ok || primary.ResponseTime == nil {
			continue
		}
		sum += *primary.ResponseTime
		count++
	}
	if count == 0 {
		return Metric{}
	}
	return ValidMetric(round3(sum / float64(count)))
}

func computeEndpointStats(records []probe.RunRecord) []EndpointStat {
	totals := map[string]*EndpointStat{}
	order := []string{}
	for _, record := range records {
		for _, result := range record.Results {
			stat, ok := totals[result.Endpoint]
			if !ok {
				stat = &EndpointStat{Endpoint: result.Endpoint}
				totals[result.Endpoint] = stat
				order = append(order, result.Endpoint)
			}
			stat.Total++
			if result.Status == probe.StatusSuccess {
				stat.Successes++
			}
		}
	}
	out := make([]EndpointStat, 0, len(order))
	for _, name := range order {
		stat := totals[name]
		stat.SuccessRate = round2(float64(stat.Successes) / float64(stat.Total) * 100)
		out = append(out, *stat)
	}
	return out
}

func computeDaily(records []probe.RunRecord) []DayStat {
	type dayCount struct {
		runs   int
		online int
	}
	days := map[string]*dayCount{}
	var minDay, maxDay time.Time
	for _, record := range records {
		ts, err := time.Parse(time.RFC3339, record.Timestamp)
		if err != nil {
			continue
		}
		day := ts.UTC().Truncate(24 * time.Hour)
		key := day.Format(time.DateOnly)
		count, ok := days[key]
		if !ok {
			count = &dayCount{}
			days[key] = count
		}
		count.runs++
		if primaryOnline(record) {
			count.online++
		}
		if minDay.IsZero() || day.Before(minDay) {
			minDay = day
		}
		if maxDay.IsZero() || day.After(maxDay) {
			maxDay = day
		}
	}
	if minDay.IsZero() {
		return []DayStat{}
	}

	out := []DayStat{}
	for day := minDay; !day.After(maxDay); day = day.AddDate(0, 0, 1) {
		key := day.Format(time.DateOnly)
		stat := DayStat{Date: key}
		if count, ok := days[key]; ok {
			stat.Runs = count.runs
			stat.Online = count.online
			stat.Uptime = ValidMetric(round2(float64(count.online) / float64(count.runs) * 100))
		}
		out = append(out, stat)
	}
	return out
}

func primaryOnline(record probe.RunRecord) bool {
	primary, ok := record.Primary()
	return ok && primary.Status == probe.StatusSuccess
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}
