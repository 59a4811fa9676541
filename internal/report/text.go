// Package report renders runs and aggregated statistics as plain text for the
// CLI and for summary files. Charts and heatmaps are left to external tooling;
// the stats.Overview JSON is the contract they consume.
package report

import (
	"fmt"
	"io"

	"pdswatch/internal/probe"
	"pdswatch/internal/stats"
)

// WriteRun prints one run's per-probe outcomes and summary.
func WriteRun(w io.Writer, record probe.RunRecord) {
	fmt.Fprintf(w, "Target: %s\n", record.Target)
	if record.Handle != "" {
		fmt.Fprintf(w, "Handle: %s\n", record.Handle)
	}
	fmt.Fprintf(w, "Timestamp: %s\n", record.Timestamp)
	fmt.Fprintf(w, "Authenticated: %v\n\n", record.Authenticated)

	for _, result := range record.Results {
		line := fmt.Sprintf("[%s] %s", result.Status, result.Endpoint)
		if result.ResponseTime != nil {
			line += fmt.Sprintf(" (%.3fs)", *result.ResponseTime)
		}
		fmt.Fprintln(w, line)
		if result.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", result.Error)
		}
	}

	summary := record.Summary
	status := "offline"
	if summary.PrimaryOnline {
		status = "online"
	}
	fmt.Fprintf(w, "\nServer: %s\n", status)
	fmt.Fprintf(w, "Requests: %d/%d successful (%.2f%%)\n",
		summary.SuccessfulRequests, summary.TotalRequests, summary.SuccessRate)
}

// WriteSummary prints the aggregated history statistics.
func WriteSummary(w io.Writer, overview stats.Overview) {
	fmt.Fprintln(w, "PDS Monitoring Summary")
	fmt.Fprintln(w, "======================")
	fmt.Fprintf(w, "Generated: %s\n", overview.GeneratedAt)
	fmt.Fprintf(w, "Total monitoring runs: %d\n", overview.TotalRuns)
	if overview.FirstRun != "" {
		fmt.Fprintf(w, "Monitoring period: %s to %s\n", overview.FirstRun, overview.LastRun)
	}
	fmt.Fprintf(w, "Overall uptime: %s\n", formatPercent(overview.Uptime))
	fmt.Fprintf(w, "Overall success rate: %s\n", formatPercent(overview.SuccessRate))
	fmt.Fprintf(w, "Average response time: %s\n", formatSeconds(overview.AvgResponseTime))

	if len(overview.Endpoints) > 0 {
		fmt.Fprintln(w, "\nPer-endpoint success rates:")
		for _, endpoint := range overview.Endpoints {
			fmt.Fprintf(w, "  %-24s %6.2f%% (%d/%d)\n",
				endpoint.Endpoint, endpoint.SuccessRate, endpoint.Successes, endpoint.Total)
		}
	}

	if len(overview.Daily) > 0 {
		fmt.Fprintln(w, "\nDaily uptime:")
		for _, day := range overview.Daily {
			if !day.Uptime.Valid {
				fmt.Fprintf(w, "  %s  no data\n", day.Date)
				continue
			}
			fmt.Fprintf(w, "  %s  %6.2f%% (%d runs)\n", day.Date, day.Uptime.Value, day.Runs)
		}
	}
}

func formatPercent(metric stats.Metric) string {
	if !metric.Valid {
		return "no data"
	}
	return fmt.Sprintf("%.2f%%", metric.Value)
}

func formatSeconds(metric stats.Metric) string {
	if !metric.Valid {
		return "no data"
	}
	return fmt.Sprintf("%.3fs", metric.Value)
}
