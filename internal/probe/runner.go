package probe

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"pdswatch/internal/xrpc"
)

// Transport is the injected wire capability a Runner probes through.
// *xrpc.Client satisfies it.
type Transport interface {
	Query(ctx context.Context, nsid string, params map[string]string) (*xrpc.RawResponse, error)
}

const DefaultProbeTimeout = 10 * time.Second

type Runner struct {
	transport Transport
	timeout   time.Duration
}

func NewRunner(transport Transport, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Runner{
		transport: transport,
		timeout:   timeout,
	}
}

// Run executes every probe in catalog order. A probe's failure is recorded and
// the batch moves on; the returned slice always matches the catalog in length
// and order.
func (r *Runner) Run(ctx context.Context, catalog []Probe) []Result {
	tracer := otel.Tracer("pdswatch")
	results := make([]Result, 0, len(catalog))
	for _, item := range catalog {
		results = append(results, r.runProbe(ctx, tracer, item))
	}
	return results
}

func (r *Runner) runProbe(ctx context.Context, tracer oteltrace.Tracer, item Probe) Result {
	probeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	probeCtx, span := tracer.Start(probeCtx, "probe."+item.Name)
	defer span.End()

	result := Result{
		Endpoint:  item.Name,
		Timestamp: nowRFC3339(),
		Status:    StatusUnknown,
	}

	start := time.Now()
	raw, err := r.transport.Query(probeCtx, item.NSID, item.Params)
	elapsed := round3(time.Since(start).Seconds())
	result.ResponseTime = &elapsed
	if raw != nil {
		code := raw.StatusCode
		result.ResponseCode = &code
	}

	switch {
	case err == nil:
		result.Status = StatusSuccess
	default:
		if apiErr, ok := xrpc.IsAPIError(err); ok {
			result.Status, result.Error = classifyAPIError(apiErr)
		} else {
			result.Status = StatusFailed
			result.Error = err.Error()
		}
		span.RecordError(err)
	}

	span.SetAttributes(
		attribute.String("probe.status", string(result.Status)),
		attribute.Float64("probe.response_time_s", elapsed),
	)
	return result
}

func classifyAPIError(apiErr *xrpc.APIError) (Status, string) {
	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return StatusUnauthorized, ""
	case http.StatusNotFound:
		return StatusNotFound, ""
	default:
		return StatusError, fmt.Sprintf("HTTP %d", apiErr.StatusCode)
	}
}

func round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}
