package server

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"pdswatch/internal/history"
	"pdswatch/internal/probe"
	"pdswatch/internal/stats"
)

// RunTrigger starts one monitoring batch on demand. *Monitor satisfies it.
type RunTrigger interface {
	RunOnce(ctx context.Context) (probe.RunRecord, error)
}

type API struct {
	store   history.Store
	trigger RunTrigger
	auth    *Auth
	obs     *Observability
	limiter *rateLimiter
}

func NewAPI(store history.Store, trigger RunTrigger, auth *Auth, obs *Observability, limits LimitConfig) *API {
	return &API{
		store:   store,
		trigger: trigger,
		auth:    auth,
		obs:     obs,
		limiter: newRateLimiter(limits),
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.handleHealthz)

	mux.HandleFunc("GET /api/v1/stats/overview", a.handleOverview)
	mux.HandleFunc("GET /api/v1/stats/daily", a.handleDaily)
	mux.HandleFunc("GET /api/v1/runs", a.handleListRuns)
	mux.HandleFunc("GET /api/v1/runs/latest", a.handleLatestRun)

	mux.Handle("POST /api/v1/admin/run", a.auth.RequireAdmin(http.HandlerFunc(a.handleAdminRun)))

	wrapped := otelhttp.NewHandler(a.withRateLimit(mux), "pdswatch-http")
	return withCORS(wrapped)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("pdswatch").Start(r.Context(), "stats.overview")
	defer span.End()
	records, err := a.store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, "load history failed")
		return
	}
	writeJSON(w, http.StatusOK, stats.Compute(records))
}

func (a *API) handleDaily(w http.ResponseWriter, r *http.Request) {
	records, err := a.store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load history failed")
		return
	}
	overview := stats.Compute(records)
	writeJSON(w, http.StatusOK, map[string]any{
		"generated_at": overview.GeneratedAt,
		"daily":        overview.Daily,
	})
}

func (a *API) handleListRuns(w http.ResponseWriter, r *http.Request) {
	records, err := a.store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load history failed")
		return
	}
	limit := parseLimit(r, 50)
	if len(records) > limit {
		records = records[len(records)-limit:]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs": records,
	})
}

func (a *API) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	records, err := a.store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load history failed")
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound, "no runs recorded")
		return
	}
	writeJSON(w, http.StatusOK, records[len(records)-1])
}

func (a *API) handleAdminRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("pdswatch").Start(r.Context(), "admin.trigger_run")
	defer span.End()
	record, err := a.trigger.RunOnce(ctx)
	if err != nil {
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id":  record.RunID,
		"summary": record.Summary,
	})
}

func (a *API) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.limiter.Allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
