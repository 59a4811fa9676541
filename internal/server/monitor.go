package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"pdswatch/internal/history"
	"pdswatch/internal/probe"
	"pdswatch/internal/xrpc"
)

// Monitor owns one monitoring target: it runs the probe catalog against it,
// builds the RunRecord, and appends it to the history store.
type Monitor struct {
	mu      sync.Mutex
	target  TargetConfig
	client  *xrpc.Client
	runner  *probe.Runner
	catalog []probe.Probe
	store   history.Store
	obs     *Observability
	cron    *cron.Cron
}

func NewMonitor(target TargetConfig, store history.Store, obs *Observability) *Monitor {
	client := xrpc.NewClient(xrpc.Config{
		BaseURL: target.BaseURL,
		Timeout: time.Duration(target.ProbeTimeoutSec) * time.Second,
	})
	return &Monitor{
		target:  target,
		client:  client,
		runner:  probe.NewRunner(client, time.Duration(target.ProbeTimeoutSec)*time.Second),
		catalog: probe.DefaultCatalog(target.Handle),
		store:   store,
		obs:     obs,
	}
}

// RunOnce executes one full monitoring batch and appends the result. The
// returned record is valid even when the append failed, so callers can still
// report the in-memory summary before propagating the storage error.
func (m *Monitor) RunOnce(ctx context.Context) (probe.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slog.Info("starting monitoring run", "target", m.target.BaseURL)
	m.login(ctx)

	results := m.runner.Run(ctx, m.catalog)
	record := probe.NewRunRecord(m.target.BaseURL, m.target.Handle, m.client.Authenticated(), results)

	for _, result := range results {
		durationMS := int64(0)
		if result.ResponseTime != nil {
			durationMS = int64(*result.ResponseTime * 1000)
		}
		m.obs.MarkProbe(ctx, result.Endpoint, string(result.Status), durationMS)
	}
	m.obs.MarkRun(ctx, record.Summary.PrimaryOnline)
	slog.Info("monitoring run finished",
		"run_id", record.RunID,
		"online", record.Summary.PrimaryOnline,
		"successful", record.Summary.SuccessfulRequests,
		"total", record.Summary.TotalRequests,
	)

	if err := m.store.Append(ctx, record); err != nil {
		m.obs.MarkStoreFailure(ctx)
		return record, err
	}
	return record, nil
}

// login establishes an authenticated session when credentials are configured.
// Failure degrades to unauthenticated probing rather than aborting the run.
func (m *Monitor) login(ctx context.Context) {
	if m.target.Password == "" || m.client.Authenticated() {
		return
	}
	session, _, err := m.client.Login(ctx, m.target.Handle, m.target.Password)
	if err != nil {
		slog.Warn("login failed, continuing unauthenticated",
			"handle", m.target.Handle,
			"error", err,
		)
		return
	}
	slog.Info("authenticated session established", "handle", session.Handle, "did", session.DID)
}

// Start schedules recurring runs with the given cron spec.
func (m *Monitor) Start(ctx context.Context, spec string) error {
	m.cron = cron.New()
	_, err := m.cron.AddFunc(spec, func() {
		if _, err := m.RunOnce(ctx); err != nil {
			slog.Error("scheduled run failed to persist", "error", err)
		}
	})
	if err != nil {
		return err
	}
	m.cron.Start()
	slog.Info("monitoring schedule started", "cron", spec)
	return nil
}

func (m *Monitor) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
}
