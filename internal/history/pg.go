package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"pdswatch/internal/probe"
)

// PgStore persists each RunRecord as one JSONB row, ordered by insertion.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureSchema creates the run_records table when it does not exist yet.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS run_records (
		id         BIGSERIAL PRIMARY KEY,
		run_id     TEXT UNIQUE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		record     JSONB NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create run_records: %w", err)
	}
	return nil
}

func (s *PgStore) Load(ctx context.Context) ([]probe.RunRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT record FROM run_records ORDER BY id`)
	if err != nil {
		return nil, &StorageError{Op: "query run_records", Err: err}
	}
	defer rows.Close()

	records := []probe.RunRecord{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, &StorageError{Op: "scan run_records row", Err: err}
		}
		var record probe.RunRecord
		if err := json.Unmarshal(data, &record); err != nil {
			slog.Warn("skipping unparsable run record row", "error", err)
			continue
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate run_records", Err: err}
	}
	return records, nil
}

func (s *PgStore) Append(ctx context.Context, record probe.RunRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return &StorageError{Op: "encode run record", Err: err}
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO run_records (run_id, record) VALUES ($1, $2)`,
		record.RunID, data)
	if err != nil {
		return &StorageError{Op: "insert run record", Err: err}
	}
	return nil
}
