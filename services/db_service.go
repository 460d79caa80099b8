package services

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"bert-gateway/models"
)

// DBService stores the execution history in Postgres
type DBService struct {
	db *sql.DB
}

func NewDBService(host string, port int, user, password, dbname string) (*DBService, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &DBService{db: db}, nil
}

func (s *DBService) Close() error {
	return s.db.Close()
}

// InitSchema creates tables if they don't exist
func (s *DBService) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS function_executions (
		id BIGSERIAL PRIMARY KEY,
		call_id VARCHAR(64) NOT NULL,
		source VARCHAR(10) NOT NULL,
		function_name VARCHAR(255) NOT NULL,
		language VARCHAR(50) NOT NULL,
		workspace_id VARCHAR(255),
		invoked_by VARCHAR(255),
		status VARCHAR(20) NOT NULL,
		error_kind VARCHAR(50),
		error_message TEXT,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		invoked_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_function_executions_invoked_at ON function_executions(invoked_at DESC);
	CREATE INDEX IF NOT EXISTS idx_function_executions_language ON function_executions(language);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// RecordExecution inserts one history row
func (s *DBService) RecordExecution(ctx context.Context, rec *models.ExecutionRecord) error {
	return capture(ctx, "Postgres.Insert", map[string]interface{}{
		"db.table": "function_executions",
	}, func(ctx1 context.Context) error {
		return s.db.QueryRowContext(ctx1, `
			INSERT INTO function_executions
				(call_id, source, function_name, language, workspace_id, invoked_by, status, error_kind, error_message, duration_ms, invoked_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id
		`, rec.CallID, rec.Source, rec.FunctionName, rec.Language,
			nullString(rec.WorkspaceID), nullString(rec.InvokedBy), rec.Status,
			nullString(rec.ErrorKind), nullString(rec.ErrorMessage), rec.DurationMs, rec.InvokedAt,
		).Scan(&rec.ID)
	})
}

// ListExecutions returns the most recent executions, optionally for one language
func (s *DBService) ListExecutions(ctx context.Context, language string, limit int) ([]models.ExecutionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, call_id, source, function_name, language, workspace_id, invoked_by,
			status, error_kind, error_message, duration_ms, invoked_at
		FROM function_executions
		WHERE $1 = '' OR lower(language) = lower($1)
		ORDER BY invoked_at DESC
		LIMIT $2
	`, language, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.ExecutionRecord{}
	for rows.Next() {
		var rec models.ExecutionRecord
		var workspaceID, invokedBy, errorKind, errorMessage sql.NullString
		err := rows.Scan(&rec.ID, &rec.CallID, &rec.Source, &rec.FunctionName, &rec.Language,
			&workspaceID, &invokedBy, &rec.Status, &errorKind, &errorMessage, &rec.DurationMs, &rec.InvokedAt)
		if err != nil {
			return nil, err
		}
		rec.WorkspaceID = workspaceID.String
		rec.InvokedBy = invokedBy.String
		rec.ErrorKind = errorKind.String
		rec.ErrorMessage = errorMessage.String
		records = append(records, rec)
	}

	return records, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
