package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"chatterbox/internal/app/db"
)

const (
	insertRecordSQL = `INSERT INTO transcript (id, kind, username, body, file_name, server_url, created_at)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)`

	recentRecordsSQL = `SELECT id::text, kind, username, body, file_name, created_at
FROM (
    SELECT id, kind, username, body, file_name, created_at
    FROM transcript
    WHERE server_url = $1
    ORDER BY created_at DESC
    LIMIT $2
) recent
ORDER BY created_at ASC`
)

// PostgresArchive stores the transcript of one chat server in PostgreSQL.
type PostgresArchive struct {
	pool      *pgxpool.Pool
	serverURL string
}

// NewPostgresArchive creates an archive scoped to serverURL.
func NewPostgresArchive(pool *pgxpool.Pool, serverURL string) *PostgresArchive {
	return &PostgresArchive{pool: pool, serverURL: serverURL}
}

func (a *PostgresArchive) Append(ctx context.Context, r Record) error {
	_, err := a.pool.Exec(ctx, insertRecordSQL,
		r.ID, string(r.Kind), r.Username, r.Body, r.FileName, a.serverURL, r.At)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("insert transcript record: %w", err)
	}
	return nil
}

func (a *PostgresArchive) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := a.pool.Query(ctx, recentRecordsSQL, a.serverURL, limit)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			r    Record
			kind string
		)
		if err := rows.Scan(&r.ID, &kind, &r.Username, &r.Body, &r.FileName, &r.At); err != nil {
			return nil, fmt.Errorf("scan transcript record: %w", err)
		}
		r.Kind = Kind(kind)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	return records, nil
}
