package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "veriform/pkg/domain"
	"veriform/pkg/platform/sentinel"
)

// PostgresSource reads schema text from the services table maintained by the
// surrounding system.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed schema source.
func NewPostgres(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Fetch(ctx context.Context, serviceID id.ServiceID) (string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT form_schema FROM services WHERE service_key = $1`,
		string(serviceID),
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("fetch schema for %s: %w", serviceID, err)
	}
	return raw, nil
}

func (s *PostgresSource) Services(ctx context.Context) ([]id.ServiceID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT service_key FROM services ORDER BY service_key`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []id.ServiceID
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan service key: %w", err)
		}
		services = append(services, id.ServiceID(key))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}
	return services, nil
}
