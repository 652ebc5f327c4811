package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/roperoray30-create/meetgo/internal/models"
	"github.com/roperoray30-create/meetgo/pkg/logger"
)

// Repository is the document sink. Each record is stored whole as JSONB
// under its time-derived key; there is no relational decomposition and no
// querying beyond the recent-visits listing.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(dsn string, maxConns, maxIdleConns int) (*Repository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	return &Repository{db: db}, nil
}

// EnsureSchema creates the document collections when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS user_visits (
			doc_id      TEXT PRIMARY KEY,
			payload     JSONB NOT NULL,
			saved_at    TEXT NOT NULL,
			server_time TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			doc_id      TEXT PRIMARY KEY,
			payload     JSONB NOT NULL,
			saved_at    TEXT NOT NULL,
			server_time TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS user_visits_server_time_idx ON user_visits (server_time DESC)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// SaveVisit stores one assembled visit document under its key.
func (r *Repository) SaveVisit(ctx context.Context, key models.StorageKey, record *models.VisitRecord) error {
	return r.saveDocument(ctx, "user_visits", key, record, record.AssembledAt)
}

// SaveBooking stores one booking-confirmation document under its key.
func (r *Repository) SaveBooking(ctx context.Context, key models.StorageKey, record *models.BookingRecord) error {
	return r.saveDocument(ctx, "bookings", key, record, record.CreatedAt)
}

func (r *Repository) saveDocument(ctx context.Context, table string, key models.StorageKey, payload any, clientTime time.Time) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	// Keys collide within one millisecond; last write wins, matching the
	// source system's overwrite-on-collision behavior.
	query := fmt.Sprintf(`
		INSERT INTO %s (doc_id, payload, saved_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (doc_id) DO UPDATE SET payload = EXCLUDED.payload, saved_at = EXCLUDED.saved_at
	`, table)

	if _, err := r.db.ExecContext(ctx, query, key.String(), data, clientTime.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to store document %s/%s: %w", table, key, err)
	}
	return nil
}

// StoredVisit is one listed visit document with its storage metadata.
type StoredVisit struct {
	DocID      string             `json:"doc_id"`
	Record     models.VisitRecord `json:"record"`
	SavedAt    string             `json:"saved_at"`
	ServerTime time.Time          `json:"server_time"`
}

// RecentVisits lists visit documents, newest first.
func (r *Repository) RecentVisits(ctx context.Context, limit, offset int) ([]StoredVisit, error) {
	query := `
		SELECT doc_id, payload, saved_at, server_time
		FROM user_visits
		ORDER BY server_time DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryxContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Warn("Failed to close database rows", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	var visits []StoredVisit
	for rows.Next() {
		var (
			v       StoredVisit
			payload []byte
		)
		if err := rows.Scan(&v.DocID, &payload, &v.SavedAt, &v.ServerTime); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		if err := json.Unmarshal(payload, &v.Record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal visit %s: %w", v.DocID, err)
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visits: %w", err)
	}

	return visits, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}
