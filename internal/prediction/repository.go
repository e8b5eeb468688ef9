package prediction

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
)

// Store is the append-only destination for saved predictions. Append
// returns the identifier the store assigned to the record.
type Store interface {
	Append(ctx context.Context, rec Record) (string, error)
	Close() error
}

type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore stores records in the maternal_predictions table.
func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Append(ctx context.Context, rec Record) (string, error) {
	inputJSON, err := json.Marshal(rec.InputData)
	if err != nil {
		return "", fmt.Errorf("marshal input_data: %w", err)
	}

	id := uuid.New()
	query := `
		INSERT INTO maternal_predictions (id, date, input_data, prediction, prediction_value)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query, id, rec.Date, inputJSON, rec.Prediction, rec.PredictionValue); err != nil {
		return "", fmt.Errorf("insert prediction: %w", err)
	}
	return id.String(), nil
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}

// Migrate applies the schema migrations found at source (e.g. file://migrations).
func Migrate(databaseURL, source string) error {
	m, err := migrate.New(source, databaseURL)
	if err != nil {
		return fmt.Errorf("migration init failed: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}
