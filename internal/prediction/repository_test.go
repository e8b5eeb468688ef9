package prediction

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_Append(t *testing.T) {
	dsn := os.Getenv("MATERNAL_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("MATERNAL_TEST_DATABASE_URL not set")
	}
	require.NoError(t, Migrate(dsn, "file://../../migrations"))

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	store := NewPostgresStore(db)
	defer store.Close()

	rec := Record{
		Date:            "2026-03-01T09:30:00Z",
		InputData:       map[string]float64{"Age": 25, "BS": 7.5},
		Prediction:      "low risk",
		PredictionValue: 1,
	}
	id, err := store.Append(context.Background(), rec)
	require.NoError(t, err)

	var (
		prediction string
		value      int
		inputJSON  []byte
	)
	err = db.QueryRow(`SELECT prediction, prediction_value, input_data FROM maternal_predictions WHERE id = $1`, id).
		Scan(&prediction, &value, &inputJSON)
	require.NoError(t, err)
	assert.Equal(t, "low risk", prediction)
	assert.Equal(t, 1, value)

	var input map[string]float64
	require.NoError(t, json.Unmarshal(inputJSON, &input))
	assert.Equal(t, rec.InputData, input)
}
