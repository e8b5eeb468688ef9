package explore

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"maternal-risk/internal/dataset"
	"maternal-risk/internal/report"
)

func newTestRouter(t *testing.T, renderer *report.Renderer) http.Handler {
	t.Helper()
	ds, err := dataset.Load("../../data/maternal_health_risk.csv")
	require.NoError(t, err)

	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(ds, renderer, zap.NewNop()))
	return r
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRows(t *testing.T) {
	h := newTestRouter(t, nil)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantRows int
	}{
		{name: "default limit", path: "/rows", wantCode: http.StatusOK, wantRows: 10},
		{name: "explicit limit", path: "/rows?limit=3", wantCode: http.StatusOK, wantRows: 3},
		{name: "limit above max", path: "/rows?limit=101", wantCode: http.StatusBadRequest},
		{name: "limit zero", path: "/rows?limit=0", wantCode: http.StatusBadRequest},
		{name: "limit not a number", path: "/rows?limit=ten", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(h, tt.path)
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				return
			}
			var body rowsResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Len(t, body.Rows, tt.wantRows)
			assert.Equal(t, 120, body.Total)
			assert.Equal(t, []string{"Age", "SystolicBP", "DiastolicBP", "BS", "BodyTemp", "HeartRate"}, body.Columns)
		})
	}
}

func TestRows_FirstRowMatchesFile(t *testing.T) {
	rec := get(newTestRouter(t, nil), "/rows?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body rowsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, 25, body.Rows[0].Age)
	assert.Equal(t, 7.24, body.Rows[0].BloodSugar)
	assert.Equal(t, "low risk", body.Rows[0].RiskLevel)
}

func TestCounts(t *testing.T) {
	rec := get(newTestRouter(t, nil), "/counts")
	require.Equal(t, http.StatusOK, rec.Code)

	var counts dataset.AgeCounts
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&counts))
	assert.Equal(t, []string{"high risk", "low risk", "mid risk"}, counts.Labels)

	total := 0
	prevAge := 0
	for _, row := range counts.Rows {
		assert.Greater(t, row.Age, prevAge)
		prevAge = row.Age
		for _, n := range row.Counts {
			total += n
		}
	}
	assert.Equal(t, 120, total)
}

func TestDescribe(t *testing.T) {
	rec := get(newTestRouter(t, nil), "/describe")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	require.Len(t, rows, 6)
	for _, key := range []string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"} {
		assert.Contains(t, rows[0], key)
	}
	assert.Equal(t, "Age", rows[0]["column"])
}

func TestViews(t *testing.T) {
	rec := get(newTestRouter(t, nil), "/views")
	require.Equal(t, http.StatusOK, rec.Code)

	var body viewsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, []string{"Data Rows", "RiskLevel Counts", "Data Description", "RiskLevel Prediction"}, body.Views)
	require.Len(t, body.InputBounds, 6)
	assert.Equal(t, "Age", body.InputBounds[0].Field)
	assert.True(t, body.InputBounds[0].Integer)
}

func TestCountPlot_NoRenderer(t *testing.T) {
	rec := get(newTestRouter(t, nil), "/counts.pdf")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCountPlot(t *testing.T) {
	renderer, err := report.NewRenderer("")
	if errors.Is(err, report.ErrNoFont) {
		t.Skip("DejaVu font not installed")
	}
	require.NoError(t, err)

	rec := get(newTestRouter(t, renderer), "/counts.pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}
