package prediction

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleBody = `{"age":25,"bs":120,"body_temp":37,"diastolic_bp":80,"heart_rate":75,"systolic_bp":110}`

func newTestRouter(t *testing.T, store Store) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(newTestService(t, store, nil), zap.NewNop(), false))
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatalf("response carries no %s cookie", SessionCookie)
	return nil
}

func TestHandler_PredictThenSave(t *testing.T) {
	store := &fakeStore{}
	h := newTestRouter(t, store)

	rec := do(t, h, http.MethodPost, "/predict", sampleBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	var res Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.NotEmpty(t, res.PredictionLabel)

	rec = do(t, h, http.MethodGet, "/predict/last", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var last struct {
		PredictionLabel string `json:"prediction_label"`
		CanSave         bool   `json:"can_save"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&last))
	assert.Equal(t, res.PredictionLabel, last.PredictionLabel)
	assert.True(t, last.CanSave)

	rec = do(t, h, http.MethodPost, "/predictions", "", cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	var saved Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&saved))
	assert.Equal(t, res.PredictionLabel, saved.Prediction)
	assert.Len(t, store.records, 1)
}

func TestHandler_ReusesSessionCookie(t *testing.T) {
	h := newTestRouter(t, &fakeStore{})

	rec := do(t, h, http.MethodPost, "/predict", sampleBody, nil)
	cookie := sessionCookie(t, rec)

	rec = do(t, h, http.MethodPost, "/predict", sampleBody, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		store  Store
		method string
		path   string
		body   string
		before bool
		want   int
	}{
		{name: "malformed body", store: &fakeStore{}, method: http.MethodPost, path: "/predict", body: "{", want: http.StatusBadRequest},
		{name: "out of range", store: &fakeStore{}, method: http.MethodPost, path: "/predict", body: `{"age":0,"body_temp":37}`, want: http.StatusBadRequest},
		{name: "last without prediction", store: &fakeStore{}, method: http.MethodGet, path: "/predict/last", want: http.StatusNotFound},
		{name: "save without prediction", store: &fakeStore{}, method: http.MethodPost, path: "/predictions", want: http.StatusConflict},
		{name: "save with store disabled", store: nil, method: http.MethodPost, path: "/predictions", before: true, want: http.StatusServiceUnavailable},
		{name: "save with store failure", store: &fakeStore{err: errors.New("unavailable")}, method: http.MethodPost, path: "/predictions", before: true, want: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, tt.store)
			var cookie *http.Cookie
			if tt.before {
				rec := do(t, h, http.MethodPost, "/predict", sampleBody, nil)
				require.Equal(t, http.StatusOK, rec.Code)
				cookie = sessionCookie(t, rec)
			}

			rec := do(t, h, tt.method, tt.path, tt.body, cookie)
			assert.Equal(t, tt.want, rec.Code)

			var body errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHandler_StoreFailureMessage(t *testing.T) {
	h := newTestRouter(t, &fakeStore{err: errors.New("quota exceeded")})

	rec := do(t, h, http.MethodPost, "/predict", sampleBody, nil)
	cookie := sessionCookie(t, rec)

	rec = do(t, h, http.MethodPost, "/predictions", "", cookie)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, strings.HasPrefix(body.Error, "error saving prediction: "))
	assert.Contains(t, body.Error, "quota exceeded")

	rec = do(t, h, http.MethodGet, "/predict/last", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}
