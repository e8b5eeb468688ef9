package prediction

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"maternal-risk/internal/risk"
)

// SessionCookie carries the browser session id.
const SessionCookie = "maternal_sid"

type Handler struct {
	svc    Service
	logger *zap.Logger
	secure bool
}

func NewHandler(svc Service, logger *zap.Logger, secureCookies bool) *Handler {
	return &Handler{svc: svc, logger: logger, secure: secureCookies}
}

type lastResultResponse struct {
	*Result
	CanSave bool `json:"can_save"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request"})
		return
	}

	sid := h.session(w, r)
	res, err := h.svc.Predict(r.Context(), sid, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) LastResult(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.existingSession(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "No prediction yet"})
		return
	}
	res, ok := h.svc.LastResult(sid)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "No prediction yet"})
		return
	}
	writeJSON(w, http.StatusOK, lastResultResponse{Result: res, CanSave: true})
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.existingSession(r)
	if !ok {
		h.writeError(w, ErrNoPrediction)
		return
	}
	rec, err := h.svc.Save(r.Context(), sid)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// session returns the caller's session id, issuing a new cookie if the
// request carries none.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) uuid.UUID {
	if id, ok := h.existingSession(r); ok {
		return id
	}
	id := uuid.New()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure,
	})
	return id
}

func (h *Handler) existingSession(r *http.Request) (uuid.UUID, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var storeErr *StoreWriteError
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrNoPrediction):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "Predict a risk level before saving"})
	case errors.Is(err, ErrStoreDisabled):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Saving predictions is not configured"})
	case errors.As(err, &storeErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: storeErr.Error()})
	case errors.Is(err, risk.ErrInsufficientData):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "The dataset cannot train a classifier: " + err.Error()})
	default:
		h.logger.Error("prediction request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Prediction failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/predict", h.Predict)
	r.Get("/predict/last", h.LastResult)
	r.Post("/predictions", h.Save)
}
