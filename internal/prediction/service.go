package prediction

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"maternal-risk/internal/dataset"
	"maternal-risk/internal/metrics"
	"maternal-risk/internal/risk"
)

// ModelProvider returns a classifier consistent with the dataset.
type ModelProvider interface {
	Get(ctx context.Context, ds *dataset.Dataset) (*risk.Model, error)
}

// Notifier is told about every record that reached the store.
type Notifier interface {
	NotifySaved(ctx context.Context, rec Record) error
}

type Service interface {
	Predict(ctx context.Context, sessionID uuid.UUID, in Input) (*Result, error)
	Save(ctx context.Context, sessionID uuid.UUID) (*Record, error)
	LastResult(sessionID uuid.UUID) (*Result, bool)
}

type service struct {
	data     *dataset.Dataset
	models   ModelProvider
	store    Store
	sessions *SessionStore
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the predict-and-persist workflow. store may be nil, in
// which case Save reports ErrStoreDisabled; notifier may be nil.
func NewService(data *dataset.Dataset, models ModelProvider, store Store, sessions *SessionStore, notifier Notifier, m *metrics.Metrics, logger *zap.Logger) Service {
	return &service{
		data:     data,
		models:   models,
		store:    store,
		sessions: sessions,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Predict classifies the input and remembers the result for the session.
func (s *service) Predict(ctx context.Context, sessionID uuid.UUID, in Input) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	model, err := s.models.Get(ctx, s.data)
	if err != nil {
		return nil, fmt.Errorf("train classifier: %w", err)
	}

	obs := in.Observation()
	code, err := model.Predict(obs)
	if err != nil {
		return nil, err
	}
	label, err := model.Codec().Decode(code)
	if err != nil {
		return nil, err
	}

	probs, err := model.Probabilities(obs)
	if err != nil {
		return nil, err
	}
	byLabel := make(map[string]float64, len(probs))
	for c, p := range probs {
		l, err := model.Codec().Decode(c)
		if err != nil {
			return nil, err
		}
		byLabel[l] = p
	}

	res := Result{
		InputData:       in.InputData(),
		PredictionLabel: label,
		PredictionValue: code,
		Probabilities:   byLabel,
		PredictedAt:     s.now().UTC(),
	}
	s.sessions.SetLast(sessionID, res)
	s.metrics.Predictions.WithLabelValues(label).Inc()

	s.logger.Info("risk level predicted",
		zap.String("session", sessionID.String()),
		zap.String("label", label),
		zap.Int("code", code),
	)
	return &res, nil
}

// Save appends the session's last result to the record store. Saving the
// same result twice appends two records.
func (s *service) Save(ctx context.Context, sessionID uuid.UUID) (*Record, error) {
	res, ok := s.sessions.Last(sessionID)
	if !ok {
		return nil, ErrNoPrediction
	}
	if s.store == nil {
		return nil, ErrStoreDisabled
	}

	rec := Record{
		Date:            s.now().UTC().Format(time.RFC3339Nano),
		InputData:       maps.Clone(res.InputData),
		Prediction:      res.PredictionLabel,
		PredictionValue: res.PredictionValue,
	}

	id, err := s.store.Append(ctx, rec)
	if err != nil {
		s.metrics.RecordsSaved.WithLabelValues("error").Inc()
		s.logger.Error("failed to save prediction",
			zap.String("session", sessionID.String()),
			zap.Error(err),
		)
		return nil, &StoreWriteError{Err: err}
	}
	rec.ID = id
	s.metrics.RecordsSaved.WithLabelValues("ok").Inc()
	s.logger.Info("prediction saved", zap.String("session", sessionID.String()), zap.String("record", id))

	if s.notifier != nil {
		if err := s.notifier.NotifySaved(ctx, rec); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("failed to send journal notification", zap.String("record", id), zap.Error(err))
		}
	}
	return &rec, nil
}

// LastResult returns the session's most recent prediction.
func (s *service) LastResult(sessionID uuid.UUID) (*Result, bool) {
	res, ok := s.sessions.Last(sessionID)
	if !ok {
		return nil, false
	}
	return &res, true
}
