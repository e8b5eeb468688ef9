package risk

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"maternal-risk/internal/dataset"
	"maternal-risk/internal/metrics"
)

// ModelCache hands out a classifier consistent with a dataset. Models are
// keyed by the dataset fingerprint and the hyperparameters, so a changed
// dataset trains a new model. Concurrent misses on one key train once.
//
// With caching disabled every Get trains a fresh model.
type ModelCache struct {
	enabled bool
	params  Params
	columns []string
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu    sync.Mutex
	key   string
	model *Model
	group singleflight.Group
}

func NewModelCache(enabled bool, m *metrics.Metrics, logger *zap.Logger) *ModelCache {
	return &ModelCache{
		enabled: enabled,
		params:  DefaultParams,
		columns: FeatureColumns,
		metrics: m,
		logger:  logger,
	}
}

// Get returns a trained model for ds.
func (c *ModelCache) Get(ctx context.Context, ds *dataset.Dataset) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.enabled {
		return c.train(ds)
	}

	key := c.cacheKey(ds)

	c.mu.Lock()
	if c.model != nil && c.key == key {
		model := c.model
		c.mu.Unlock()
		c.metrics.ModelCache.WithLabelValues("hit").Inc()
		return model, nil
	}
	c.mu.Unlock()
	c.metrics.ModelCache.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		if c.model != nil && c.key == key {
			model := c.model
			c.mu.Unlock()
			return model, nil
		}
		c.mu.Unlock()

		model, err := c.train(ds)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.key, c.model = key, model
		c.mu.Unlock()
		return model, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

func (c *ModelCache) cacheKey(ds *dataset.Dataset) string {
	h := xxhash.New()
	h.WriteString(strconv.FormatUint(ds.Fingerprint(), 16))
	h.WriteString(c.params.String())
	for _, col := range c.columns {
		h.WriteString(col)
		h.WriteString(",")
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

func (c *ModelCache) train(ds *dataset.Dataset) (*Model, error) {
	start := time.Now()
	model, err := TrainWithParams(ds, c.columns, c.params)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn("classifier training failed", zap.Error(err))
		return nil, err
	}

	c.metrics.TrainingDuration.Observe(elapsed.Seconds())
	c.metrics.HoldoutAccuracy.Set(model.HoldoutAccuracy())
	c.logger.Info("classifier trained",
		zap.Int("rows", ds.Len()),
		zap.Int("holdout", model.HoldoutSize()),
		zap.Float64("holdout_accuracy", model.HoldoutAccuracy()),
		zap.Duration("elapsed", elapsed),
	)
	return model, nil
}
