// Package risk trains the maternal risk classifier and maps risk labels to codes.
package risk

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"maternal-risk/internal/dataset"
)

// FeatureColumns is the column order the classifier is trained and scored with.
var FeatureColumns = []string{
	dataset.ColAge,
	dataset.ColBS,
	dataset.ColBodyTemp,
	dataset.ColDiastolicBP,
	dataset.ColHeartRate,
	dataset.ColSystolicBP,
}

// Params are the boosting hyperparameters. They are fixed; DefaultParams is
// what the service trains with.
type Params struct {
	Rounds         int
	LearningRate   float64
	MaxDepth       int
	Lambda         float64
	MinChildWeight float64
	Gamma          float64
	BaseScore      float64
	TestSize       float64
	Seed           uint64
}

var DefaultParams = Params{
	Rounds:         100,
	LearningRate:   0.3,
	MaxDepth:       2,
	Lambda:         1,
	MinChildWeight: 1,
	Gamma:          0,
	BaseScore:      0.5,
	TestSize:       0.3,
	Seed:           42,
}

func (p Params) String() string {
	return fmt.Sprintf("rounds=%d eta=%g depth=%d lambda=%g mcw=%g gamma=%g base=%g test=%g seed=%d",
		p.Rounds, p.LearningRate, p.MaxDepth, p.Lambda, p.MinChildWeight, p.Gamma, p.BaseScore, p.TestSize, p.Seed)
}

// Model is a trained gradient-boosted tree ensemble with one tree per class
// per round and a softmax over the class margins.
type Model struct {
	columns   []string
	codec     *Codec
	params    Params
	rounds    [][]tree
	holdout   []dataset.Observation
	accuracy  float64
	trainedAt time.Time
}

// Train fits a model on ds using DefaultParams.
func Train(ds *dataset.Dataset, columns []string) (*Model, error) {
	return TrainWithParams(ds, columns, DefaultParams)
}

// TrainWithParams fits a model on ds. The dataset is split into training and
// held-out partitions with a shuffle seeded by p.Seed; only the training
// partition is fitted, the held-out one is scored for accuracy.
func TrainWithParams(ds *dataset.Dataset, columns []string, p Params) (*Model, error) {
	if err := validateColumns(columns); err != nil {
		return nil, err
	}
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", ErrInsufficientData)
	}

	codec, err := FitCodec(ds.Labels())
	if err != nil {
		return nil, err
	}
	if codec.Len() < 2 {
		return nil, fmt.Errorf("%w: need at least two distinct labels, got %d", ErrInsufficientData, codec.Len())
	}

	train, holdout := splitRows(ds.Len(), p.TestSize, p.Seed)
	if len(train) == 0 {
		return nil, fmt.Errorf("%w: training partition is empty", ErrInsufficientData)
	}

	m := &Model{
		columns: slices.Clone(columns),
		codec:   codec,
		params:  p,
	}

	x := make([][]float64, len(train))
	y := make([]int, len(train))
	for i, r := range train {
		obs := ds.At(r)
		x[i] = m.vector(obs)
		y[i], _ = codec.Encode(obs.RiskLevel)
	}
	m.fit(x, y)

	m.holdout = make([]dataset.Observation, len(holdout))
	for i, r := range holdout {
		m.holdout[i] = ds.At(r)
	}
	m.accuracy = m.score(m.holdout)
	m.trainedAt = time.Now()
	return m, nil
}

func validateColumns(columns []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrInvalidColumns)
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if !dataset.IsNumericColumn(c) {
			return fmt.Errorf("%w: unknown column %q", ErrInvalidColumns, c)
		}
		if seen[c] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidColumns, c)
		}
		seen[c] = true
	}
	return nil
}

// splitRows shuffles row indices deterministically and cuts off
// ceil(n*testSize) of them as the held-out partition.
func splitRows(n int, testSize float64, seed uint64) (train, holdout []int) {
	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)

	nTest := int(math.Ceil(float64(n) * testSize))
	if nTest >= n {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}

func (m *Model) fit(x [][]float64, y []int) {
	k := m.codec.Len()
	n := len(x)

	margins := make([][]float64, n)
	for i := range margins {
		margins[i] = make([]float64, k)
		for c := range margins[i] {
			margins[i][c] = m.params.BaseScore
		}
	}

	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	grad := make([]float64, n)
	hess := make([]float64, n)
	probs := make([][]float64, n)

	m.rounds = make([][]tree, 0, m.params.Rounds)
	for round := 0; round < m.params.Rounds; round++ {
		for i := range margins {
			probs[i] = softmax(margins[i])
		}

		trees := make([]tree, k)
		for c := 0; c < k; c++ {
			for i := range x {
				p := probs[i][c]
				target := 0.0
				if y[i] == c {
					target = 1
				}
				grad[i] = p - target
				hess[i] = math.Max(2*p*(1-p), 1e-16)
			}
			trees[c] = buildTree(x, grad, hess, rows, m.params)
		}

		for i := range x {
			for c := 0; c < k; c++ {
				margins[i][c] += trees[c].predict(x[i])
			}
		}
		m.rounds = append(m.rounds, trees)
	}
}

// vector extracts the model's columns from obs in training order.
func (m *Model) vector(obs dataset.Observation) []float64 {
	v := make([]float64, len(m.columns))
	for i, col := range m.columns {
		v[i], _ = obs.Value(col)
	}
	return v
}

func (m *Model) margins(x []float64) []float64 {
	out := make([]float64, m.codec.Len())
	for c := range out {
		out[c] = m.params.BaseScore
	}
	for _, trees := range m.rounds {
		for c := range trees {
			out[c] += trees[c].predict(x)
		}
	}
	return out
}

func (m *Model) trained() bool {
	return m != nil && m.codec != nil && len(m.rounds) > 0
}

// Predict returns the code of the most probable class for obs. Features are
// read from obs by the column list the model was trained with.
func (m *Model) Predict(obs dataset.Observation) (int, error) {
	if !m.trained() {
		return 0, ErrNotTrained
	}
	return argmax(m.margins(m.vector(obs))), nil
}

// Probabilities returns the softmax class probabilities for obs, indexed by code.
func (m *Model) Probabilities(obs dataset.Observation) ([]float64, error) {
	if !m.trained() {
		return nil, ErrNotTrained
	}
	return softmax(m.margins(m.vector(obs))), nil
}

func (m *Model) score(rows []dataset.Observation) float64 {
	if len(rows) == 0 {
		return 0
	}
	correct := 0
	for _, obs := range rows {
		code, _ := m.Predict(obs)
		if want, err := m.codec.Encode(obs.RiskLevel); err == nil && want == code {
			correct++
		}
	}
	return float64(correct) / float64(len(rows))
}

// Codec returns the label codec fitted alongside the model.
func (m *Model) Codec() *Codec { return m.codec }

// Columns returns the feature columns in training order.
func (m *Model) Columns() []string { return slices.Clone(m.columns) }

// HoldoutSize is the number of rows withheld from training.
func (m *Model) HoldoutSize() int { return len(m.holdout) }

// HoldoutAccuracy is the share of held-out rows the model labels correctly.
func (m *Model) HoldoutAccuracy() float64 { return m.accuracy }

func (m *Model) TrainedAt() time.Time { return m.trainedAt }

func softmax(z []float64) []float64 {
	out := make([]float64, len(z))
	hi := math.Inf(-1)
	for _, v := range z {
		hi = math.Max(hi, v)
	}
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// argmax breaks ties towards the lower index.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
