package report

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"maternal-risk/internal/dataset"
	"maternal-risk/internal/prediction"
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer("")
	if errors.Is(err, ErrNoFont) {
		t.Skip("DejaVu font not installed")
	}
	require.NoError(t, err)
	return r
}

var sampleRecord = prediction.Record{
	ID:              "abc123",
	Date:            "2026-03-01T09:30:00Z",
	InputData:       map[string]float64{"Age": 25, "BS": 7.5, "BodyTemp": 37, "DiastolicBP": 80, "HeartRate": 75, "SystolicBP": 110},
	Prediction:      "low risk",
	PredictionValue: 1,
}

func TestNewRenderer_MissingFont(t *testing.T) {
	saved := defaultFontPaths
	defaultFontPaths = nil
	defer func() { defaultFontPaths = saved }()

	_, err := NewRenderer("/nonexistent/font.ttf")
	assert.ErrorIs(t, err, ErrNoFont)
}

func TestCountPlot(t *testing.T) {
	r := testRenderer(t)
	counts := dataset.AgeCounts{
		Labels: []string{"high risk", "low risk", "mid risk"},
		Rows: []dataset.AgeCountRow{
			{Age: 17, Counts: []int{0, 3, 1}},
			{Age: 25, Counts: []int{2, 5, 0}},
			{Age: 40, Counts: []int{4, 0, 2}},
		},
	}

	doc, err := r.CountPlot(counts)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestCountPlot_Empty(t *testing.T) {
	r := testRenderer(t)
	doc, err := r.CountPlot(dataset.AgeCounts{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestPredictionReport(t *testing.T) {
	r := testRenderer(t)
	doc, err := r.PredictionReport(sampleRecord)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestNiceMax(t *testing.T) {
	assert.Equal(t, 5, niceMax(0))
	assert.Equal(t, 5, niceMax(3))
	assert.Equal(t, 10, niceMax(10))
	assert.Equal(t, 15, niceMax(11))
}

type fakeTelegram struct {
	messages  []string
	documents []string
	err       error
}

func (f *fakeTelegram) SendMessage(_ context.Context, _ int64, text string) error {
	f.messages = append(f.messages, text)
	return f.err
}

func (f *fakeTelegram) SendDocument(_ context.Context, _ int64, _ []byte, fileName, _ string) error {
	f.documents = append(f.documents, fileName)
	return f.err
}

func TestJournalNotifier_TextWithoutRenderer(t *testing.T) {
	tg := &fakeTelegram{}
	n := NewJournalNotifier(nil, tg, 1, zap.NewNop())

	require.NoError(t, n.NotifySaved(context.Background(), sampleRecord))
	require.Len(t, tg.messages, 1)
	assert.Contains(t, tg.messages[0], "low risk")
	assert.Empty(t, tg.documents)
}

func TestJournalNotifier_Document(t *testing.T) {
	tg := &fakeTelegram{}
	n := NewJournalNotifier(testRenderer(t), tg, 1, zap.NewNop())

	require.NoError(t, n.NotifySaved(context.Background(), sampleRecord))
	assert.Equal(t, []string{"prediction_abc123.pdf"}, tg.documents)
}

func TestJournalNotifier_PropagatesError(t *testing.T) {
	tg := &fakeTelegram{err: errors.New("blocked")}
	n := NewJournalNotifier(nil, tg, 1, zap.NewNop())
	assert.Error(t, n.NotifySaved(context.Background(), sampleRecord))
}
