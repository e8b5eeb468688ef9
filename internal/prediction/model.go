package prediction

import (
	"fmt"
	"math"
	"time"

	"maternal-risk/internal/dataset"
)

// Bound is the accepted range of one prediction input.
type Bound struct {
	Field   string  `json:"field"`
	Label   string  `json:"label"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Integer bool    `json:"integer"`
}

// InputBounds lists the prediction form fields in display order.
var InputBounds = []Bound{
	{Field: dataset.ColAge, Label: "Enter Age", Min: 1, Max: 100, Default: 1, Integer: true},
	{Field: dataset.ColBS, Label: "Enter Blood Sugar", Min: 0, Max: 300, Default: 0},
	{Field: dataset.ColBodyTemp, Label: "Enter Body Temperature", Min: 35, Max: 42, Default: 35},
	{Field: dataset.ColDiastolicBP, Label: "Enter Diastolic Blood Pressure", Min: 0, Max: 200, Default: 0, Integer: true},
	{Field: dataset.ColHeartRate, Label: "Enter Heart Rate", Min: 0, Max: 200, Default: 0, Integer: true},
	{Field: dataset.ColSystolicBP, Label: "Enter Systolic Blood Pressure", Min: 0, Max: 300, Default: 0, Integer: true},
}

// Input is a freshly entered set of vitals awaiting classification.
type Input struct {
	Age         float64 `json:"age"`
	BloodSugar  float64 `json:"bs"`
	BodyTemp    float64 `json:"body_temp"`
	DiastolicBP float64 `json:"diastolic_bp"`
	HeartRate   float64 `json:"heart_rate"`
	SystolicBP  float64 `json:"systolic_bp"`
}

func (in Input) value(field string) float64 {
	switch field {
	case dataset.ColAge:
		return in.Age
	case dataset.ColBS:
		return in.BloodSugar
	case dataset.ColBodyTemp:
		return in.BodyTemp
	case dataset.ColDiastolicBP:
		return in.DiastolicBP
	case dataset.ColHeartRate:
		return in.HeartRate
	case dataset.ColSystolicBP:
		return in.SystolicBP
	}
	return math.NaN()
}

// Validate checks every field against InputBounds.
func (in Input) Validate() error {
	for _, b := range InputBounds {
		v := in.value(b.Field)
		if math.IsNaN(v) || v < b.Min || v > b.Max {
			return fmt.Errorf("%w: %s must be between %g and %g", ErrInvalidInput, b.Field, b.Min, b.Max)
		}
		if b.Integer && v != math.Trunc(v) {
			return fmt.Errorf("%w: %s must be a whole number", ErrInvalidInput, b.Field)
		}
	}
	return nil
}

// Observation converts validated input into an unlabelled observation.
func (in Input) Observation() dataset.Observation {
	return dataset.Observation{
		Age:         int(in.Age),
		BloodSugar:  in.BloodSugar,
		BodyTemp:    in.BodyTemp,
		DiastolicBP: int(in.DiastolicBP),
		HeartRate:   int(in.HeartRate),
		SystolicBP:  int(in.SystolicBP),
	}
}

// InputData returns the six inputs keyed by dataset column name.
func (in Input) InputData() map[string]float64 {
	out := make(map[string]float64, len(InputBounds))
	for _, b := range InputBounds {
		out[b.Field] = in.value(b.Field)
	}
	return out
}

// Result is the outcome of one Predict action, held per session until the
// next prediction replaces it.
type Result struct {
	InputData       map[string]float64 `json:"input_data"`
	PredictionLabel string             `json:"prediction_label"`
	PredictionValue int                `json:"prediction_value"`
	Probabilities   map[string]float64 `json:"probabilities"`
	PredictedAt     time.Time          `json:"predicted_at"`
}

// Record is a saved prediction as written to the record store.
type Record struct {
	ID              string             `json:"id,omitempty" firestore:"-"`
	Date            string             `json:"date" firestore:"date"`
	InputData       map[string]float64 `json:"input_data" firestore:"input_data"`
	Prediction      string             `json:"prediction" firestore:"prediction"`
	PredictionValue int                `json:"prediction_value" firestore:"prediction_value"`
}
