package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"maternal-risk/internal/dataset"
	"maternal-risk/internal/prediction"
	"maternal-risk/internal/risk"
)

var predictInput prediction.Input

func init() {
	f := predictCmd.Flags()
	f.Float64Var(&predictInput.Age, "age", 1, "age in years (1-100)")
	f.Float64Var(&predictInput.BloodSugar, "bs", 0, "blood sugar (0-300)")
	f.Float64Var(&predictInput.BodyTemp, "body-temp", 35, "body temperature (35-42)")
	f.Float64Var(&predictInput.DiastolicBP, "diastolic-bp", 0, "diastolic blood pressure (0-200)")
	f.Float64Var(&predictInput.HeartRate, "heart-rate", 0, "heart rate (0-200)")
	f.Float64Var(&predictInput.SystolicBP, "systolic-bp", 0, "systolic blood pressure (0-300)")
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Classify one set of vitals",
	Long: `Train the classifier on the dataset and print the predicted RiskLevel.

Examples:
  maternalctl predict --age 25 --bs 120 --body-temp 37 --diastolic-bp 80 \
    --heart-rate 75 --systolic-bp 110`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := predictInput.Validate(); err != nil {
			return err
		}
		ds, err := dataset.Load(datasetPath)
		if err != nil {
			return err
		}
		model, err := risk.Train(ds, risk.FeatureColumns)
		if err != nil {
			return err
		}

		obs := predictInput.Observation()
		code, err := model.Predict(obs)
		if err != nil {
			return err
		}
		label, err := model.Codec().Decode(code)
		if err != nil {
			return err
		}
		probs, err := model.Probabilities(obs)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Predicted RiskLevel: %s (%d)\n", label, code)

		labels := model.Codec().Labels()
		order := make([]int, len(labels))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return probs[order[a]] > probs[order[b]] })
		for _, c := range order {
			fmt.Fprintf(out, "  %-10s %.4f\n", labels[c], probs[c])
		}
		fmt.Fprintf(out, "Holdout accuracy: %.4f on %d rows\n", model.HoldoutAccuracy(), model.HoldoutSize())
		return nil
	},
}
