// Package main implements maternalctl, an operator CLI over the maternal
// health dataset and record store.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"maternal-risk/internal/dataset"
)

var (
	// datasetPath is the CSV every data command reads
	datasetPath string
	version     = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "maternalctl",
	Short: "Inspect the maternal health dataset and classify vitals",
	Long: `maternalctl reads the maternal health risk dataset and prints the same
views the dashboard serves, or classifies a set of vitals from the command line.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&datasetPath, "dataset", "data/maternal_health_risk.csv", "path to the dataset CSV")
	rootCmd.AddCommand(rowsCmd, describeCmd, countsCmd, predictCmd, migrateCmd)
	rowsCmd.Flags().Int("limit", 10, "number of rows to print")
}

var rowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "Print the first rows of the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		ds, err := dataset.Load(datasetPath)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		cols := ds.Columns()
		fmt.Fprintln(w, strings.Join(append(cols, dataset.ColRiskLevel), "\t"))
		for _, obs := range ds.Head(limit) {
			cells := make([]string, 0, len(cols)+1)
			for _, c := range cols {
				v, _ := obs.Value(c)
				cells = append(cells, strconv.FormatFloat(v, 'f', -1, 64))
			}
			cells = append(cells, obs.RiskLevel)
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
		return w.Flush()
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print descriptive statistics per numeric column",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := dataset.Load(datasetPath)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\t")
		for _, s := range ds.Describe() {
			std := "NaN"
			if s.Std != nil {
				std = fmt.Sprintf("%.6f", *s.Std)
			}
			fmt.Fprintf(w, "%s\t%d\t%.6f\t%s\t%g\t%g\t%g\t%g\t%g\t\n",
				s.Column, s.Count, s.Mean, std, s.Min, s.P25, s.P50, s.P75, s.Max)
		}
		return w.Flush()
	},
}

var countsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Print RiskLevel counts for each Age",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := dataset.Load(datasetPath)
		if err != nil {
			return err
		}
		counts := ds.CountsByAge()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, dataset.ColAge+"\t"+strings.Join(counts.Labels, "\t"))
		for _, row := range counts.Rows {
			cells := []string{strconv.Itoa(row.Age)}
			for _, n := range row.Counts {
				cells = append(cells, strconv.Itoa(n))
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
		return w.Flush()
	},
}
