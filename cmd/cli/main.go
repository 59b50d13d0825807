package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"artbench/domain/stats"
	"artbench/internal/analysis/engine"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var jsonOutput bool

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "artbench",
		Short:         "Statistics for comparing generative artists across benchmark runs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		newDescribeCmd(),
		newCompareCmd(),
		newANOVACmd(),
		newCorrectCmd(),
		newRunCmd(),
		newSimulateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe [values...]",
		Short: "Descriptive statistics for one sample",
		Long: `Compute mean, population standard deviation, median, quartiles and the
95% confidence interval of the mean.

Example: artbench describe 2 4 4 4 5 5 7 9`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseFloats(args)
			if err != nil {
				return err
			}
			d, err := engine.Describe(values)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(d)
			}
			fmt.Printf("n        %d\n", d.N)
			fmt.Printf("mean     %.6g\n", d.Mean)
			fmt.Printf("std dev  %.6g\n", d.StdDev)
			fmt.Printf("median   %.6g\n", d.Median)
			fmt.Printf("q1, q3   %.6g, %.6g\n", d.Q1, d.Q3)
			fmt.Printf("min, max %.6g, %.6g\n", d.Min, d.Max)
			if d.CIDegenerate {
				fmt.Printf("ci95     [%.6g, %.6g] (single observation)\n", d.CI95Lower, d.CI95Upper)
			} else {
				fmt.Printf("ci95     [%.6g, %.6g]\n", d.CI95Lower, d.CI95Upper)
			}
			return nil
		},
	}
}

func newCompareCmd() *cobra.Command {
	var a, b []float64
	var student bool

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Two-sample t-test and Cohen's d",
		Long: `Compare two samples with Welch's t-test (default) or Student's pooled t-test.

Example: artbench compare --a 1,2,3,4,5 --b 6,7,8,9,10 --student`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			test := engine.WelchTTest
			name := "welch"
			if student {
				test = engine.TTest
				name = "student"
			}
			r, err := test(a, b)
			if err != nil {
				return err
			}
			d, err := engine.CohensD(a, b)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string]interface{}{
					"test":   name,
					"result": r,
					"d":      d,
					"effect": stats.EffectSizeLabel(d),
				})
			}
			fmt.Printf("%s t = %.6g, df = %.6g, p = %.6g\n", name, r.TStatistic, r.DegreesOfFreedom, r.PValue)
			fmt.Printf("cohen's d = %.4f (%s)\n", d, stats.EffectSizeLabel(d))
			return nil
		},
	}

	cmd.Flags().Float64SliceVar(&a, "a", nil, "First sample, comma separated")
	cmd.Flags().Float64SliceVar(&b, "b", nil, "Second sample, comma separated")
	cmd.Flags().BoolVar(&student, "student", false, "Use the pooled-variance Student t-test")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")
	return cmd
}

func newANOVACmd() *cobra.Command {
	var groups []string
	var alpha float64

	cmd := &cobra.Command{
		Use:   "anova",
		Short: "One-way ANOVA across two or more groups",
		Long: `Run a one-way ANOVA. Pass --group once per group.

Example: artbench anova --group 1,2,3 --group 4,5,6 --group 7,8,9`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make([][]float64, len(groups))
			for i, g := range groups {
				values, err := parseFloats(strings.Split(g, ","))
				if err != nil {
					return fmt.Errorf("group %d: %w", i, err)
				}
				parsed[i] = values
			}
			r, err := engine.OneWayANOVA(parsed, alpha)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(r)
			}
			fmt.Printf("F(%d, %d) = %.6g, p = %.6g, eta^2 = %.4f\n", r.DFBetween, r.DFWithin, r.FStatistic, r.PValue, r.EtaSquared)
			fmt.Printf("significant at %.3g: %t\n", alpha, r.Significant)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&groups, "group", nil, "Comma separated group values; repeat per group")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "Significance level")
	return cmd
}

func newCorrectCmd() *cobra.Command {
	var alpha float64
	var method string

	cmd := &cobra.Command{
		Use:   "correct [p-values...]",
		Short: "Bonferroni or Benjamini-Hochberg correction",
		Long: `Apply a multiple-comparison correction to a family of p-values. Output
keeps the input order.

Example: artbench correct --method bh 0.01 0.04 0.03 0.005`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := stats.ParseCorrectionMethod(method)
			if err != nil {
				return err
			}
			pValues, err := parseFloats(args)
			if err != nil {
				return err
			}
			r, err := engine.Correct(m, pValues, alpha)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(r)
			}
			fmt.Printf("%s at alpha %.3g: %d of %d rejected\n", r.Method, r.Alpha, r.RejectedCount(), len(pValues))
			for i, p := range pValues {
				fmt.Printf("  p=%-10.4g adjusted=%-10.4g rejected=%t\n", p, r.Adjusted[i], r.Rejected[i])
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "Family-wise significance level")
	cmd.Flags().StringVar(&method, "method", string(stats.CorrectionBenjaminiHochberg), "bonferroni|benjamini_hochberg")
	return cmd
}

func parseFloats(args []string) ([]float64, error) {
	values := make([]float64, 0, len(args))
	for _, a := range args {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", a, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
