package main

import (
	"context"
	"fmt"
	"time"

	"artbench/adapters/excel"
	"artbench/app"
	"artbench/domain/analysis"
	"artbench/domain/core"
	"artbench/domain/stats"
	"artbench/internal"
	"artbench/internal/config"
	"artbench/internal/container"
	"artbench/internal/testkit"
	"artbench/ports"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var batch, kind, input, export, method string
	var useDB, noGate bool
	var alpha float64

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the descriptive and testing jobs over one batch",
		Long: `Run every metric of an analysis kind for one batch: descriptive statistics
per artist, then ANOVA and corrected pairwise Welch tests.

Observations come from --input (xlsx or csv) or from Postgres with --db.
Results are written to Postgres in --db mode and to --export when given.

Example: artbench run --batch 2025-06 --kind sentiment --input obs.xlsx --export results.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			batchID, err := core.ParseBatchID(batch)
			if err != nil {
				return err
			}
			k, err := analysis.ParseKind(kind)
			if err != nil {
				return err
			}

			c, err := loadContainer(func(cfg *config.Config) {
				if input != "" {
					cfg.Files.InputFile = input
				}
				if export != "" {
					cfg.Files.ExportFile = export
				}
			})
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			if useDB {
				err = c.InitWithDatabase(ctx, false)
			} else {
				err = c.InitWithFiles(c.Config.Files.InputFile, c.Config.Files.ExportFile)
			}
			if err != nil {
				return err
			}

			opts := c.TestOptions()
			if cmd.Flags().Changed("alpha") {
				opts.Alpha = alpha
			}
			if method != "" {
				if opts.Method, err = stats.ParseCorrectionMethod(method); err != nil {
					return err
				}
			}
			if noGate {
				opts.GateOnANOVA = false
			}

			report, err := c.Run(ctx, app.PipelineRequest{
				BatchID: batchID,
				Kind:    k,
				Artists: c.Artists,
				Options: opts,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(report)
			}
			printReport(report)
			return nil
		},
	}

	cmd.Flags().StringVar(&batch, "batch", "", "Batch identifier")
	cmd.Flags().StringVar(&kind, "kind", "", "Analysis kind: sentiment|color|materiality")
	cmd.Flags().StringVar(&input, "input", "", "Observation workbook or CSV (default $INPUT_FILE)")
	cmd.Flags().StringVar(&export, "export", "", "Results workbook (default $EXPORT_FILE)")
	cmd.Flags().BoolVar(&useDB, "db", false, "Read observations from and write results to DATABASE_URL")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "Family-wise significance level (default $ANALYSIS_ALPHA)")
	cmd.Flags().StringVar(&method, "method", "", "Correction method (default $CORRECTION_METHOD)")
	cmd.Flags().BoolVar(&noGate, "no-gate", false, "Run pairwise tests even when the ANOVA is not significant")
	_ = cmd.MarkFlagRequired("batch")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func newSimulateCmd() *cobra.Command {
	var out, batch string
	var seed int64
	var runs int
	var useDB, migrate bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate a synthetic observation batch",
		Long: `Generate seeded synthetic observations for every configured artist and
metric. Output goes to --out as a workbook, or to Postgres with --db.

Example: artbench simulate --out obs.xlsx --seed 7 --runs 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if out == "" && !useDB {
				return fmt.Errorf("one of --out or --db is required")
			}
			batchID, err := core.ParseBatchID(batch)
			if err != nil {
				return err
			}

			c, err := loadContainer(nil)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			gen := testkit.DefaultGeneratorConfig()
			gen.BatchID = batchID
			gen.Artists = c.Artists.Enabled()
			gen.Seed = seed
			gen.Runs = runs

			observations, err := testkit.NewGenerator(gen).Generate(ctx)
			if err != nil {
				return err
			}

			var writers []ports.SampleWriter
			var exporter *excel.WorkbookExporter
			if out != "" {
				exporter = excel.NewWorkbookExporter(out)
				writers = append(writers, exporter)
			}
			if useDB {
				if err := c.InitWithDatabase(ctx, migrate); err != nil {
					return err
				}
				writers = append(writers, c.Observations)
			}
			for _, w := range writers {
				if err := w.WriteObservations(ctx, observations); err != nil {
					return err
				}
			}
			if exporter != nil {
				if err := exporter.Flush(); err != nil {
					return err
				}
			}

			fmt.Printf("generated %d observations for batch %s (%d artists, %d metrics, %d runs, seed %d)\n",
				len(observations), batchID, len(gen.Artists), len(gen.Metrics), gen.Runs, gen.Seed)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output workbook")
	cmd.Flags().StringVar(&batch, "batch", "synthetic", "Batch identifier")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic generation")
	cmd.Flags().IntVar(&runs, "runs", 30, "Runs per artist and metric")
	cmd.Flags().BoolVar(&useDB, "db", false, "Write observations to DATABASE_URL")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply the schema before writing (with --db)")
	return cmd
}

func loadContainer(override func(*config.Config)) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	return container.New(cfg, logger)
}

func printReport(r *app.PipelineReport) {
	fmt.Printf("run %s: %s analysis of batch %s (%d artists) in %s\n",
		r.RunID, r.Kind, r.BatchID, len(r.Artists), r.Duration.Round(time.Millisecond))

	fmt.Println("\ndescriptive")
	for _, rec := range r.Descriptive.Records {
		s := rec.Stats
		fmt.Printf("  %-14s %-22s n=%-4d mean=%-10.4g sd=%-10.4g median=%-10.4g ci95=[%.4g, %.4g]\n",
			rec.Key.Artist, rec.Key.Metric, s.N, s.Mean, s.StdDev, s.Median, s.CI95Lower, s.CI95Upper)
	}

	fmt.Println("\nanova")
	for _, a := range r.Tests.ANOVA {
		fmt.Printf("  %-22s F(%d, %d)=%-10.4g p=%-10.4g eta^2=%.3f significant=%t\n",
			a.Metric, a.Result.DFBetween, a.Result.DFWithin, a.Result.FStatistic, a.Result.PValue, a.Result.EtaSquared, a.Result.Significant)
	}
	for _, m := range r.Tests.Gated {
		fmt.Printf("  %-22s pairwise tests skipped: ANOVA not significant\n", m)
	}

	fmt.Println("\npairwise")
	for _, p := range r.Tests.Pairwise {
		marker := " "
		if p.Significant {
			marker = "*"
		}
		fmt.Printf(" %s %-22s %-14s vs %-14s diff=%-10.4g t=%-9.4g p=%-10.4g adj=%-10.4g d=%.3f (%s)\n",
			marker, p.Metric, p.Artist1, p.Artist2, p.MeanDiff, p.TStatistic, p.PValue, p.AdjustedPValue, p.CohensD, p.EffectLabel())
	}

	if len(r.Skipped) > 0 {
		fmt.Println("\nskipped")
		for _, s := range r.Skipped {
			fmt.Printf("  %s: %s\n", s.Key, s.Reason)
		}
	}
}
