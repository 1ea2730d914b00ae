package main

import (
	"fmt"
	"io"
	"time"

	"github.com/example/go-value-encoder/internal/bench"
	"github.com/example/go-value-encoder/internal/encoder"
	"github.com/example/go-value-encoder/internal/model"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		in            inputOptions
		runs          int
		format        string
		minThroughput float64
	)

	cmd := &cobra.Command{
		Use:   "bench [values...]",
		Short: "Benchmark transform latency and throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			enc, err := model.Load(cfg.Paths.ModelPath)
			if err != nil {
				return err
			}

			in.Args = args
			values, err := readValues(in, enc.Mode(), cmd.InOrStdin())
			if err != nil {
				return err
			}

			seqs, err := toSequences(values, enc.Mode(), cfg.Encoder.Normalize)
			if err != nil {
				return err
			}

			results, err := runBench(enc, seqs, runs,
				encoder.WithCap(cfg.Encoder.Cap),
				encoder.WithMissingValue(cfg.Encoder.MissingValue),
			)
			if err != nil {
				return err
			}

			stats := bench.ComputeStats(bench.Durations(results))
			writeBench(cmd.OutOrStdout(), format, results, stats)

			return bench.CheckThroughputThreshold(bench.MeanThroughput(results), minThroughput)
		},
	}

	cmd.Flags().StringVar(&in.File, "input", "", "Input file ('-' or empty reads stdin)")
	cmd.Flags().BoolVar(&in.Lines, "lines", false, "Treat each input line as a separate value")
	cmd.Flags().BoolVar(&in.KeepEmpty, "keep-empty", false, "Keep empty lines with --lines")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of transform runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&minThroughput, "min-throughput", 0, "Exit non-zero if mean symbols/s falls below this value (0 = disabled)")

	return cmd
}

// runBench transforms seqs through the batch path once per run.
func runBench(enc *encoder.Encoder, seqs []encoder.Sequence, runs int, opts ...encoder.TransformOption) ([]bench.RunResult, error) {
	symbols := 0
	for _, s := range seqs {
		symbols += s.Len()
	}

	results := make([]bench.RunResult, 0, runs)

	for i := range runs {
		start := time.Now()
		if _, err := enc.TransformBatch(seqs, opts...); err != nil {
			return nil, fmt.Errorf("run %d failed: %w", i+1, err)
		}
		dur := time.Since(start)

		results = append(results, bench.RunResult{
			Index:      i,
			Cold:       i == 0,
			Duration:   dur,
			Symbols:    symbols,
			Throughput: bench.CalcThroughput(symbols, dur),
		})
	}

	return results, nil
}

func writeBench(w io.Writer, format string, runs []bench.RunResult, stats bench.Stats) {
	if format == "json" {
		bench.FormatJSON(runs, stats, w)
		return
	}
	bench.FormatTable(runs, stats, w)
}
