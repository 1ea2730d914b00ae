package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/example/go-value-encoder/internal/encoder"
	"github.com/example/go-value-encoder/internal/model"
	"github.com/spf13/cobra"
)

func newFitCmd() *cobra.Command {
	var in inputOptions
	var out string

	cmd := &cobra.Command{
		Use:   "fit [values...]",
		Short: "Fit the symbol alphabet and save the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			mode, err := encoderMode(cfg.Encoder.Mode)
			if err != nil {
				return err
			}

			in.Args = args
			values, err := readValues(in, mode, cmd.InOrStdin())
			if err != nil {
				return err
			}

			seqs, err := toSequences(values, mode, cfg.Encoder.Normalize)
			if err != nil {
				return err
			}

			enc, err := encoder.New().Fit(seqs...)
			if err != nil {
				return fmt.Errorf("fit: %w", err)
			}

			if out == "" {
				out = cfg.Paths.ModelPath
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create model dir: %w", err)
				}
			}
			if err := model.Save(out, enc); err != nil {
				return fmt.Errorf("save model: %w", err)
			}

			slog.Info("model saved",
				slog.String("path", out),
				slog.String("mode", enc.Mode().String()),
				slog.Int("classes", enc.Len()),
				slog.Int("values", len(seqs)),
			)

			return writeJSON(cmd.OutOrStdout(), classesView(enc, out))
		},
	}

	cmd.Flags().StringVar(&in.File, "input", "", "Input file ('-' or empty reads stdin)")
	cmd.Flags().BoolVar(&in.Lines, "lines", false, "Treat each input line as a separate value")
	cmd.Flags().BoolVar(&in.KeepEmpty, "keep-empty", false, "Keep empty lines with --lines")
	cmd.Flags().StringVar(&out, "out", "", "Model output path (defaults to --paths-model-path)")

	return cmd
}
