package main

import (
	"fmt"
	"log/slog"

	"github.com/example/go-value-encoder/internal/encoder"
	"github.com/example/go-value-encoder/internal/model"
	"github.com/spf13/cobra"
)

type transformOutput struct {
	DType   string `json:"dtype"`
	Shape   []int  `json:"shape"`
	Indices any    `json:"indices"`
}

func newTransformCmd() *cobra.Command {
	var in inputOptions
	var batch bool
	var dtype string
	var out string
	var name string

	cmd := &cobra.Command{
		Use:   "transform [values...]",
		Short: "Encode values into symbol indices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
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

			opts := []encoder.TransformOption{
				encoder.WithCap(cfg.Encoder.Cap),
				encoder.WithMissingValue(cfg.Encoder.MissingValue),
			}
			if dtype != "" {
				d, err := encoder.ParseDType(dtype)
				if err != nil {
					return err
				}
				opts = append(opts, encoder.WithDType(d))
			}

			var arr *encoder.Array
			if batch || len(seqs) > 1 {
				arr, err = enc.TransformBatch(seqs, opts...)
			} else {
				arr, err = enc.TransformOne(seqs[0], opts...)
			}
			if err != nil {
				return fmt.Errorf("transform: %w", err)
			}

			if out != "" {
				if err := model.ExportArray(out, name, arr); err != nil {
					return fmt.Errorf("export indices: %w", err)
				}
				slog.Info("indices exported",
					slog.String("path", out),
					slog.String("dtype", arr.DType().String()),
					slog.Any("shape", arr.Shape()),
				)
				return nil
			}

			return writeJSON(cmd.OutOrStdout(), transformView(arr))
		},
	}

	cmd.Flags().StringVar(&in.File, "input", "", "Input file ('-' or empty reads stdin)")
	cmd.Flags().BoolVar(&in.Lines, "lines", false, "Treat each input line as a separate value")
	cmd.Flags().BoolVar(&in.KeepEmpty, "keep-empty", false, "Keep empty lines with --lines")
	cmd.Flags().BoolVar(&batch, "batch", false, "Use the padded batch path even for a single value")
	cmd.Flags().StringVar(&dtype, "dtype", "", "Pin the output dtype (uint8|int8|uint16|int16|uint32|int32)")
	cmd.Flags().StringVar(&out, "out", "", "Write indices to a safetensors file instead of stdout")
	cmd.Flags().StringVar(&name, "name", model.DefaultArrayName, "Tensor name used with --out")

	return cmd
}

func transformView(arr *encoder.Array) transformOutput {
	view := transformOutput{
		DType: arr.DType().String(),
		Shape: arr.Shape(),
	}
	if arr.Rank() == 1 {
		view.Indices = arr.Int64s()
	} else {
		view.Indices = arr.Rows()
	}
	return view
}
