package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/example/go-value-encoder/internal/encoder"
	"github.com/example/go-value-encoder/internal/model"
	"github.com/spf13/cobra"
)

type inverseOutput struct {
	Values   []string `json:"values"`
	Encoding string   `json:"encoding"`
}

func newInverseCmd() *cobra.Command {
	var file string
	var array string
	var name string

	cmd := &cobra.Command{
		Use:   "inverse [indices...]",
		Short: "Decode symbol indices back into values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			enc, err := model.Load(cfg.Paths.ModelPath)
			if err != nil {
				return err
			}

			var seqs []encoder.Sequence
			if array != "" {
				arr, err := model.ImportArray(array, name)
				if err != nil {
					return err
				}
				seqs, err = enc.InverseTransformArray(arr)
				if err != nil {
					return fmt.Errorf("inverse transform: %w", err)
				}
			} else {
				rows, err := readIndexRows(args, file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				seqs, err = enc.InverseTransformBatch(rows)
				if err != nil {
					return fmt.Errorf("inverse transform: %w", err)
				}
			}

			view := inverseOutput{Values: make([]string, len(seqs)), Encoding: "utf-8"}
			if enc.Mode() == encoder.ModeBytes {
				view.Encoding = "base64"
			}
			for i, seq := range seqs {
				view.Values[i], _ = renderSequence(seq)
			}

			return writeJSON(cmd.OutOrStdout(), view)
		},
	}

	cmd.Flags().StringVar(&file, "input", "", "JSON file with indices ('-' or empty reads stdin)")
	cmd.Flags().StringVar(&array, "array", "", "Safetensors file written by transform --out")
	cmd.Flags().StringVar(&name, "name", "", "Tensor name read with --array (default: first tensor)")

	return cmd
}

// readIndexRows parses indices from arguments (one row) or from JSON input
// holding a flat list or a list of rows.
func readIndexRows(args []string, file string, stdin io.Reader) ([][]int64, error) {
	if len(args) > 0 {
		row := make([]int64, len(args))
		for i, a := range args {
			v, err := strconv.ParseInt(a, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("index %q: %w", a, err)
			}
			row[i] = v
		}
		return [][]int64{row}, nil
	}

	raw, err := readSource(file, stdin)
	if err != nil {
		return nil, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("no indices given")
	}

	var rows [][]int64
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}

	var flat []int64
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, errors.New("indices must be a JSON array of integers or an array of rows")
	}

	return [][]int64{flat}, nil
}
