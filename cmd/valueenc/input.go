package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/example/go-value-encoder/internal/config"
	"github.com/example/go-value-encoder/internal/encoder"
	"github.com/example/go-value-encoder/internal/text"
)

type inputOptions struct {
	Args      []string
	File      string
	Lines     bool
	KeepEmpty bool
}

// readValues collects raw input values. Positional arguments win; otherwise
// the input file (or stdin for "" and "-") is read as one value, or as one
// value per line with Lines set.
func readValues(opts inputOptions, mode encoder.Mode, stdin io.Reader) ([]string, error) {
	if len(opts.Args) > 0 {
		return opts.Args, nil
	}

	raw, err := readSource(opts.File, stdin)
	if err != nil {
		return nil, err
	}

	if opts.Lines {
		values := text.SplitLines(string(raw), opts.KeepEmpty)
		if len(values) == 0 {
			return nil, errors.New("no input lines")
		}
		return values, nil
	}

	if mode == encoder.ModeBytes {
		if len(raw) == 0 {
			return nil, text.ErrEmptyText
		}
		return []string{string(raw)}, nil
	}

	value, err := text.Normalize(string(raw))
	if err != nil {
		return nil, err
	}

	return []string{value}, nil
}

func readSource(path string, stdin io.Reader) ([]byte, error) {
	if path != "" && path != "-" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		return b, nil
	}

	if stdin == nil {
		return nil, errors.New("no input: pass values as arguments, --input, or pipe them on stdin")
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return b, nil
}

// toSequences tags raw values with mode, applying the normalization form
// to text values.
func toSequences(values []string, mode encoder.Mode, form string) ([]encoder.Sequence, error) {
	seqs := make([]encoder.Sequence, len(values))

	for i, v := range values {
		if mode == encoder.ModeBytes {
			seqs[i] = encoder.Bytes([]byte(v))
			continue
		}

		normalized, err := text.ApplyForm(v, form)
		if err != nil {
			return nil, err
		}
		seqs[i] = encoder.Text(normalized)
	}

	return seqs, nil
}

func encoderMode(raw string) (encoder.Mode, error) {
	mode, err := config.NormalizeMode(raw)
	if err != nil {
		return 0, err
	}

	if mode == config.ModeBytes {
		return encoder.ModeBytes, nil
	}
	return encoder.ModeText, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
