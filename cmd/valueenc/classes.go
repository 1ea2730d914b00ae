package main

import (
	"encoding/base64"

	"github.com/example/go-value-encoder/internal/encoder"
	"github.com/example/go-value-encoder/internal/model"
	"github.com/spf13/cobra"
)

type classesOutput struct {
	Path     string `json:"path,omitempty"`
	Mode     string `json:"mode"`
	Classes  string `json:"classes"`
	Encoding string `json:"encoding"`
	Size     int    `json:"size"`
	DType    string `json:"dtype"`
}

func newClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "Print the fitted alphabet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			enc, err := model.Load(cfg.Paths.ModelPath)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), classesView(enc, cfg.Paths.ModelPath))
		},
	}
}

func classesView(enc *encoder.Encoder, path string) classesOutput {
	classes, encoding := renderSequence(enc.Classes())

	return classesOutput{
		Path:     path,
		Mode:     enc.Mode().String(),
		Classes:  classes,
		Encoding: encoding,
		Size:     enc.Len(),
		DType:    enc.DType().String(),
	}
}

// renderSequence returns text as-is and bytes as base64, with the encoding
// name.
func renderSequence(seq encoder.Sequence) (string, string) {
	if seq.Mode() == encoder.ModeBytes {
		return base64.StdEncoding.EncodeToString(seq.Bytes()), "base64"
	}
	return seq.String(), "utf-8"
}
