package main

import (
	"errors"
	"fmt"

	"github.com/example/go-value-encoder/internal/config"
	"github.com/example/go-value-encoder/internal/doctor"
	"github.com/example/go-value-encoder/internal/model"
	"github.com/example/go-value-encoder/internal/server"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run configuration and model checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			dcfg := doctor.Config{
				Settings:  settingChecks(cfg),
				ModelPath: cfg.Paths.ModelPath,
				LoadModel: describeModel,
			}
			if addr != "" {
				dcfg.ServerAddr = addr
				dcfg.ProbeServer = server.ProbeHTTP
			}

			out := cmd.OutOrStdout()
			result := doctor.Run(dcfg, out)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}
				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Also probe a running server at host:port")

	return cmd
}

func settingChecks(cfg config.Config) []doctor.Check {
	return []doctor.Check{
		{Name: "log level", Run: func() (string, error) {
			lvl, err := server.ParseLogLevel(cfg.LogLevel)
			return lvl.String(), err
		}},
		{Name: "mode", Run: func() (string, error) {
			return config.NormalizeMode(cfg.Encoder.Mode)
		}},
		{Name: "normalize", Run: func() (string, error) {
			return config.NormalizeForm(cfg.Encoder.Normalize)
		}},
		{Name: "server limits", Run: func() (string, error) {
			s := cfg.Server
			if s.Workers < 1 || s.MaxBatch < 1 || s.MaxInputBytes < 1 {
				return "", fmt.Errorf("workers, max-batch and max-input-bytes must be positive")
			}
			return fmt.Sprintf("%d workers, batch %d, %d bytes", s.Workers, s.MaxBatch, s.MaxInputBytes), nil
		}},
	}
}

func describeModel(path string) (string, error) {
	enc, err := model.Load(path)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s, %d classes, %s", enc.Mode(), enc.Len(), enc.DType()), nil
}
