package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/go-value-encoder/internal/config"
	"github.com/example/go-value-encoder/internal/encoder"
	"github.com/example/go-value-encoder/internal/model"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Encoder is the part of *encoder.Encoder the handler needs.
type Encoder interface {
	Fitted() bool
	Mode() encoder.Mode
	Len() int
	DType() encoder.DType
	Classes() encoder.Sequence
	TransformOne(seq encoder.Sequence, opts ...encoder.TransformOption) (*encoder.Array, error)
	TransformBatch(seqs []encoder.Sequence, opts ...encoder.TransformOption) (*encoder.Array, error)
	InverseTransformBatch(rows [][]int64) ([]encoder.Sequence, error)
}

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	enc             *encoder.Encoder
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// New returns a Server. A nil enc is loaded from cfg.Paths.ModelPath on Start.
func New(cfg config.Config, enc *encoder.Encoder) *Server {
	timeout := 30 * time.Second
	if cfg.Server.ShutdownTimeout > 0 {
		timeout = time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	}

	return &Server{
		cfg:             cfg,
		enc:             enc,
		logger:          slog.Default(),
		shutdownTimeout: timeout,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// WithLog overrides the logger used by the server and its handler.
func (s *Server) WithLog(l *slog.Logger) *Server {
	s.logger = l
	return s
}

// Handler builds the request handler from the server config.
func (s *Server) Handler() (http.Handler, error) {
	enc, err := s.encoder()
	if err != nil {
		return nil, err
	}

	form, err := config.NormalizeForm(s.cfg.Encoder.Normalize)
	if err != nil {
		return nil, err
	}

	return NewHandler(enc,
		WithWorkers(s.cfg.Server.Workers),
		WithMaxInputBytes(s.cfg.Server.MaxInputBytes),
		WithMaxBatch(s.cfg.Server.MaxBatch),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithCap(s.cfg.Encoder.Cap),
		WithMissingValue(s.cfg.Encoder.MissingValue),
		WithNormalize(form),
		WithLogger(s.logger),
	), nil
}

func (s *Server) Start(ctx context.Context) error {
	h, err := s.Handler()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.Info("listening", slog.String("addr", s.cfg.Server.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

// encoder returns the injected encoder or loads the model file. A missing
// model file yields an unfitted encoder so transforms answer 503 until a
// model is provided.
func (s *Server) encoder() (*encoder.Encoder, error) {
	if s.enc != nil {
		return s.enc, nil
	}

	enc, err := model.Load(s.cfg.Paths.ModelPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("model not found; serving unfitted encoder",
				slog.String("path", s.cfg.Paths.ModelPath),
			)
			return encoder.New(), nil
		}
		return nil, fmt.Errorf("load model: %w", err)
	}

	s.logger.Info("model loaded",
		slog.String("path", s.cfg.Paths.ModelPath),
		slog.String("mode", enc.Mode().String()),
		slog.Int("classes", enc.Len()),
	)

	return enc, nil
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}
