package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/go-value-encoder/internal/encoder"
	"github.com/example/go-value-encoder/internal/text"
)

const (
	EncodingUTF8   = "utf-8"
	EncodingBase64 = "base64"
)

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxInputBytes  int
	maxBatch       int
	workers        int
	requestTimeout time.Duration
	cap            bool
	missingValue   int64
	normalize      string
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxInputBytes:  1 << 20,
		maxBatch:       1024,
		workers:        4,
		requestTimeout: 10 * time.Second,
		missingValue:   encoder.DefaultMissingValue,
		normalize:      text.FormNone,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxInputBytes sets the maximum request body size.
func WithMaxInputBytes(n int) Option {
	return func(o *options) { o.maxInputBytes = n }
}

// WithMaxBatch sets the maximum number of values or index rows per request.
func WithMaxBatch(n int) Option {
	return func(o *options) { o.maxBatch = n }
}

// WithWorkers sets the maximum number of concurrent transform calls.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout bounds how long a request waits for a worker slot.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithCap sets the cap default for requests that do not specify one.
func WithCap(capped bool) Option {
	return func(o *options) { o.cap = capped }
}

// WithMissingValue sets the batch missing value for requests that do not
// specify one.
func WithMissingValue(v int64) Option {
	return func(o *options) { o.missingValue = v }
}

// WithNormalize applies a Unicode normalization form to text-mode input.
func WithNormalize(form string) Option {
	return func(o *options) { o.normalize = form }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	enc  Encoder
	opts options
	sem  chan struct{} // semaphore for worker pool
	log  *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, /classes,
// POST /transform and POST /inverse.
func NewHandler(enc Encoder, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		enc:  enc,
		opts: opts,
		log:  opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/classes", h.handleClasses)
	mux.HandleFunc("/transform", h.handleTransform)
	mux.HandleFunc("/inverse", h.handleInverse)
	return mux
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type classesResponse struct {
	Mode     string `json:"mode"`
	Classes  string `json:"classes"`
	Encoding string `json:"encoding"`
	Size     int    `json:"size"`
	DType    string `json:"dtype"`
}

func (h *handler) handleClasses(w http.ResponseWriter, _ *http.Request) {
	if !h.enc.Fitted() {
		writeError(w, http.StatusServiceUnavailable, encoder.ErrNotFitted.Error())
		return
	}

	classes, encoding := encodeSequence(h.enc.Classes())
	writeJSON(w, http.StatusOK, classesResponse{
		Mode:     h.enc.Mode().String(),
		Classes:  classes,
		Encoding: encoding,
		Size:     h.enc.Len(),
		DType:    h.enc.DType().String(),
	})
}

type transformRequest struct {
	Values       json.RawMessage `json:"values"`
	Encoding     string          `json:"encoding"`
	Cap          *bool           `json:"cap"`
	MissingValue *int64          `json:"missing_value"`
	DType        string          `json:"dtype"`
}

type transformResponse struct {
	DType   string `json:"dtype"`
	Shape   []int  `json:"shape"`
	Indices any    `json:"indices"`
}

func (h *handler) handleTransform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req transformRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	values, batch, err := parseValues(req.Values)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, encoder.ErrTypeMismatch) {
			status = statusFor(err)
		}
		writeError(w, status, err.Error())
		return
	}

	if batch && len(values) > h.opts.maxBatch {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("batch exceeds maximum of %d values", h.opts.maxBatch))
		return
	}

	if !h.enc.Fitted() {
		writeError(w, http.StatusServiceUnavailable, encoder.ErrNotFitted.Error())
		return
	}

	seqs, err := h.sequences(values, req.Encoding)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts, err := h.transformOptions(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	start := time.Now()

	var arr *encoder.Array
	if batch {
		arr, err = h.enc.TransformBatch(seqs, opts...)
	} else {
		arr, err = h.enc.TransformOne(seqs[0], opts...)
	}

	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		h.log.WarnContext(r.Context(), "transform failed",
			slog.Int("values", len(seqs)),
			slog.Bool("batch", batch),
			slog.Int64("duration_ms", durationMS),
			slog.String("error", err.Error()),
		)
		writeError(w, statusFor(err), err.Error())
		return
	}

	h.log.InfoContext(r.Context(), "transform complete",
		slog.Int("values", len(seqs)),
		slog.Bool("batch", batch),
		slog.String("dtype", arr.DType().String()),
		slog.Int64("duration_ms", durationMS),
	)

	resp := transformResponse{
		DType: arr.DType().String(),
		Shape: arr.Shape(),
	}
	if arr.Rank() == 1 {
		resp.Indices = arr.Int64s()
	} else {
		resp.Indices = arr.Rows()
	}

	writeJSON(w, http.StatusOK, resp)
}

type inverseRequest struct {
	Indices json.RawMessage `json:"indices"`
}

type inverseResponse struct {
	Values   []string `json:"values"`
	Encoding string   `json:"encoding"`
}

func (h *handler) handleInverse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req inverseRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	rows, err := parseIndices(req.Indices)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(rows) > h.opts.maxBatch {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("batch exceeds maximum of %d rows", h.opts.maxBatch))
		return
	}

	if !h.enc.Fitted() {
		writeError(w, http.StatusServiceUnavailable, encoder.ErrNotFitted.Error())
		return
	}

	release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	seqs, err := h.enc.InverseTransformBatch(rows)
	if err != nil {
		h.log.WarnContext(r.Context(), "inverse transform failed",
			slog.Int("rows", len(rows)),
			slog.String("error", err.Error()),
		)
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := inverseResponse{
		Values:   make([]string, len(seqs)),
		Encoding: EncodingUTF8,
	}
	if h.enc.Mode() == encoder.ModeBytes {
		resp.Encoding = EncodingBase64
	}
	for i, seq := range seqs {
		resp.Values[i], _ = encodeSequence(seq)
	}

	writeJSON(w, http.StatusOK, resp)
}

// decodeBody reads a size-limited JSON body into v. It writes the error
// response itself and reports whether decoding succeeded.
func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}

	body := http.MaxBytesReader(w, r.Body, int64(h.opts.maxInputBytes))
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("body exceeds maximum size of %d bytes", h.opts.maxInputBytes))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}

	return true
}

// acquire takes a worker slot, waiting at most the request timeout.
func (h *handler) acquire(w http.ResponseWriter, r *http.Request) (func(), bool) {
	if h.sem == nil {
		return func() {}, true
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	select {
	case h.sem <- struct{}{}:
		return func() { <-h.sem }, true
	case <-ctx.Done():
		writeError(w, http.StatusServiceUnavailable, "timed out waiting for worker")
		return nil, false
	}
}

func (h *handler) transformOptions(req transformRequest) ([]encoder.TransformOption, error) {
	capped := h.opts.cap
	if req.Cap != nil {
		capped = *req.Cap
	}

	missing := h.opts.missingValue
	if req.MissingValue != nil {
		missing = *req.MissingValue
	}

	opts := []encoder.TransformOption{
		encoder.WithCap(capped),
		encoder.WithMissingValue(missing),
	}

	if req.DType != "" {
		d, err := encoder.ParseDType(req.DType)
		if err != nil {
			return nil, err
		}
		opts = append(opts, encoder.WithDType(d))
	}

	return opts, nil
}

// sequences converts transport strings into sequences of the fitted mode.
func (h *handler) sequences(values []encoder.Sequence, encoding string) ([]encoder.Sequence, error) {
	seqs := make([]encoder.Sequence, len(values))

	for i, v := range values {
		b, err := decodeValue(v.String(), encoding)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}

		if h.enc.Mode() == encoder.ModeBytes {
			seqs[i] = encoder.Bytes(b)
			continue
		}

		normalized, err := text.ApplyForm(string(b), h.opts.normalize)
		if err != nil {
			return nil, err
		}
		seqs[i] = encoder.Text(normalized)
	}

	return seqs, nil
}

func decodeValue(s, encoding string) ([]byte, error) {
	switch encoding {
	case "", EncodingUTF8:
		return []byte(s), nil
	case EncodingBase64:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid base64: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q (want %s|%s)", encoding, EncodingUTF8, EncodingBase64)
	}
}

// parseValues accepts a JSON string (single path) or array (batch path).
// Anything that is not a string, or an array holding a non-string, is a
// type mismatch.
func parseValues(raw json.RawMessage) ([]encoder.Sequence, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false, errors.New("values field is required")
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, fmt.Errorf("invalid values: %w", err)
	}

	seqs, err := encoder.SequencesOf(v)
	if err != nil {
		return nil, false, err
	}

	_, single := v.(string)

	return seqs, !single, nil
}

// parseIndices accepts a flat index list (one row) or a list of rows.
func parseIndices(raw json.RawMessage) ([][]int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.New("indices field is required")
	}

	var rows [][]int64
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}

	var flat []int64
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, errors.New("indices must be an array of integers or an array of rows")
	}

	return [][]int64{flat}, nil
}

// encodeSequence renders a sequence for JSON: text as-is, bytes as base64.
func encodeSequence(seq encoder.Sequence) (string, string) {
	if seq.Mode() == encoder.ModeBytes {
		return base64.StdEncoding.EncodeToString(seq.Bytes()), EncodingBase64
	}

	return seq.String(), EncodingUTF8
}

// statusFor maps encoder errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, encoder.ErrNotFitted):
		return http.StatusServiceUnavailable
	case errors.Is(err, encoder.ErrUnknownSymbol),
		errors.Is(err, encoder.ErrInvalidIndex),
		errors.Is(err, encoder.ErrTypeMismatch),
		errors.Is(err, encoder.ErrConfiguration):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
