// Package doctor provides environment preflight checks for valueenc.
package doctor

import (
	"fmt"
	"io"
	"os"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Check is one named validation. Run returns a short detail on success.
type Check struct {
	Name string
	Run  func() (string, error)
}

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// Settings validate configuration values before any file is touched.
	Settings []Check
	// ModelPath is the fitted model file to verify.
	ModelPath string
	// LoadModel opens ModelPath and returns a one-line summary.
	LoadModel func(path string) (string, error)
	// ServerAddr is probed with ProbeServer when both are set.
	ServerAddr  string
	ProbeServer func(addr string) error
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- settings ---------------------------------------------------------
	for _, c := range cfg.Settings {
		detail, err := c.Run()
		if err != nil {
			res.fail(fmt.Sprintf("%s: %v", c.Name, err))
			fmt.Fprintf(w, "%s %s: %v\n", FailMark, c.Name, err)
			continue
		}
		fmt.Fprintf(w, "%s %s: %s\n", PassMark, c.Name, detail)
	}

	// ---- model file -------------------------------------------------------
	if cfg.ModelPath != "" {
		if _, err := os.Stat(cfg.ModelPath); err != nil {
			res.fail(fmt.Sprintf("model file %q: %v", cfg.ModelPath, err))
			fmt.Fprintf(w, "%s model file %s: not found\n", FailMark, cfg.ModelPath)
		} else if cfg.LoadModel != nil {
			summary, err := cfg.LoadModel(cfg.ModelPath)
			if err != nil {
				res.fail(fmt.Sprintf("model file %q: %v", cfg.ModelPath, err))
				fmt.Fprintf(w, "%s model file %s: %v\n", FailMark, cfg.ModelPath, err)
			} else {
				fmt.Fprintf(w, "%s model file: %s (%s)\n", PassMark, cfg.ModelPath, summary)
			}
		} else {
			fmt.Fprintf(w, "%s model file: %s\n", PassMark, cfg.ModelPath)
		}
	}

	// ---- server -----------------------------------------------------------
	if cfg.ServerAddr == "" || cfg.ProbeServer == nil {
		fmt.Fprintf(w, "%s server: skipped\n", PassMark)
	} else if err := cfg.ProbeServer(cfg.ServerAddr); err != nil {
		res.fail(fmt.Sprintf("server %s: %v", cfg.ServerAddr, err))
		fmt.Fprintf(w, "%s server %s: %v\n", FailMark, cfg.ServerAddr, err)
	} else {
		fmt.Fprintf(w, "%s server: %s\n", PassMark, cfg.ServerAddr)
	}

	return res
}
