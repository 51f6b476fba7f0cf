// Package external delegates analysis to a precise out-of-process analyzer
// and converts its JSON report into the common result model. The delegation
// path is a bounded synchronous call; its first failure permanently disables
// it for the session.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/marchview/cyclomet/pkg/models"
)

// Defaults for the subprocess round trip.
const (
	DefaultTimeout        = 5 * time.Second
	DefaultMaxOutputBytes = 1 << 20
)

var errOutputTooLarge = errors.New("external analyzer output exceeds size limit")

// Client invokes the external analyzer as a subprocess with a file path as
// its sole argument and reads a single JSON report from stdout.
type Client struct {
	command    []string
	timeout    time.Duration
	maxOutput  int64
	fileSuffix string
}

// NewClient creates a client for the given command line. The analyzed file's
// path is appended as the final argument; fileSuffix (e.g. ".py") is used for
// the temporary file handed to the subprocess.
func NewClient(command []string, fileSuffix string, timeout time.Duration, maxOutput int64) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}
	return &Client{
		command:    command,
		timeout:    timeout,
		maxOutput:  maxOutput,
		fileSuffix: fileSuffix,
	}
}

// report is the versioned JSON contract printed by the subprocess.
// Positions are 1-based line / 0-based column.
type report struct {
	Success        bool             `json:"success"`
	Error          string           `json:"error,omitempty"`
	TotalFunctions int              `json:"total_functions,omitempty"`
	Functions      []functionRecord `json:"functions"`
}

type functionRecord struct {
	Name       string `json:"name"`
	IsAsync    bool   `json:"is_async"`
	Line       int    `json:"line"`
	Col        int    `json:"col"`
	EndLine    int    `json:"end_line"`
	EndCol     int    `json:"end_col"`
	Complexity int    `json:"complexity"`
}

// Analyze writes the source to a temporary file, runs the subprocess under a
// timeout, and converts the report. Non-zero exit, unparsable output,
// oversize output and timeout are all hard failures.
func (c *Client) Analyze(ctx context.Context, src []byte) ([]models.ComplexityResult, error) {
	if len(c.command) == 0 {
		return nil, errors.New("no external analyzer configured")
	}

	tmp, err := os.CreateTemp("", "cyclomet-*"+c.fileSuffix)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(src); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := append(append([]string{}, c.command[1:]...), tmp.Name())
	cmd := exec.CommandContext(ctx, c.command[0], args...)

	var stdout bytes.Buffer
	cmd.Stdout = &boundedWriter{w: &stdout, remaining: c.maxOutput}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("external analyzer timed out after %s", c.timeout)
		}
		return nil, fmt.Errorf("external analyzer failed: %w", err)
	}

	var rep report
	if err := json.Unmarshal(stdout.Bytes(), &rep); err != nil {
		return nil, fmt.Errorf("malformed external analyzer output: %w", err)
	}
	if !rep.Success {
		return nil, fmt.Errorf("external analyzer reported failure: %s", rep.Error)
	}

	return convert(rep, src), nil
}

// convert maps 1-based line / 0-based column positions to byte offsets.
func convert(rep report, src []byte) []models.ComplexityResult {
	starts := lineStartOffsets(src)
	results := make([]models.ComplexityResult, 0, len(rep.Functions))
	for _, fn := range rep.Functions {
		name := fn.Name
		if fn.IsAsync {
			name = "async " + fn.Name
		}
		complexity := fn.Complexity
		if complexity < 1 {
			complexity = 1
		}
		start := offsetAt(starts, len(src), fn.Line, fn.Col)
		end := offsetAt(starts, len(src), fn.EndLine, fn.EndCol)
		if end < start {
			end = start
		}
		results = append(results, models.ComplexityResult{
			Name:        name,
			Line:        fn.Line,
			Complexity:  complexity,
			StartOffset: start,
			EndOffset:   end,
		})
	}
	return results
}

func lineStartOffsets(src []byte) []int {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func offsetAt(starts []int, srcLen, line, col int) int {
	if line < 1 {
		line = 1
	}
	if line > len(starts) {
		return srcLen
	}
	off := starts[line-1] + col
	if off > srcLen {
		off = srcLen
	}
	if off < 0 {
		off = 0
	}
	return off
}

// boundedWriter fails the subprocess once output exceeds the cap, so a
// runaway analyzer cannot buffer unbounded data.
type boundedWriter struct {
	w         *bytes.Buffer
	remaining int64
}

func (b *boundedWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > b.remaining {
		return 0, errOutputTooLarge
	}
	b.remaining -= int64(len(p))
	return b.w.Write(p)
}
