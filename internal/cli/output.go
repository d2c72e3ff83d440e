package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/ripkitten-co/backfill/internal/codecs"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // check failed, e.g. an inconsistent broadcast
	ExitCommandError = 2 // bad arguments, config or database errors
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code     int
	Message  string
	Err      error
	Reported bool // output already describes the failure
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// GetExitCode extracts the exit code from an error. Errors that are not an
// ExitError are command errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// Response is the JSON envelope written in --format json.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	codec     codecs.Codec
}

func newFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		codec:     codecs.NewJSONIter(),
	}
}

// JSON reports whether results are written as JSON.
func (f *OutputFormatter) JSON() bool { return f.Format == "json" }

// Success writes data. In text mode data is printed with fmt, so result types
// implement fmt.Stringer for their human-readable form.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return codecs.Encode(f.Writer, f.codec, Response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Failure writes err and returns it so callers can `return f.Failure(err)`.
func (f *OutputFormatter) Failure(err error) error {
	if f.JSON() {
		if encErr := codecs.Encode(f.Writer, f.codec, Response{Status: "error", Error: err.Error()}); encErr != nil {
			return errors.Join(err, encErr)
		}
		return err
	}
	_, _ = fmt.Fprintf(f.ErrWriter, "Error: %v\n", err)
	return err
}

// Progress returns where per-broadcast progress lines go: stdout for text,
// stderr for JSON so the document on stdout stays parseable.
func (f *OutputFormatter) Progress() io.Writer {
	if f.JSON() {
		return f.ErrWriter
	}
	return f.Writer
}
