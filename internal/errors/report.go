package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Span is a byte-and-line location range in a single source file. It is
// intentionally independent of the cst/ast packages so that errors has no
// import back-edge onto them; callers convert their own span types into
// this one at the point a Report is built.
type Span struct {
	File        string `json:"file"`
	StartLine   int    `json:"start_line"`
	StartColumn int    `json:"start_column"`
	StartOffset int    `json:"start_offset"`
	EndLine     int    `json:"end_line"`
	EndColumn   int    `json:"end_column"`
	EndOffset   int    `json:"end_offset"`
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.StartLine, s.StartColumn)
}

// Fix is a suggested remediation attached to a Report.
type Fix struct {
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// Report is the canonical structured diagnostic produced by every phase
// of the pipeline: parse, lower, typecheck, codegen, build.
type Report struct {
	Schema  string         `json:"schema"`
	Code    string         `json:"code"`
	Phase   string         `json:"phase"`
	Message string         `json:"message"`
	Span    *Span          `json:"span,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Fix     *Fix           `json:"fix,omitempty"`
}

const schemaVersion = "ditto.diagnostic/v1"

// New builds a Report with the standard schema tag.
func New(phase, code, message string, span *Span) *Report {
	return &Report{
		Schema:  schemaVersion,
		Phase:   phase,
		Code:    code,
		Message: message,
		Span:    span,
	}
}

// WithData attaches structured context data and returns the Report for
// chaining.
func (r *Report) WithData(data map[string]any) *Report {
	r.Data = data
	return r
}

// WithFix attaches a suggested fix and returns the Report for chaining.
func (r *Report) WithFix(suggestion string, confidence float64) *Report {
	r.Fix = &Fix{Suggestion: suggestion, Confidence: confidence}
	return r
}

// ReportError wraps a Report so it survives errors.As unwrapping while
// still satisfying the error interface.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	if e.Rep.Span != nil {
		return fmt.Sprintf("%s: %s: %s", e.Rep.Span, e.Rep.Code, e.Rep.Message)
	}
	return fmt.Sprintf("%s: %s", e.Rep.Code, e.Rep.Message)
}

// AsReport extracts a *Report from an error chain, if present.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// Wrap turns a Report into an error. Callers should return
// errors.Wrap(report) rather than constructing ReportError directly.
func Wrap(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON renders the Report as a single JSON object.
func (r *Report) ToJSON() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
