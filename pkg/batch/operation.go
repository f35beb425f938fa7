// Package batch plans output paths for many sources at once: creating write
// paths from a preset or template, and bumping existing paths to their next
// free version.
package batch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jlrickert/renderpath/pkg/pathchain"
)

// ErrNoBasePath is returned when no output template can be formed for an
// operation.
var ErrNoBasePath = errors.New("no base path: project_path is not set")

// OperationType selects what Process does with each source.
type OperationType string

const (
	CreateWrite    OperationType = "create_write"
	UpdateVersions OperationType = "update_versions"
)

// ParseOperationType accepts the canonical names plus the short forms
// "create" and "update".
func ParseOperationType(s string) (OperationType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "create", string(CreateWrite):
		return CreateWrite, nil
	case "update", string(UpdateVersions):
		return UpdateVersions, nil
	}
	return "", fmt.Errorf("unknown operation type %q", s)
}

// Source is one input to a batch: a named file path.
type Source struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Path string `json:"path" yaml:"path"`
}

// DisplayName is Name, or the cleaned element name of Path.
func (s Source) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return pathchain.CleanName(s.Path)
}

// Operation describes a batch run.
type Operation struct {
	Type    OperationType `json:"type" yaml:"type"`
	Sources []Source      `json:"sources" yaml:"sources"`

	// PresetName and CustomPath pick the output template for create_write.
	// CustomPath wins when both are set; "[read_name]" in it is replaced by
	// each source's name.
	PresetName string `json:"preset_name,omitempty" yaml:"preset_name,omitempty"`
	CustomPath string `json:"custom_path,omitempty" yaml:"custom_path,omitempty"`
	Format     string `json:"format,omitempty" yaml:"format,omitempty"`

	AutoIncrement     bool `json:"auto_increment" yaml:"auto_increment"`
	CreateDirectories bool `json:"create_directories" yaml:"create_directories"`
	DryRun            bool `json:"dry_run" yaml:"dry_run"`
}

// Result is the outcome for a single source.
type Result struct {
	Source     Source        `json:"source"`
	SourceName string        `json:"source_name"`
	Success    bool          `json:"success"`
	OutputPath string        `json:"output_path,omitempty"`
	Errors     []string      `json:"errors,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
	Duration   time.Duration `json:"duration"`
}

func (r *Result) fail(err error) {
	r.Errors = append(r.Errors, err.Error())
	r.Success = false
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// OperationResult collects the per-source results of one Process call.
type OperationResult struct {
	ID        string    `json:"id"`
	Operation Operation `json:"operation"`
	Results   []Result  `json:"results"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// Duration is the wall time of the run.
func (r *OperationResult) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

func (r *OperationResult) TotalCount() int { return len(r.Results) }

func (r *OperationResult) SuccessCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

func (r *OperationResult) FailedCount() int {
	return r.TotalCount() - r.SuccessCount()
}

// SuccessRate is the percentage of successful results, 0 for an empty run.
func (r *OperationResult) SuccessRate() float64 {
	if r.TotalCount() == 0 {
		return 0
	}
	return float64(r.SuccessCount()) / float64(r.TotalCount()) * 100
}

// Errors lists every error prefixed with its source name.
func (r *OperationResult) Errors() []string {
	var out []string
	for _, res := range r.Results {
		for _, e := range res.Errors {
			out = append(out, res.SourceName+": "+e)
		}
	}
	return out
}

// Warnings lists every warning prefixed with its source name.
func (r *OperationResult) Warnings() []string {
	var out []string
	for _, res := range r.Results {
		for _, w := range res.Warnings {
			out = append(out, res.SourceName+": "+w)
		}
	}
	return out
}
