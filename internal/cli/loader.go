package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/flexstore/internal/filter"
)

// LoadError represents an error that occurred while loading an input
// document.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadFilters reads an entry filter document. The format follows the file
// extension: .yaml/.yml, .json or .cue. Unknown keys are rejected in YAML
// and JSON; CUE documents must be concrete.
func LoadFilters(path string) (*filter.EntryFilters, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "filters file not found"}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Path: path, Message: err.Error()}
	}

	var filters filter.EntryFilters
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = decodeYAML(data, &filters)
	case ".json":
		err = decodeJSON(data, &filters)
	case ".cue":
		err = decodeCUE(path, data, &filters)
	default:
		return nil, &LoadError{
			Code:    ErrCodeInvalidInput,
			Path:    path,
			Message: fmt.Sprintf("unsupported filters format %q (want .yaml, .json or .cue)", ext),
		}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidInput, Path: path, Message: err.Error()}
	}
	return &filters, nil
}

func decodeYAML(data []byte, v any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func decodeJSON(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// decodeCUE evaluates a single CUE file and decodes its concrete value.
// Decode follows the json struct tags of the target.
func decodeCUE(path string, data []byte, v any) error {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return fmt.Errorf("failed to compile CUE: %w", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("CUE value is not concrete: %w", err)
	}
	if err := value.Decode(v); err != nil {
		return fmt.Errorf("failed to decode CUE: %w", err)
	}
	return nil
}
