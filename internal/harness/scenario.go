package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/flexstore/internal/filter"
	"github.com/roach88/flexstore/internal/query"
	"github.com/roach88/flexstore/internal/schema"
)

// Scenario defines a conformance test scenario: a fixture, one query and
// its expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixture is the path of the fixture to seed, relative to the scenario
	// file once loaded through LoadScenario.
	Fixture string `yaml:"fixture"`

	// Language overrides the search language (BCP 47). Default: en.
	Language string `yaml:"language,omitempty"`

	// Entries runs an entries listing. Exclusive with Collections.
	Entries *EntriesQuery `yaml:"entries,omitempty"`

	// Collections runs a collections page. Exclusive with Entries.
	Collections *query.CollectionsQuery `yaml:"collections,omitempty"`

	// Expect is the outcome the query must produce.
	Expect Expect `yaml:"expect"`
}

// EntriesQuery lists the entries of a collection named in the fixture.
type EntriesQuery struct {
	Collection string              `yaml:"collection"`
	Filters    filter.EntryFilters `yaml:"filters,omitempty"`
	Order      string              `yaml:"order,omitempty"`
}

// Expect is the expected outcome of a scenario.
//
// Entries and Collections are compared as ordered name lists. Error names
// the error code the query must fail with; when set, no result is expected.
type Expect struct {
	Entries     *[]string        `yaml:"entries,omitempty"`
	Collections *[]string        `yaml:"collections,omitempty"`
	NumItems    *int             `yaml:"num_items,omitempty"`
	NumPages    *int             `yaml:"num_pages,omitempty"`
	Index       *int             `yaml:"index,omitempty"`
	Size        *int             `yaml:"size,omitempty"`
	Error       schema.ErrorCode `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. The fixture path is
// resolved relative to the scenario file. Unknown keys are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "filter:" vs "filters:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Fixture != "" && !filepath.IsAbs(scenario.Fixture) {
		scenario.Fixture = filepath.Join(filepath.Dir(path), scenario.Fixture)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Fixture == "" {
		return fmt.Errorf("fixture is required")
	}
	if _, err := os.Stat(s.Fixture); os.IsNotExist(err) {
		return fmt.Errorf("fixture file not found: %s", s.Fixture)
	}

	switch {
	case s.Entries == nil && s.Collections == nil:
		return fmt.Errorf("one of entries or collections is required")
	case s.Entries != nil && s.Collections != nil:
		return fmt.Errorf("entries and collections are mutually exclusive")
	}

	if s.Entries != nil {
		if s.Entries.Collection == "" {
			return fmt.Errorf("entries.collection is required")
		}
		if _, err := filter.ParseOrderBy(s.Entries.Order); err != nil {
			return fmt.Errorf("entries.order: %w", err)
		}
	}

	e := s.Expect
	if e.Error == "" && e.Entries == nil && e.Collections == nil {
		return fmt.Errorf("expect requires entries, collections or error")
	}
	if e.Error != "" && (e.Entries != nil || e.Collections != nil) {
		return fmt.Errorf("expect.error excludes expected results")
	}
	if s.Entries != nil && e.Collections != nil {
		return fmt.Errorf("expect.collections requires a collections query")
	}
	if s.Collections != nil && e.Entries != nil {
		return fmt.Errorf("expect.entries requires an entries query")
	}

	return nil
}
