package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RootLabel refers to the store root in every scenario.
const RootLabel = "root"

// Scenario is a scripted sequence of tree operations with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Root is the name of the root folder.
	Root string `yaml:"root"`

	// Locale is the collation locale; empty means the root locale.
	Locale string `yaml:"locale,omitempty"`

	// Setup builds the starting tree. Its changes are journaled but not
	// part of the trace.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow is the sequence under test.
	Flow []Step `yaml:"flow"`

	// Assertions validate the trace and the final tree.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one tree operation.
type Step struct {
	// Op is add, rename, remove, move or reload.
	Op string `yaml:"op"`

	// Parent is the folder label for add and move.
	Parent string `yaml:"parent,omitempty"`

	// Target is the item label for rename, remove and move.
	Target string `yaml:"target,omitempty"`

	// Name is the new name for add, rename and reload.
	Name string `yaml:"name,omitempty"`

	// Folder makes add create a folder instead of a recording.
	Folder bool `yaml:"folder,omitempty"`

	// As labels the item created by add or reload.
	As string `yaml:"as,omitempty"`

	// Expect checks the Change returned by the operation. A move returns
	// its added change.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected Change.
type ExpectClause struct {
	// Reason is the expected reason, or "none" when nothing may be recorded.
	Reason string `yaml:"reason"`

	// OldIndex and NewIndex are checked when set.
	OldIndex *int `yaml:"old_index,omitempty"`
	NewIndex *int `yaml:"new_index,omitempty"`
}

// Assertion validates the trace or the final tree.
type Assertion struct {
	// Type is trace_contains, trace_order, trace_count, final_state or
	// delivered.
	Type string `yaml:"type"`

	// Reason is the change reason (trace_contains, trace_count).
	Reason string `yaml:"reason,omitempty"`

	// Target is the subject label (trace_contains, optional for trace_count).
	Target string `yaml:"target,omitempty"`

	// Count is the expected number of occurrences (trace_count, delivered).
	Count int `yaml:"count,omitempty"`

	// Events is the expected order of "reason label" pairs (trace_order).
	Events []string `yaml:"events,omitempty"`

	// Folder is the folder label (final_state, delivered).
	Folder string `yaml:"folder,omitempty"`

	// Names are the expected child names in order (final_state).
	Names []string `yaml:"names,omitempty"`
}

// Operation names.
const (
	OpAdd    = "add"
	OpRename = "rename"
	OpRemove = "remove"
	OpMove   = "move"
	OpReload = "reload"
)

// ExpectNone is the ExpectClause reason for operations that record nothing.
const ExpectNone = "none"

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertDelivered     = "delivered"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(fmt.Sprintf("setup[%d]", i), step); err != nil {
			return err
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(fmt.Sprintf("flow[%d]", i), step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(where string, step Step) error {
	switch step.Op {
	case OpAdd:
		if step.Parent == "" {
			return fmt.Errorf("%s: parent is required for add", where)
		}
	case OpRename:
		if step.Target == "" {
			return fmt.Errorf("%s: target is required for rename", where)
		}
	case OpRemove:
		if step.Target == "" {
			return fmt.Errorf("%s: target is required for remove", where)
		}
	case OpMove:
		if step.Target == "" || step.Parent == "" {
			return fmt.Errorf("%s: target and parent are required for move", where)
		}
	case OpReload:
	case "":
		return fmt.Errorf("%s: op is required", where)
	default:
		return fmt.Errorf("%s: unknown op %q", where, step.Op)
	}
	if step.As == RootLabel {
		return fmt.Errorf("%s: label %q is reserved", where, RootLabel)
	}
	if step.Expect != nil && step.Expect.Reason == "" {
		return fmt.Errorf("%s.expect: reason is required", where)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Reason == "" || a.Target == "" {
			return fmt.Errorf("assertions[%d]: reason and target are required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Reason == "" {
			return fmt.Errorf("assertions[%d]: reason is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Folder == "" {
			return fmt.Errorf("assertions[%d]: folder is required for final_state", index)
		}
	case AssertDelivered:
		if a.Folder == "" {
			return fmt.Errorf("assertions[%d]: folder is required for delivered", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for delivered", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
