package models

import (
	id "veriform/pkg/domain"
	dErrors "veriform/pkg/domain-errors"
)

// Input types declared by schema authors. Declarations are loose by
// convention; storage stays permissive regardless, so unknown types are kept
// as-is rather than rejected.
const (
	InputText   = "text"
	InputNumber = "number"
	InputDate   = "date"
	InputFile   = "file"
)

// Input is one field the candidate must submit.
type Input struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
	// Group marks the input as belonging to a repeatable section; instances
	// arrive as numbered keys (group_1_name, group_2_name, ...).
	Group string `json:"group,omitempty"`
}

// Section is one ordered row of inputs in the rendered form.
type Section struct {
	Inputs []Input `json:"inputs"`
}

// FormSchema describes one verification service's form: the storage unit it
// writes to and the ordered sections of typed inputs. Immutable once loaded
// for a request.
type FormSchema struct {
	ServiceID id.ServiceID `json:"-"`
	Table     string       `json:"db_table"`
	Sections  []Section    `json:"rows"`
}

// FieldNames returns the declared input names in section order, first
// occurrence wins.
func (s *FormSchema) FieldNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, section := range s.Sections {
		for _, input := range section.Inputs {
			if input.Name == "" {
				continue
			}
			if _, ok := seen[input.Name]; ok {
				continue
			}
			seen[input.Name] = struct{}{}
			names = append(names, input.Name)
		}
	}
	return names
}

// Validate checks the structural invariants a parsed schema must satisfy
// before it can drive storage.
func (s *FormSchema) Validate() error {
	if s.Table == "" {
		return dErrors.New(dErrors.CodeSchemaCorrupt, "schema declares no storage unit")
	}
	if len(s.FieldNames()) == 0 {
		return dErrors.New(dErrors.CodeSchemaCorrupt, "schema declares no inputs")
	}
	return nil
}
