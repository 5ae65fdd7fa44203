package harness

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE string

// SchemaError is a scenario file that does not conform to the schema.
type SchemaError struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e SchemaError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Schema validates scenario files against the embedded CUE #Scenario
// definition. A Schema is not safe for concurrent use.
type Schema struct {
	ctx *cue.Context
	def cue.Value
}

// NewSchema compiles the embedded scenario schema.
func NewSchema() (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaCUE, cue.Filename("scenario.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile scenario schema: %w", err)
	}
	def := v.LookupPath(cue.ParsePath("#Scenario"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("lookup #Scenario: %w", err)
	}
	return &Schema{ctx: ctx, def: def}, nil
}

// ValidateFile reads path and validates it.
func (s *Schema) ValidateFile(path string) []SchemaError {
	data, err := os.ReadFile(path)
	if err != nil {
		return []SchemaError{{File: path, Message: err.Error()}}
	}
	return s.Validate(path, data)
}

// Validate checks YAML scenario data against #Scenario.
// Returns all errors found; nil means the data conforms.
func (s *Schema) Validate(filename string, data []byte) []SchemaError {
	f, err := cueyaml.Extract(filename, data)
	if err != nil {
		return toSchemaErrors(filename, err)
	}

	v := s.ctx.BuildFile(f)
	if err := v.Err(); err != nil {
		return toSchemaErrors(filename, err)
	}

	if err := s.def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return toSchemaErrors(filename, err)
	}
	return nil
}

// toSchemaErrors flattens CUE errors, keeping the first position of each.
func toSchemaErrors(filename string, err error) []SchemaError {
	var out []SchemaError
	for _, e := range errors.Errors(err) {
		se := SchemaError{File: filename, Message: e.Error()}
		for _, pos := range errors.Positions(e) {
			if pos.Filename() == filename {
				se.Line = pos.Line()
				se.Column = pos.Column()
				break
			}
		}
		out = append(out, se)
	}
	if len(out) == 0 {
		out = append(out, SchemaError{File: filename, Message: err.Error()})
	}
	return out
}
