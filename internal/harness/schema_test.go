package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_AcceptsScenarios(t *testing.T) {
	schema, err := NewSchema()
	require.NoError(t, err)

	files, err := FindScenarios(scenariosDir, "")
	require.NoError(t, err)
	for _, file := range files {
		assert.Empty(t, schema.ValidateFile(file), file)
	}
}

func TestSchema_Rejects(t *testing.T) {
	schema, err := NewSchema()
	require.NoError(t, err)

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown step field", "name: n\ndescription: d\nsteps:\n  - op: create\n    caller: a\n    nmae: x\nassertions:\n  - {type: record, owner: a}\n"},
		{"unknown op", "name: n\ndescription: d\nsteps:\n  - {op: delete, caller: a}\nassertions:\n  - {type: record, owner: a}\n"},
		{"empty steps", "name: n\ndescription: d\nsteps: []\nassertions:\n  - {type: record, owner: a}\n"},
		{"missing name", "description: d\nsteps:\n  - {op: create, caller: a}\nassertions:\n  - {type: record, owner: a}\n"},
		{"bad outcome", "name: n\ndescription: d\nsteps:\n  - {op: create, caller: a, expect: Boom}\nassertions:\n  - {type: record, owner: a}\n"},
		{"negative length", "name: n\ndescription: d\nsteps:\n  - {op: create, caller: a, name_length: -1}\nassertions:\n  - {type: record, owner: a}\n"},
		{"count on record", "name: n\ndescription: d\nsteps:\n  - {op: create, caller: a}\nassertions:\n  - {type: record, owner: a, count: 1}\n"},
		{"bad label", "name: n\ndescription: d\nsteps:\n  - {op: create, caller: 'a b'}\nassertions:\n  - {type: record, owner: a}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := schema.Validate("scenario.yaml", []byte(tt.yaml))
			assert.NotEmpty(t, errs)
		})
	}
}

func TestSchema_ReportsPosition(t *testing.T) {
	schema, err := NewSchema()
	require.NoError(t, err)

	errs := schema.ValidateFile("testdata/invalid/bad_op.yaml")
	require.NotEmpty(t, errs)
	assert.Equal(t, "testdata/invalid/bad_op.yaml", errs[0].File)
	assert.Contains(t, errs[0].Error(), "testdata/invalid/bad_op.yaml")
}

func TestSchema_MissingFile(t *testing.T) {
	schema, err := NewSchema()
	require.NoError(t, err)

	errs := schema.ValidateFile("testdata/nope.yaml")
	require.Len(t, errs, 1)
	assert.Zero(t, errs[0].Line)
}

func TestSchemaError_Error(t *testing.T) {
	assert.Equal(t, "f.yaml:3:7: bad", SchemaError{File: "f.yaml", Line: 3, Column: 7, Message: "bad"}.Error())
	assert.Equal(t, "f.yaml: bad", SchemaError{File: "f.yaml", Message: "bad"}.Error())
}
