package cli

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed options.schema.json
var optionsSchemaJSON string

var (
	optionsSchema    *jsonschema.Schema
	optionsSchemaErr error
	optionsOnce      sync.Once
)

func compileOptionsSchema() (*jsonschema.Schema, error) {
	optionsOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("options.schema.json", strings.NewReader(optionsSchemaJSON)); err != nil {
			optionsSchemaErr = errors.Wrap(err, "add options schema")
			return
		}
		optionsSchema, optionsSchemaErr = compiler.Compile("options.schema.json")
	})
	return optionsSchema, optionsSchemaErr
}

// validateOptions checks a decoded options document against the options
// schema. Unknown keys are allowed; known keys must have the right type.
func validateOptions(doc []byte) error {
	schema, err := compileOptionsSchema()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return errors.New(schemaMessage(ve))
		}
		return err
	}
	return nil
}

// schemaMessage flattens a validation error tree into "location: message"
// lines for the leaf causes.
func schemaMessage(ve *jsonschema.ValidationError) string {
	var lines []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			lines = append(lines, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(lines, "; ")
}

// yamlToJSON re-encodes a YAML options document as JSON so both sources
// are validated the same way.
func yamlToJSON(v any) ([]byte, error) {
	if v == nil {
		v = map[string]any{}
	}
	return json.Marshal(v)
}
