package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidReport is returned by [ValidateReport] for documents that do not
// match [ReportSchema].
var ErrInvalidReport = errors.New("report does not match schema")

// jsonSchema is the subset of JSON Schema the report generator emits.
type jsonSchema struct {
	Schema      string                 `json:"$schema,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Type        string                 `json:"type,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Properties  map[string]*jsonSchema `json:"properties,omitempty"`
	Items       *jsonSchema            `json:"items,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Ref         string                 `json:"$ref,omitempty"`
	Definitions map[string]*jsonSchema `json:"definitions,omitempty"`
}

var fileStatusType = reflect.TypeOf(FileStatus(""))

// ReportSchema returns the JSON schema of a JSON report, derived from the
// json tags of [Summary].
func ReportSchema() ([]byte, error) {
	defs := make(map[string]*jsonSchema)
	props, required := structToProperties(reflect.TypeOf(Summary{}), defs)

	schema := &jsonSchema{
		Schema:      "http://json-schema.org/draft-07/schema#",
		Title:       "schemaconv report",
		Description: "Per-file outcome and totals of a batch conversion",
		Type:        "object",
		Properties:  props,
		Required:    required,
		Definitions: defs,
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report schema: %w", err)
	}

	return append(data, '\n'), nil
}

// ValidateReport checks a JSON report against [ReportSchema].
func ValidateReport(report []byte) error {
	schema, err := ReportSchema()
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(report))
	if err != nil {
		return fmt.Errorf("validate report: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, verr.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidReport, strings.Join(problems, "; "))
}

func structToProperties(t reflect.Type, defs map[string]*jsonSchema) (map[string]*jsonSchema, []string) {
	props := make(map[string]*jsonSchema)

	var required []string

	for idx := range t.NumField() {
		field := t.Field(idx)

		name, opts, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			continue
		}

		props[name] = typeToSchema(field.Type, defs)

		if opts != "omitempty" {
			required = append(required, name)
		}
	}

	return props, required
}

func typeToSchema(t reflect.Type, defs map[string]*jsonSchema) *jsonSchema {
	if t == fileStatusType {
		return &jsonSchema{
			Type: "string",
			Enum: []string{string(FileConverted), string(FileUnchanged), string(FileSkipped), string(FileFailed)},
		}
	}

	switch t.Kind() {
	case reflect.String:
		return &jsonSchema{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &jsonSchema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &jsonSchema{Type: "number"}
	case reflect.Bool:
		return &jsonSchema{Type: "boolean"}
	case reflect.Slice:
		return &jsonSchema{Type: "array", Items: typeToSchema(t.Elem(), defs)}
	case reflect.Struct:
		if _, exists := defs[t.Name()]; !exists {
			// Reserve the name first so recursive types terminate.
			defs[t.Name()] = &jsonSchema{}
			props, required := structToProperties(t, defs)
			defs[t.Name()] = &jsonSchema{Type: "object", Properties: props, Required: required}
		}

		return &jsonSchema{Ref: "#/definitions/" + t.Name()}
	case reflect.Ptr:
		return typeToSchema(t.Elem(), defs)
	default:
		return &jsonSchema{}
	}
}
