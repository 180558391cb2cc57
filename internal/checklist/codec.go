package checklist

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/agalitsyn/checklist-bot/internal/model"
)

const collectionSchemaURL = "https://checklist.local/collection.schema.json"

//go:embed collection.schema.json
var collectionSchemaSource string

var collectionSchema = jsonschema.MustCompileString(collectionSchemaURL, collectionSchemaSource)

// SchemaError points at the member of a stored value that broke the schema.
type SchemaError struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// EncodeCollection serializes c as a JSON array. An empty collection is "[]".
func EncodeCollection(c model.TaskCollection) ([]byte, error) {
	if c == nil {
		c = model.TaskCollection{}
	}
	b, err := json.Marshal(c, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("could not encode checklist: %w", err)
	}
	return b, nil
}

// DecodeCollection parses a stored value. The caller handles empty input.
func DecodeCollection(data []byte) (model.TaskCollection, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("could not parse checklist: %w", err)
	}

	if err := collectionSchema.Validate(raw); err != nil {
		return nil, schemaError(err)
	}

	var c model.TaskCollection
	if err := json.Unmarshal(data, &c, json.RejectUnknownMembers(true)); err != nil {
		return nil, fmt.Errorf("could not decode checklist: %w", err)
	}
	if c == nil {
		c = model.TaskCollection{}
	}
	return c, nil
}

func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	// the innermost cause names the offending member
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &SchemaError{
		Path:    jsonPointerToPath(ve.InstanceLocation),
		Message: ve.Message,
	}
}

func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var path string
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			path += fmt.Sprintf("[%d]", idx)
			continue
		}
		if path == "" {
			path = part
		} else {
			path += "." + part
		}
	}
	return path
}
