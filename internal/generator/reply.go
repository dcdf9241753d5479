package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// objectSpan matches from the first '{' to the last '}' across newlines.
var objectSpan = regexp.MustCompile(`(?s)\{.*\}`)

var errNoObject = errors.New("generator: reply contains no JSON object")

// Reply is a model answer scanned for an embedded JSON object: either Parsed
// with Fields decoded, or unparsed with only Raw available.
type Reply[T any] struct {
	Fields T
	Raw    string
	parsed bool
}

func (r Reply[T]) Parsed() bool {
	return r.parsed
}

// parseReply extracts the first object span from raw, validates it against
// schema and decodes it into T. The returned error explains an unparsed reply.
func parseReply[T any](raw string, schema *gojsonschema.Schema) (Reply[T], error) {
	out := Reply[T]{Raw: raw}
	span := objectSpan.FindString(raw)
	if span == "" {
		return out, errNoObject
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(span))
	if err != nil {
		return out, fmt.Errorf("generator: decode reply: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return out, fmt.Errorf("generator: reply does not match schema: %s", strings.Join(msgs, "; "))
	}

	if err := json.Unmarshal([]byte(span), &out.Fields); err != nil {
		return out, fmt.Errorf("generator: decode reply: %w", err)
	}
	out.parsed = true
	return out, nil
}

func mustSchema(doc string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("generator: invalid schema: %v", err))
	}
	return s
}

var topicSchema = mustSchema(`{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"hook": {"type": "string"},
		"angle": {"type": "string"},
		"engagement_question": {"type": "string"}
	},
	"required": ["title"]
}`)

var hashtagSchema = mustSchema(`{
	"type": "object",
	"properties": {
		"primary_hashtags": {"type": "array", "items": {"type": "string"}},
		"alternative_hashtags": {"type": "array", "items": {"type": "string"}},
		"strategy": {"type": "string"},
		"reach_prediction": {"type": "string"}
	},
	"required": ["primary_hashtags"]
}`)
