package api

import (
	"fmt"
	"strings"

	"github.com/pywhiz/pywhiz/internal/domain"
	"github.com/xeipuuv/gojsonschema"
)

const milestoneListSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "title", "order"],
    "properties": {
      "id":        {"type": "string", "minLength": 1},
      "title":     {"type": "string"},
      "order":     {"type": "integer", "minimum": 1},
      "is_active": {"type": "boolean"}
    }
  }
}`

const learnContentSchema = `{
  "definitions": {
    "content": {
      "type": "object",
      "required": ["video_url"],
      "properties": {
        "video_url":     {"type": "string"},
        "order":         {"type": "integer"},
        "is_additional": {"type": "boolean"}
      }
    }
  },
  "anyOf": [
    {"$ref": "#/definitions/content"},
    {"type": "array", "items": {"$ref": "#/definitions/content"}}
  ]
}`

const codeQuestionListSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "question"],
    "properties": {
      "id":           {"type": "string", "minLength": 1},
      "question":     {"type": "string"},
      "example_code": {"type": "string"}
    }
  }
}`

const mcqListSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "question_text", "options"],
    "properties": {
      "id":            {"type": "string", "minLength": 1},
      "question_text": {"type": "string"},
      "options": {
        "type": "object",
        "minProperties": 2,
        "additionalProperties": {"type": "string"}
      },
      "order": {"type": "integer"}
    }
  }
}`

var (
	milestoneSchema    = mustSchema(milestoneListSchema)
	learnSchema        = mustSchema(learnContentSchema)
	codeQuestionSchema = mustSchema(codeQuestionListSchema)
	mcqSchema          = mustSchema(mcqListSchema)
)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return schema
}

// validate checks a payload against a schema. Malformed curriculum records
// surface as domain.ErrContentUnavailable.
func validate(schema *gojsonschema.Schema, what string, data []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrContentUnavailable, what, err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("%w: malformed %s: %s", domain.ErrContentUnavailable, what, strings.Join(problems, "; "))
}
