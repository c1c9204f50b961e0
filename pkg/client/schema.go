package client

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const recommendationsSchema = `{
  "type": "object",
  "required": ["recommendations"],
  "properties": {
    "screen": {"type": "integer"},
    "recommendations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["game_title", "tags"],
        "properties": {
          "ranking": {"type": "number"},
          "game_title": {"type": "string"},
          "tags": {"type": "array", "items": {"type": "string"}},
          "summary_en": {"type": "string"},
          "summary_localized": {"type": "string"},
          "grammar_focus": {"type": "string"}
        }
      }
    }
  }
}`

const gameDetailSchema = `{
  "type": "object",
  "required": ["game_title"],
  "properties": {
    "game_title": {"type": "string"},
    "tags": {"type": "array", "items": {"type": "string"}},
    "how_to_play": {"type": "array", "items": {"type": "string"}},
    "student_interactions": {"type": "array", "items": {"type": "string"}},
    "teacher_directions": {
      "type": "object",
      "required": ["simple", "medium", "complex"],
      "properties": {
        "simple": {"type": "array", "items": {"type": "string"}},
        "medium": {"type": "array", "items": {"type": "string"}},
        "complex": {"type": "array", "items": {"type": "string"}}
      }
    }
  }
}`

const imageSchema = `{
  "type": "object",
  "required": ["imageUrl"],
  "properties": {"imageUrl": {"type": "string", "minLength": 1}}
}`

var (
	recommendationsShape = mustCompile("recommendations", recommendationsSchema)
	gameDetailShape      = mustCompile("game-detail", gameDetailSchema)
	imageShape           = mustCompile("image", imageSchema)
)

func mustCompile(name, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf("https://esl-game-lab.local/schemas/%s.schema.json", name)
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return c.MustCompile(url)
}
