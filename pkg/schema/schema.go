package schema

import (
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
)

func generateSchema[T any]() any {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

// GradeResult is the structured verdict the LLM grader must produce when
// no authored rule matches a free-text answer.
type GradeResult struct {
	IsCorrect bool   `json:"isCorrect" jsonschema_description:"Whether the learner's answer is an acceptable response to the dialogue"`
	Reaction  string `json:"reaction" jsonschema_description:"In-character reaction to the answer, one or two sentences"`
	Feedback  string `json:"feedback" jsonschema_description:"Short teacher's note explaining why, in the learner's language"`
}

var gradeResultSchema = generateSchema[GradeResult]()

// GradeResponseFormat constrains chat completions to the GradeResult shape.
func GradeResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	p := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "grade_result",
		Description: openai.String("Grading verdict for a free-text lesson answer"),
		Schema:      gradeResultSchema,
		Strict:      openai.Bool(true),
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: p},
	}
}
