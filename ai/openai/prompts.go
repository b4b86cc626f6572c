package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/triad/ai"
)

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "triples": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "subject": {
            "type": "string"
          },
          "subject_type": {
            "type": "string"
          },
          "predicate": {
            "type": "string"
          },
          "object": {
            "type": "string"
          },
          "object_type": {
            "type": "string"
          },
          "confidence": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
          }
        },
        "required": ["subject", "subject_type", "predicate", "object", "object_type", "confidence"],
        "additionalProperties": false
      }
    }
  },
  "required": ["triples"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `Extract factual (subject, predicate, object) statements from the given text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Subject and object are named entities mentioned in the text; keep their surface form as written.
- The predicate is a short verb phrase, lowercase, 1-3 words, e.g. "operates", "carries", "launched by".
- Type fields must match exactly one of the listed values: %s.
- Confidence is a number from 0.0 (speculative) to 1.0 (explicitly stated). Rate based on how directly the text states the relationship.
- Include only relationships that are explicitly stated or clearly implied by the text. Do not hallucinate.
- Break compound sentences into one triple per relationship.
- If no triples can be identified, return "triples": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.



Example (single relationship):
Input: "INSAT-3D is operated by ISRO."
Output:
{
  "triples": [
    {"subject":"INSAT-3D","subject_type":"satellite","predicate":"operated by","object":"ISRO","object_type":"organization","confidence":1.0}
  ]
}

Example (compound sentence):
Input: "INSAT-3D carries a six channel Imager and a nineteen channel Sounder."
Output:
{
  "triples": [
    {"subject":"INSAT-3D","subject_type":"satellite","predicate":"carries","object":"Imager","object_type":"instrument","confidence":1.0},
    {"subject":"INSAT-3D","subject_type":"satellite","predicate":"carries","object":"Sounder","object_type":"instrument","confidence":1.0}
  ]
}

Example (implied relationship, lower confidence):
Input: "The Imager provides imaging capability useful for cyclone monitoring."
Output:
{
  "triples": [
    {"subject":"Imager","subject_type":"instrument","predicate":"measures","object":"cyclone","object_type":"event","confidence":0.7}
  ]
}

Example (no extractable facts):
Input: "Further details are given in the following sections."
Output:
{
  "triples": []
}`

// buildSystemPrompt creates the system prompt with entity types embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(extractionPromptTemplate,
		extractionResponseSchema,
		strings.Join(ai.EntityTypes, ", "))
}
