package insights

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

var fencePattern = regexp.MustCompile("```(?:json)?\\n?")

const payloadSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["salaryRanges", "growthRate", "demandLevel", "topSkills", "marketOutlook", "keyTrends", "recommendedSkills"],
  "properties": {
    "salaryRanges": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["role", "min", "max", "median", "location"],
        "properties": {
          "role": {"type": "string"},
          "min": {"type": "number"},
          "max": {"type": "number"},
          "median": {"type": "number"},
          "location": {"type": "string"}
        }
      }
    },
    "growthRate": {"type": "number"},
    "demandLevel": {"type": "string", "enum": ["HIGH", "MEDIUM", "LOW"]},
    "topSkills": {"type": "array", "items": {"type": "string"}},
    "marketOutlook": {"type": "string", "enum": ["POSITIVE", "NEUTRAL", "NEGATIVE"]},
    "keyTrends": {"type": "array", "items": {"type": "string"}},
    "recommendedSkills": {"type": "array", "items": {"type": "string"}}
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.NewCompiler().Compile([]byte(payloadSchema))
})

// ParseError describes why provider output could not be decoded.
type ParseError struct {
	Stage string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("insights %s: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DecodeResult holds either a payload or the reason decoding failed.
type DecodeResult struct {
	Payload Payload
	Err     *ParseError
}

// OK reports whether decoding succeeded.
func (r DecodeResult) OK() bool { return r.Err == nil }

// StripFences removes markdown code fences around provider output.
func StripFences(raw string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))
}

// Decode strips fences, validates against the payload schema and decodes
// strictly. It never panics; failures are reported through DecodeResult.Err.
func Decode(raw string) DecodeResult {
	cleaned := StripFences(raw)
	fail := func(stage string, err error) DecodeResult {
		return DecodeResult{Err: &ParseError{Stage: stage, Raw: cleaned, Err: err}}
	}
	if cleaned == "" {
		return fail("json", errors.New("empty response"))
	}

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return fail("json", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return fail("schema", fmt.Errorf("compile: %w", err))
	}
	if result := schema.Validate(doc); !result.IsValid() {
		return fail("schema", schemaErrors(result.Errors))
	}

	var payload Payload
	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return fail("decode", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fail("decode", errors.New("trailing data after JSON object"))
	}
	return DecodeResult{Payload: normalize(payload)}
}

func schemaErrors(errs map[string]*jsonschema.EvaluationError) error {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", k, errs[k].Error()))
	}
	if len(msgs) == 0 {
		return errors.New("does not match schema")
	}
	return errors.New(strings.Join(msgs, "; "))
}

func normalize(p Payload) Payload {
	if p.SalaryRanges == nil {
		p.SalaryRanges = []SalaryRange{}
	}
	p.TopSkills = nonNil(p.TopSkills)
	p.KeyTrends = nonNil(p.KeyTrends)
	p.RecommendedSkills = nonNil(p.RecommendedSkills)
	return p
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
