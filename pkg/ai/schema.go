package ai

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

var (
	schemaMu    sync.Mutex
	schemaCache = map[reflect.Type]*jsonschema.Schema{}
)

// GenerateSchema reflects a strict JSON schema for the type of value. Schemas
// are cached per type since every extraction request sends the same one.
func GenerateSchema(value any) any {
	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	schemaMu.Lock()
	defer schemaMu.Unlock()
	if s, ok := schemaCache[t]; ok {
		return s
	}

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := reflector.Reflect(reflect.New(t).Interface())
	schemaCache[t] = s
	return s
}

// DecodeConceptResponse parses a model answer into a ConceptResponse. Besides
// the requested object it accepts a bare array of concepts, answers wrapped
// in a markdown code fence and anything UnmarshalFlexible can repair.
func DecodeConceptResponse(answer string) (ConceptResponse, error) {
	answer = stripCodeFence(answer)

	var resp ConceptResponse
	if strings.HasPrefix(answer, "[") {
		if err := UnmarshalFlexible(answer, &resp.Concepts); err != nil {
			return ConceptResponse{}, err
		}
		return resp, nil
	}
	if err := UnmarshalFlexible(answer, &resp); err != nil {
		return ConceptResponse{}, err
	}
	return resp, nil
}

// UnmarshalFlexible decodes input into out. It falls back to decoding a JSON
// string holding the document and finally to jsonrepair for the malformed
// JSON chat models tend to produce (unquoted keys, single quotes, trailing
// commas, missing closing brackets).
//
//	UnmarshalFlexible(`{"text": "Energy"}`, &c)     // plain
//	UnmarshalFlexible(`"{\"text\": \"Energy\"}"`, &c) // double encoded
//	UnmarshalFlexible(`{text: 'Energy',}`, &c)      // repaired
func UnmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)
	if json.Unmarshal([]byte(input), out) == nil {
		return nil
	}

	var inner string
	if json.Unmarshal([]byte(input), &inner) == nil {
		inner = strings.TrimSpace(inner)
		if json.Unmarshal([]byte(inner), out) == nil {
			return nil
		}
		input = inner
	}

	input = collapseLeadingBraces(input)
	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("%w: %v (repaired: %s)", ErrMalformedResponse, err, repaired)
	}
	return nil
}

// collapseLeadingBraces turns "{ {" into "{", a frequent small model glitch.
func collapseLeadingBraces(s string) string {
	if rest, ok := strings.CutPrefix(s, "{"); ok {
		rest = strings.TrimSpace(rest)
		if strings.HasPrefix(rest, "{") {
			return rest
		}
	}
	return s
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
