// Package aicontract models the payload attached to AI-generated
// elements: an HTML template with {{token}} placeholders, the token
// default values, and the subset of tokens exposed for editing.
package aicontract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

// EditablePropTypes lists the editor control kinds a generated payload
// may declare for a token.
var EditablePropTypes = map[string]bool{
	"text":   true,
	"number": true,
	"color":  true,
}

type EditableProp struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Payload is the decoded contract. Raw keeps the exact bytes it was
// decoded from so storage can round-trip them unchanged.
type Payload struct {
	Template      string            `json:"aiTemplate"`
	Properties    map[string]string `json:"properties"`
	EditableProps []EditableProp    `json:"editableProps"`
	Script        string            `json:"script,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// payloadAliases tolerates the two template key spellings generators
// have produced.
type payloadAliases struct {
	AiTemplate    string            `json:"aiTemplate"`
	Template      string            `json:"template"`
	Properties    map[string]string `json:"properties"`
	EditableProps []EditableProp    `json:"editableProps"`
	Script        string            `json:"script"`
}

// Decode parses and shape-checks a payload. Unknown top-level keys are
// ignored. Token closure is deliberately not enforced here; callers who
// care use CheckClosure.
func Decode(raw []byte) (Payload, error) {
	var aliased payloadAliases
	if err := json.Unmarshal(raw, &aliased); err != nil {
		return Payload{}, fmt.Errorf("payload is not valid JSON: %w", err)
	}

	template := aliased.AiTemplate
	if template == "" {
		template = aliased.Template
	}
	if template == "" {
		return Payload{}, fmt.Errorf("payload is missing aiTemplate")
	}

	for i, prop := range aliased.EditableProps {
		if prop.Key == "" {
			return Payload{}, fmt.Errorf("editableProps[%d] is missing key", i)
		}
		if !EditablePropTypes[prop.Type] {
			return Payload{}, fmt.Errorf("editableProps[%d] has unsupported type %q", i, prop.Type)
		}
	}

	payload := Payload{
		Template:      template,
		Properties:    aliased.Properties,
		EditableProps: aliased.EditableProps,
		Script:        aliased.Script,
		Raw:           append(json.RawMessage(nil), raw...),
	}
	if payload.Properties == nil {
		payload.Properties = map[string]string{}
	}
	return payload, nil
}

var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// Tokens returns the placeholder names referenced by the template, in
// first-appearance order with duplicates removed.
func Tokens(template string) []string {
	seen := map[string]bool{}
	tokens := make([]string, 0)
	for _, match := range tokenPattern.FindAllStringSubmatch(template, -1) {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			tokens = append(tokens, name)
		}
	}
	return tokens
}

// ClosureReport describes how a payload's tokens and bindings line up.
type ClosureReport struct {
	// MissingProperties are template tokens with no value in properties.
	MissingProperties []string `json:"missing_properties,omitempty"`
	// UnusedProperties are property keys no token references.
	UnusedProperties []string `json:"unused_properties,omitempty"`
	// UnknownEditableKeys are editableProps keys absent from properties.
	UnknownEditableKeys []string `json:"unknown_editable_keys,omitempty"`
}

func (r ClosureReport) Closed() bool {
	return len(r.MissingProperties) == 0 && len(r.UnusedProperties) == 0 && len(r.UnknownEditableKeys) == 0
}

// CheckClosure diagnoses mismatches between the template's tokens, the
// property bindings, and the editable keys. It reports; it never fails.
func CheckClosure(payload Payload) ClosureReport {
	var report ClosureReport

	referenced := map[string]bool{}
	for _, token := range Tokens(payload.Template) {
		referenced[token] = true
		if _, ok := payload.Properties[token]; !ok {
			report.MissingProperties = append(report.MissingProperties, token)
		}
	}

	for key := range payload.Properties {
		if !referenced[key] {
			report.UnusedProperties = append(report.UnusedProperties, key)
		}
	}
	sort.Strings(report.UnusedProperties)

	for _, prop := range payload.EditableProps {
		if _, ok := payload.Properties[prop.Key]; !ok {
			report.UnknownEditableKeys = append(report.UnknownEditableKeys, prop.Key)
		}
	}

	return report
}

// Render substitutes the payload's property values into the template.
// Tokens with no binding are left in place.
func Render(payload Payload) string {
	return tokenPattern.ReplaceAllStringFunc(payload.Template, func(match string) string {
		name := tokenPattern.FindStringSubmatch(match)[1]
		if value, ok := payload.Properties[name]; ok {
			return value
		}
		return match
	})
}
