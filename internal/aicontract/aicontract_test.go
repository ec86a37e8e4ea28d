package aicontract

import (
	"bytes"
	"reflect"
	"testing"
)

const samplePayload = `{
	"aiTemplate": "<div style=\"background: {{bgColor}}\"><h2>{{headlineText}}</h2><p>{{bodyText}}</p></div>",
	"properties": {"bgColor": "#1a1a2e", "headlineText": "Fresh Pasta Daily", "bodyText": "Made in house every morning."},
	"editableProps": [
		{"key": "headlineText", "label": "Headline", "type": "text"},
		{"key": "bgColor", "label": "Background", "type": "color"}
	]
}`

func TestDecodeSample(t *testing.T) {
	payload, err := Decode([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.Template == "" {
		t.Fatal("expected template")
	}
	if payload.Properties["headlineText"] != "Fresh Pasta Daily" {
		t.Fatalf("properties = %v", payload.Properties)
	}
	if len(payload.EditableProps) != 2 {
		t.Fatalf("editableProps = %v", payload.EditableProps)
	}
	if !bytes.Equal(payload.Raw, []byte(samplePayload)) {
		t.Fatal("Raw should hold the original bytes")
	}
}

func TestDecodeTemplateAlias(t *testing.T) {
	payload, err := Decode([]byte(`{"template": "<div>{{x}}</div>", "properties": {"x": "1"}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.Template != "<div>{{x}}</div>" {
		t.Fatalf("template = %q", payload.Template)
	}
}

func TestDecodeRejectsMissingTemplate(t *testing.T) {
	if _, err := Decode([]byte(`{"properties": {}}`)); err == nil {
		t.Fatal("expected error for missing template")
	}
}

func TestDecodeRejectsBadEditableType(t *testing.T) {
	raw := `{"aiTemplate": "<div>{{x}}</div>", "editableProps": [{"key": "x", "label": "X", "type": "slider"}]}`
	if _, err := Decode([]byte(raw)); err == nil {
		t.Fatal("expected error for unsupported editable type")
	}
}

func TestDecodeIgnoresUnknownKeys(t *testing.T) {
	raw := `{"aiTemplate": "<div></div>", "futureField": {"nested": true}}`
	if _, err := Decode([]byte(raw)); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

func TestDecodeAcceptsOpenPayload(t *testing.T) {
	// Tokens without bindings are accepted at decode time.
	raw := `{"aiTemplate": "<div>{{orphanToken}}</div>", "properties": {}}`
	payload, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	report := CheckClosure(payload)
	if report.Closed() {
		t.Fatal("expected open closure report")
	}
	if !reflect.DeepEqual(report.MissingProperties, []string{"orphanToken"}) {
		t.Fatalf("missing = %v", report.MissingProperties)
	}
}

func TestTokens(t *testing.T) {
	template := "<div>{{a}} {{ b }} {{a}} {{c-1}}</div>"
	got := Tokens(template)
	want := []string{"a", "b", "c-1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokens = %v, want %v", got, want)
	}
}

func TestCheckClosureClosed(t *testing.T) {
	payload, err := Decode([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	report := CheckClosure(payload)
	if !report.Closed() {
		t.Fatalf("expected closed report, got %+v", report)
	}
}

func TestCheckClosureFindsEveryMismatch(t *testing.T) {
	payload := Payload{
		Template:      "<div>{{present}} {{missing}}</div>",
		Properties:    map[string]string{"present": "ok", "dangling": "never used"},
		EditableProps: []EditableProp{{Key: "ghost", Label: "Ghost", Type: "text"}},
	}
	report := CheckClosure(payload)
	if !reflect.DeepEqual(report.MissingProperties, []string{"missing"}) {
		t.Fatalf("missing = %v", report.MissingProperties)
	}
	if !reflect.DeepEqual(report.UnusedProperties, []string{"dangling"}) {
		t.Fatalf("unused = %v", report.UnusedProperties)
	}
	if !reflect.DeepEqual(report.UnknownEditableKeys, []string{"ghost"}) {
		t.Fatalf("unknown editable = %v", report.UnknownEditableKeys)
	}
}

func TestRender(t *testing.T) {
	payload := Payload{
		Template:   "<h1 style=\"color: {{titleColor}}\">{{titleText}}</h1>",
		Properties: map[string]string{"titleColor": "#fff", "titleText": "Menu"},
	}
	got := Render(payload)
	want := "<h1 style=\"color: #fff\">Menu</h1>"
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestRenderLeavesUnboundTokens(t *testing.T) {
	payload := Payload{Template: "<p>{{known}} {{unknown}}</p>", Properties: map[string]string{"known": "hi"}}
	got := Render(payload)
	if got != "<p>hi {{unknown}}</p>" {
		t.Fatalf("Render = %q", got)
	}
}
