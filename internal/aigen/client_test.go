package aigen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func completionResponse(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

const generatedPayload = `{"aiTemplate": "<div class=\"promo\"><h2>{{promoText}}</h2></div>", "properties": {"promoText": "Two for one Tuesdays"}, "editableProps": [{"key": "promoText", "label": "Promo text", "type": "text"}]}`

func TestGenerate(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[1].Content != "a promo banner" {
			t.Errorf("messages = %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionResponse(generatedPayload)))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, APIKey: "test-key", Model: "gpt-4o-mini"})
	payload, err := client.Generate(context.Background(), "a promo banner")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if payload.Properties["promoText"] != "Two for one Tuesdays" {
		t.Fatalf("properties = %v", payload.Properties)
	}
}

func TestGenerateStripsFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse("```json\n" + generatedPayload + "\n```")))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Model: "gpt-4o-mini"})
	payload, err := client.Generate(context.Background(), "a promo banner")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if payload.Template == "" {
		t.Fatal("expected template")
	}
}

func TestGenerateRejectsMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse(`{"notATemplate": true}`)))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Model: "gpt-4o-mini"})
	if _, err := client.Generate(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Model: "gpt-4o-mini"})
	if _, err := client.Generate(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for upstream failure")
	}
}
