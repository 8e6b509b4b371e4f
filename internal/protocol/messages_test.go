package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data, err := Encode(TypeQuestion, QuestionPayload{
		Question: 2,
		Total:    5,
		Prompt:   "What is the chemical symbol for gold?",
		Options:  []string{"Go", "Gd", "Au", "Ag"},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	env, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != TypeQuestion {
		t.Fatalf("expected type %q, got %q", TypeQuestion, env.Type)
	}
	var p QuestionPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p.Question != 2 || p.Total != 5 || len(p.Options) != 4 {
		t.Fatalf("payload mangled: %+v", p)
	}
}

func TestEncodeNilPayload(t *testing.T) {
	data, err := Encode(TypeLeave, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != TypeLeave || len(env.Payload) != 0 {
		t.Fatalf("expected bare envelope, got %+v", env)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Fatalf("expected error for non-JSON input")
	}
	if _, err := Decode([]byte(`{"payload":{}}`)); err == nil || !strings.Contains(err.Error(), "missing type") {
		t.Fatalf("expected missing-type error, got %v", err)
	}
}
