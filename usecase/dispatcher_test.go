package usecase

import (
	"context"
	"encoding/json"
	"testing"
)

func TestDispatcher(t *testing.T) {
	d := NewDispatcher()
	d.Register("echo", true, func(ctx context.Context, userID string, payload json.RawMessage) (interface{}, error) {
		return map[string]string{"user": userID, "payload": string(payload)}, nil
	})
	d.Register("open", false, func(ctx context.Context, userID string, payload json.RawMessage) (interface{}, error) {
		return "ok", nil
	})

	requires, ok := d.RequiresAuth("echo")
	if !ok || !requires {
		t.Errorf("RequiresAuth(echo) = %v, %v, want true, true", requires, ok)
	}
	requires, ok = d.RequiresAuth("open")
	if !ok || requires {
		t.Errorf("RequiresAuth(open) = %v, %v, want false, true", requires, ok)
	}
	if _, ok := d.RequiresAuth("missing"); ok {
		t.Error("unknown operation reported as registered")
	}

	result, err := d.Execute(context.Background(), "echo", "user-1", json.RawMessage(`{"x":1}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	m, ok := result.(map[string]string)
	if !ok || m["user"] != "user-1" {
		t.Errorf("result = %#v", result)
	}

	if _, err := d.Execute(context.Background(), "missing", "user-1", nil); err == nil {
		t.Error("executing an unregistered operation should fail")
	}

	if got := len(d.Names()); got != 2 {
		t.Errorf("Names() returned %d entries, want 2", got)
	}
}
