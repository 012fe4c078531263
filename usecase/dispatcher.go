package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// OperationHandler executes one named operation: one call, one mutation or
// one read. The payload is the raw request body; the handler decodes its own
// request record.
type OperationHandler func(ctx context.Context, userID string, payload json.RawMessage) (interface{}, error)

type operation struct {
	handler      OperationHandler
	requiresAuth bool
}

// Dispatcher maps operation names to handlers plus a requires-auth flag. The
// table is built once at startup; authentication is enforced by the wrapping
// transport layer before the handler runs, never inside the domain function.
type Dispatcher struct {
	ops map[string]operation
	mu  sync.RWMutex
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		ops: make(map[string]operation),
	}
}

func (d *Dispatcher) Register(name string, requiresAuth bool, handler OperationHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops[name] = operation{handler: handler, requiresAuth: requiresAuth}
}

// RequiresAuth reports the auth flag for an operation; the second result is
// false for unknown names.
func (d *Dispatcher) RequiresAuth(name string) (bool, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	op, ok := d.ops[name]
	return op.requiresAuth, ok
}

func (d *Dispatcher) Execute(ctx context.Context, name, userID string, payload json.RawMessage) (interface{}, error) {
	d.mu.RLock()
	op, ok := d.ops[name]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("operation %s not registered", name)
	}
	return op.handler(ctx, userID, payload)
}

// Names lists the registered operations.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.ops))
	for name := range d.ops {
		names = append(names, name)
	}
	return names
}
