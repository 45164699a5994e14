package event

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/markethub/backend/internal/domain/shared"
)

type nopHandler struct {
	eventTypes []string
}

func (h *nopHandler) Handle(ctx context.Context, event shared.DomainEvent) error { return nil }
func (h *nopHandler) EventTypes() []string                                       { return h.eventTypes }

func TestHandlerRegistry_SpecificTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := &nopHandler{eventTypes: []string{"settlement.generated", "settlement.finalized"}}

	registry.Register(handler, "settlement.generated", "settlement.finalized")

	assert.Len(t, registry.GetHandlers("settlement.generated"), 1)
	assert.Len(t, registry.GetHandlers("settlement.finalized"), 1)
	assert.Empty(t, registry.GetHandlers("billing.invoice_issued"))
}

func TestHandlerRegistry_Wildcard(t *testing.T) {
	registry := NewHandlerRegistry()
	audit := &nopHandler{}

	registry.Register(audit)

	assert.Len(t, registry.GetHandlers("payment.refund_completed"), 1)
	assert.Len(t, registry.GetHandlers("ordering.order_paid"), 1)
}

func TestHandlerRegistry_WildcardCombinesWithSpecific(t *testing.T) {
	registry := NewHandlerRegistry()
	specific := &nopHandler{eventTypes: []string{"payment.refund_completed"}}
	audit := &nopHandler{}

	registry.Register(specific, "payment.refund_completed")
	registry.Register(audit)

	assert.Len(t, registry.GetHandlers("payment.refund_completed"), 2)

	handlers := registry.GetHandlers("settlement.generated")
	assert.Len(t, handlers, 1)
	assert.Equal(t, shared.EventHandler(audit), handlers[0])
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	first := &nopHandler{eventTypes: []string{"payment.refund_completed"}}
	second := &nopHandler{eventTypes: []string{"payment.refund_completed"}}

	registry.Register(first, "payment.refund_completed")
	registry.Register(second, "payment.refund_completed")
	assert.Len(t, registry.GetHandlers("payment.refund_completed"), 2)

	registry.Unregister(first)

	handlers := registry.GetHandlers("payment.refund_completed")
	assert.Len(t, handlers, 1)
	assert.Equal(t, shared.EventHandler(second), handlers[0])
}

func TestHandlerRegistry_UnregisterWildcard(t *testing.T) {
	registry := NewHandlerRegistry()
	audit := &nopHandler{}

	registry.Register(audit)
	assert.Len(t, registry.GetHandlers("settlement.generated"), 1)

	registry.Unregister(audit)
	assert.Empty(t, registry.GetHandlers("settlement.generated"))
}

func TestHandlerRegistry_GetAllHandlers_Deduplicates(t *testing.T) {
	registry := NewHandlerRegistry()
	multi := &nopHandler{eventTypes: []string{"settlement.generated", "settlement.finalized"}}
	audit := &nopHandler{}

	registry.Register(multi, "settlement.generated", "settlement.finalized")
	registry.Register(audit)

	assert.Len(t, registry.GetAllHandlers(), 2)
}
