package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubOrderStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  SubOrderStatus
		isValid bool
	}{
		{SubOrderStatusNew, true},
		{SubOrderStatusPaid, true},
		{SubOrderStatusPreparing, true},
		{SubOrderStatusShipped, true},
		{SubOrderStatusDelivered, true},
		{SubOrderStatusCancelled, true},
		{SubOrderStatusRefunded, true},
		{SubOrderStatus("INVALID"), false},
		{SubOrderStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

// TestSubOrderStatus_CanTransitionTo exercises the complete directed-pair
// grid: every pair not listed as valid must be rejected.
func TestSubOrderStatus_CanTransitionTo(t *testing.T) {
	all := []SubOrderStatus{
		SubOrderStatusNew, SubOrderStatusPaid, SubOrderStatusPreparing,
		SubOrderStatusShipped, SubOrderStatusDelivered,
		SubOrderStatusCancelled, SubOrderStatusRefunded,
	}

	valid := map[SubOrderStatus][]SubOrderStatus{
		SubOrderStatusNew:       {SubOrderStatusPaid, SubOrderStatusCancelled},
		SubOrderStatusPaid:      {SubOrderStatusPreparing, SubOrderStatusCancelled, SubOrderStatusRefunded},
		SubOrderStatusPreparing: {SubOrderStatusShipped, SubOrderStatusCancelled},
		SubOrderStatusShipped:   {SubOrderStatusDelivered, SubOrderStatusRefunded},
		SubOrderStatusDelivered: {SubOrderStatusRefunded},
	}

	isValidEdge := func(from, to SubOrderStatus) bool {
		for _, target := range valid[from] {
			if target == to {
				return true
			}
		}
		return false
	}

	for _, from := range all {
		for _, to := range all {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				assert.Equal(t, isValidEdge(from, to), from.CanTransitionTo(to))
			})
		}
	}
}

func TestSubOrderStatus_IsTerminal(t *testing.T) {
	assert.True(t, SubOrderStatusCancelled.IsTerminal())
	assert.True(t, SubOrderStatusRefunded.IsTerminal())
	assert.False(t, SubOrderStatusDelivered.IsTerminal())
	assert.False(t, SubOrderStatusNew.IsTerminal())
	assert.False(t, SubOrderStatusShipped.IsTerminal())
}

func TestDeriveOrderStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []SubOrderStatus
		expected OrderStatus
	}{
		{"empty", nil, OrderStatusNew},
		{"all delivered", []SubOrderStatus{SubOrderStatusDelivered, SubOrderStatusDelivered}, OrderStatusDelivered},
		{"all cancelled", []SubOrderStatus{SubOrderStatusCancelled, SubOrderStatusCancelled}, OrderStatusCancelled},
		{"all refunded", []SubOrderStatus{SubOrderStatusRefunded}, OrderStatusRefunded},
		{"mixed terminal defaults to cancelled", []SubOrderStatus{SubOrderStatusCancelled, SubOrderStatusRefunded}, OrderStatusCancelled},
		{"most advanced active wins: shipped over paid", []SubOrderStatus{SubOrderStatusPaid, SubOrderStatusShipped}, OrderStatusShipped},
		{"most advanced active wins: delivered over preparing", []SubOrderStatus{SubOrderStatusDelivered, SubOrderStatusPreparing}, OrderStatusDelivered},
		{"terminal ignored when active present", []SubOrderStatus{SubOrderStatusCancelled, SubOrderStatusPaid}, OrderStatusPaid},
		{"refunded ignored when active present", []SubOrderStatus{SubOrderStatusRefunded, SubOrderStatusPreparing}, OrderStatusPreparing},
		{"all new", []SubOrderStatus{SubOrderStatusNew, SubOrderStatusNew}, OrderStatusNew},
		{"single delivered", []SubOrderStatus{SubOrderStatusDelivered}, OrderStatusDelivered},
		{"delivered and cancelled", []SubOrderStatus{SubOrderStatusDelivered, SubOrderStatusCancelled}, OrderStatusDelivered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveOrderStatus(tt.statuses))
		})
	}
}
