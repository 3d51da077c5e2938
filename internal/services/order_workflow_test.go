package services

import (
	"encoding/json"
	"testing"
	"time"

	"unishop/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	workflowNow   = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	workflowAdmin = Actor{ID: "admin", Role: models.RoleAdmin}
	dealerA       = Actor{ID: "dealer-a", Role: models.RoleDealer}
	dealerB       = Actor{ID: "dealer-b", Role: models.RoleDealer}
)

func strPtr(s string) *string { return &s }

func statusPtr(s models.OrderStatus) *models.OrderStatus { return &s }

func orderIn(status models.OrderStatus, dealer *string) *models.Order {
	return &models.Order{ID: "o1", UserID: "c1", Status: status, AssignedDealerID: dealer}
}

func TestApplyAccept(t *testing.T) {
	tests := []struct {
		name    string
		order   *models.Order
		wantErr error
	}{
		{"unassigned pending", orderIn(models.OrderStatusPendingDealerAssignment, nil), nil},
		{"awaiting acceptance by self", orderIn(models.OrderStatusAwaitingDealerAcceptance, strPtr("dealer-a")), nil},
		{"assigned to another dealer", orderIn(models.OrderStatusAwaitingDealerAcceptance, strPtr("dealer-b")), ErrForbidden},
		{"already shipped", orderIn(models.OrderStatusShipped, strPtr("dealer-a")), ErrInvalidTransition},
		{"delivered", orderIn(models.OrderStatusDelivered, nil), ErrTerminalStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := applyAccept(tt.order, dealerA, workflowNow)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tr.changed)
			assert.True(t, tt.order.AssignedTo("dealer-a"))
			assert.Equal(t, models.OrderStatusProcessingByDealer, tt.order.Status)
			require.NotEmpty(t, tt.order.StatusHistory)
			last := tt.order.StatusHistory[len(tt.order.StatusHistory)-1]
			assert.Equal(t, "dealer-a", last.ActorID)
			assert.Equal(t, models.OrderStatusProcessingByDealer, last.To)
		})
	}
}

func TestApplyReject(t *testing.T) {
	order := orderIn(models.OrderStatusProcessingByDealer, strPtr("dealer-a"))

	tr, err := applyReject(order, dealerA, "  Out of stock ", workflowNow)
	require.NoError(t, err)
	assert.True(t, tr.changed)
	assert.Equal(t, models.OrderStatusProcessingByDealer, tr.previous)
	assert.Nil(t, order.AssignedDealerID)
	assert.Equal(t, "Out of stock", order.DealerRejectionReason)
	assert.Equal(t, models.OrderStatusPendingDealerAssignment, order.Status)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, "Out of stock", order.StatusHistory[0].Reason)

	// An order that was never moved out of Pending still records the rejection
	pending := orderIn(models.OrderStatusPendingDealerAssignment, strPtr("dealer-a"))
	tr, err = applyReject(pending, dealerA, "Too far", workflowNow)
	require.NoError(t, err)
	assert.True(t, tr.changed)
	assert.False(t, tr.statusChanged)
	assert.Len(t, pending.StatusHistory, 1)

	_, err = applyReject(orderIn(models.OrderStatusProcessingByDealer, strPtr("dealer-a")), dealerA, " ", workflowNow)
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = applyReject(orderIn(models.OrderStatusProcessingByDealer, strPtr("dealer-b")), dealerA, "no", workflowNow)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = applyReject(orderIn(models.OrderStatusShipped, strPtr("dealer-a")), dealerA, "no", workflowNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = applyReject(orderIn(models.OrderStatusCancelled, strPtr("dealer-a")), dealerA, "no", workflowNow)
	assert.ErrorIs(t, err, ErrTerminalStatus)
}

func TestApplyAdminPatch(t *testing.T) {
	t.Run("assignment alone keeps the status", func(t *testing.T) {
		order := orderIn(models.OrderStatusPendingDealerAssignment, nil)
		tr, err := applyAdminPatch(order, workflowAdmin, OrderPatch{AssignedDealerID: strPtr("dealer-b")}, workflowNow)
		require.NoError(t, err)
		assert.True(t, tr.changed)
		assert.False(t, tr.statusChanged)
		assert.True(t, order.AssignedTo("dealer-b"))
		assert.Equal(t, models.OrderStatusPendingDealerAssignment, order.Status)
		assert.Empty(t, order.StatusHistory)
	})

	t.Run("assignment with status", func(t *testing.T) {
		order := orderIn(models.OrderStatusPendingDealerAssignment, nil)
		patch := OrderPatch{AssignedDealerID: strPtr("dealer-b"), Status: statusPtr(models.OrderStatusAwaitingDealerAcceptance)}
		tr, err := applyAdminPatch(order, workflowAdmin, patch, workflowNow)
		require.NoError(t, err)
		assert.True(t, tr.statusChanged)
		assert.Equal(t, models.OrderStatusAwaitingDealerAcceptance, order.Status)
	})

	t.Run("empty dealer id clears the assignment", func(t *testing.T) {
		order := orderIn(models.OrderStatusAwaitingDealerAcceptance, strPtr("dealer-a"))
		_, err := applyAdminPatch(order, workflowAdmin, OrderPatch{AssignedDealerID: strPtr("")}, workflowNow)
		require.NoError(t, err)
		assert.Nil(t, order.AssignedDealerID)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		order := orderIn(models.OrderStatusShipped, strPtr("dealer-a"))
		tr, err := applyAdminPatch(order, workflowAdmin, OrderPatch{Status: statusPtr(models.OrderStatusShipped)}, workflowNow)
		require.NoError(t, err)
		assert.False(t, tr.changed)
	})

	t.Run("unknown status", func(t *testing.T) {
		order := orderIn(models.OrderStatusShipped, strPtr("dealer-a"))
		_, err := applyAdminPatch(order, workflowAdmin, OrderPatch{Status: statusPtr("Lost")}, workflowNow)
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("terminal orders are locked", func(t *testing.T) {
		order := orderIn(models.OrderStatusDelivered, strPtr("dealer-a"))
		_, err := applyAdminPatch(order, workflowAdmin, OrderPatch{Status: statusPtr(models.OrderStatusShipped)}, workflowNow)
		assert.ErrorIs(t, err, ErrTerminalStatus)

		_, err = applyAdminPatch(order, workflowAdmin, OrderPatch{AssignedDealerID: strPtr("dealer-b")}, workflowNow)
		assert.ErrorIs(t, err, ErrTerminalStatus)
		assert.True(t, order.AssignedTo("dealer-a"))
	})

	t.Run("reason is compared after trimming", func(t *testing.T) {
		order := orderIn(models.OrderStatusPendingDealerAssignment, nil)
		order.DealerRejectionReason = "x"
		tr, err := applyAdminPatch(order, workflowAdmin, OrderPatch{DealerRejectionReason: strPtr(" x ")}, workflowNow)
		require.NoError(t, err)
		assert.False(t, tr.changed)
		assert.Equal(t, "x", order.DealerRejectionReason)

		tr, err = applyAdminPatch(order, workflowAdmin, OrderPatch{DealerRejectionReason: strPtr(" wrong size ")}, workflowNow)
		require.NoError(t, err)
		assert.True(t, tr.changed)
		assert.Equal(t, "wrong size", order.DealerRejectionReason)
	})

	t.Run("reason of a terminal order is locked", func(t *testing.T) {
		for _, status := range []models.OrderStatus{models.OrderStatusDelivered, models.OrderStatusCancelled} {
			order := orderIn(status, strPtr("dealer-a"))
			_, err := applyAdminPatch(order, workflowAdmin, OrderPatch{DealerRejectionReason: strPtr("x")}, workflowNow)
			assert.ErrorIs(t, err, ErrTerminalStatus, status)
			assert.Empty(t, order.DealerRejectionReason)
		}
	})

	t.Run("admin may set any status", func(t *testing.T) {
		order := orderIn(models.OrderStatusPlaced, nil)
		_, err := applyAdminPatch(order, workflowAdmin, OrderPatch{Status: statusPtr(models.OrderStatusConfirmed)}, workflowNow)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusConfirmed, order.Status)
		require.Len(t, order.StatusHistory, 1)
		assert.Equal(t, models.OrderStatusPlaced, order.StatusHistory[0].From)
		assert.Equal(t, models.RoleAdmin, order.StatusHistory[0].ActorRole)
	})
}

func TestApplyDealerPatch(t *testing.T) {
	t.Run("self assignment accepts", func(t *testing.T) {
		order := orderIn(models.OrderStatusPendingDealerAssignment, nil)
		patch := OrderPatch{AssignedDealerID: strPtr("dealer-a"), Status: statusPtr(models.OrderStatusProcessingByDealer)}
		_, err := applyDealerPatch(order, dealerA, patch, workflowNow)
		require.NoError(t, err)
		assert.True(t, order.AssignedTo("dealer-a"))
		assert.Equal(t, models.OrderStatusProcessingByDealer, order.Status)
	})

	t.Run("self assignment alone keeps the status", func(t *testing.T) {
		order := orderIn(models.OrderStatusPendingDealerAssignment, nil)
		tr, err := applyDealerPatch(order, dealerA, OrderPatch{AssignedDealerID: strPtr("dealer-a")}, workflowNow)
		require.NoError(t, err)
		assert.True(t, tr.changed)
		assert.False(t, tr.statusChanged)
		assert.True(t, order.AssignedTo("dealer-a"))
		assert.Equal(t, models.OrderStatusPendingDealerAssignment, order.Status)
		assert.Empty(t, order.StatusHistory)

		tr, err = applyDealerPatch(order, dealerA, OrderPatch{AssignedDealerID: strPtr("dealer-a")}, workflowNow)
		require.NoError(t, err)
		assert.False(t, tr.changed, "already assigned")
	})

	t.Run("self assignment of a taken order", func(t *testing.T) {
		order := orderIn(models.OrderStatusAwaitingDealerAcceptance, strPtr("dealer-b"))
		_, err := applyDealerPatch(order, dealerA, OrderPatch{AssignedDealerID: strPtr("dealer-a")}, workflowNow)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.True(t, order.AssignedTo("dealer-b"))
	})

	t.Run("self assignment of a closed order", func(t *testing.T) {
		order := orderIn(models.OrderStatusCancelled, nil)
		_, err := applyDealerPatch(order, dealerA, OrderPatch{AssignedDealerID: strPtr("dealer-a")}, workflowNow)
		assert.ErrorIs(t, err, ErrTerminalStatus)
		assert.Nil(t, order.AssignedDealerID)
	})

	t.Run("clearing the assignment rejects", func(t *testing.T) {
		order := orderIn(models.OrderStatusProcessingByDealer, strPtr("dealer-a"))
		patch := OrderPatch{
			AssignedDealerID:      strPtr(""),
			Status:                statusPtr(models.OrderStatusPendingDealerAssignment),
			DealerRejectionReason: strPtr("Size unavailable"),
		}
		_, err := applyDealerPatch(order, dealerA, patch, workflowNow)
		require.NoError(t, err)
		assert.Nil(t, order.AssignedDealerID)
		assert.Equal(t, "Size unavailable", order.DealerRejectionReason)
	})

	t.Run("assigning another dealer", func(t *testing.T) {
		order := orderIn(models.OrderStatusPendingDealerAssignment, nil)
		_, err := applyDealerPatch(order, dealerA, OrderPatch{AssignedDealerID: strPtr("dealer-b")}, workflowNow)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("accept with a conflicting status", func(t *testing.T) {
		order := orderIn(models.OrderStatusPendingDealerAssignment, nil)
		patch := OrderPatch{AssignedDealerID: strPtr("dealer-a"), Status: statusPtr(models.OrderStatusShipped)}
		_, err := applyDealerPatch(order, dealerA, patch, workflowNow)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("reason without releasing", func(t *testing.T) {
		order := orderIn(models.OrderStatusProcessingByDealer, strPtr("dealer-a"))
		_, err := applyDealerPatch(order, dealerA, OrderPatch{DealerRejectionReason: strPtr("x")}, workflowNow)
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("assigned dealer ships", func(t *testing.T) {
		order := orderIn(models.OrderStatusProcessingByDealer, strPtr("dealer-a"))
		_, err := applyDealerPatch(order, dealerA, OrderPatch{Status: statusPtr(models.OrderStatusShipped)}, workflowNow)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusShipped, order.Status)
	})

	t.Run("other dealer cannot change status", func(t *testing.T) {
		order := orderIn(models.OrderStatusProcessingByDealer, strPtr("dealer-a"))
		_, err := applyDealerPatch(order, dealerB, OrderPatch{Status: statusPtr(models.OrderStatusShipped)}, workflowNow)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("dealer cannot confirm", func(t *testing.T) {
		order := orderIn(models.OrderStatusProcessingByDealer, strPtr("dealer-a"))
		_, err := applyDealerPatch(order, dealerA, OrderPatch{Status: statusPtr(models.OrderStatusConfirmed)}, workflowNow)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("delivered order is locked for its dealer", func(t *testing.T) {
		order := orderIn(models.OrderStatusDelivered, strPtr("dealer-a"))
		_, err := applyDealerPatch(order, dealerA, OrderPatch{Status: statusPtr(models.OrderStatusCancelled)}, workflowNow)
		assert.ErrorIs(t, err, ErrTerminalStatus)
	})
}

func TestApplyPatch_OtherRoles(t *testing.T) {
	for _, role := range []models.Role{models.RoleCustomer, models.RoleStudent, models.RoleInstitution} {
		order := orderIn(models.OrderStatusPendingDealerAssignment, nil)
		_, err := applyPatch(order, Actor{ID: "x", Role: role}, OrderPatch{Status: statusPtr(models.OrderStatusCancelled)}, workflowNow)
		assert.ErrorIs(t, err, ErrForbidden, role)
	}
}

func TestOrderPatch_UnmarshalJSON(t *testing.T) {
	var patch OrderPatch
	require.NoError(t, json.Unmarshal([]byte(`{"status":"Shipped"}`), &patch))
	assert.Nil(t, patch.AssignedDealerID)
	require.NotNil(t, patch.Status)
	assert.Equal(t, models.OrderStatusShipped, *patch.Status)

	patch = OrderPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"assignedDealerId":null,"dealerRejectionReason":"busy"}`), &patch))
	require.NotNil(t, patch.AssignedDealerID)
	assert.Empty(t, *patch.AssignedDealerID)
	assert.Equal(t, "busy", *patch.DealerRejectionReason)

	patch = OrderPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"assignedDealerId":"dealer-a"}`), &patch))
	assert.Equal(t, "dealer-a", *patch.AssignedDealerID)
	assert.Nil(t, patch.Status)

	assert.Error(t, json.Unmarshal([]byte(`{"assignedDealerId":42}`), &patch))
}
