package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"unishop/internal/models"
)

// OrderPatch is a partial order change. A nil field is left alone. An
// empty AssignedDealerID clears the assignment.
type OrderPatch struct {
	Status                *models.OrderStatus `json:"status"`
	AssignedDealerID      *string             `json:"assignedDealerId"`
	DealerRejectionReason *string             `json:"dealerRejectionReason"`
}

// Empty reports whether the patch changes nothing.
func (p OrderPatch) Empty() bool {
	return p.Status == nil && p.AssignedDealerID == nil && p.DealerRejectionReason == nil
}

// UnmarshalJSON treats an explicit null assignedDealerId like an empty one,
// so both clear the assignment.
func (p *OrderPatch) UnmarshalJSON(data []byte) error {
	type plain OrderPatch
	var raw struct {
		plain
		AssignedDealerID json.RawMessage `json:"assignedDealerId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = OrderPatch(raw.plain)
	if len(raw.AssignedDealerID) == 0 {
		return nil
	}
	dealerID := ""
	if string(raw.AssignedDealerID) != "null" {
		if err := json.Unmarshal(raw.AssignedDealerID, &dealerID); err != nil {
			return fmt.Errorf("assignedDealerId: %w", err)
		}
	}
	p.AssignedDealerID = &dealerID
	return nil
}

// transition is the outcome of applying a change to an order in memory.
type transition struct {
	previous      models.OrderStatus
	statusChanged bool
	changed       bool
}

// setStatus moves order to status and records who did it. Terminal orders
// refuse any change.
func setStatus(order *models.Order, to models.OrderStatus, actor Actor, reason string, now time.Time, t *transition) error {
	if !to.Valid() {
		return invalidField("status", fmt.Sprintf("Unknown order status '%s'", to))
	}
	if order.Status == to {
		return nil
	}
	if order.Status.Terminal() {
		return fmt.Errorf("order %s is %s: %w", order.ID, order.Status, ErrTerminalStatus)
	}
	order.StatusHistory = append(order.StatusHistory, models.StatusChange{
		From:      order.Status,
		To:        to,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Reason:    reason,
		At:        now,
	})
	order.Status = to
	t.statusChanged = true
	t.changed = true
	return nil
}

// applyAccept assigns order to the acting dealer and starts processing.
// Only unassigned orders, or orders already assigned to this dealer, that
// wait for a dealer can be accepted.
func applyAccept(order *models.Order, actor Actor, now time.Time) (transition, error) {
	t := transition{previous: order.Status}
	if order.AssignedDealerID != nil && !order.AssignedTo(actor.ID) {
		return t, fmt.Errorf("order %s is assigned to another dealer: %w", order.ID, ErrForbidden)
	}
	if order.Status.Terminal() {
		return t, fmt.Errorf("order %s is %s: %w", order.ID, order.Status, ErrTerminalStatus)
	}
	if order.Status != models.OrderStatusPendingDealerAssignment && order.Status != models.OrderStatusAwaitingDealerAcceptance {
		return t, fmt.Errorf("cannot accept order %s in status %s: %w", order.ID, order.Status, ErrInvalidTransition)
	}

	dealerID := actor.ID
	order.AssignedDealerID = &dealerID
	order.DealerRejectionReason = ""
	if err := setStatus(order, models.OrderStatusProcessingByDealer, actor, "", now, &t); err != nil {
		return t, err
	}
	t.changed = true
	return t, nil
}

// applyReject hands an order assigned to the acting dealer back to the
// pool: the assignment is cleared and the reason kept on the order.
func applyReject(order *models.Order, actor Actor, reason string, now time.Time) (transition, error) {
	t := transition{previous: order.Status}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return t, invalidField("dealerRejectionReason", "A rejection reason is required")
	}
	if !order.AssignedTo(actor.ID) {
		return t, fmt.Errorf("order %s is not assigned to dealer %s: %w", order.ID, actor.ID, ErrForbidden)
	}
	if order.Status.Terminal() {
		return t, fmt.Errorf("order %s is %s: %w", order.ID, order.Status, ErrTerminalStatus)
	}
	switch order.Status {
	case models.OrderStatusPendingDealerAssignment, models.OrderStatusAwaitingDealerAcceptance, models.OrderStatusProcessingByDealer:
	default:
		return t, fmt.Errorf("cannot reject order %s in status %s: %w", order.ID, order.Status, ErrInvalidTransition)
	}

	order.AssignedDealerID = nil
	order.DealerRejectionReason = reason
	t.changed = true
	if err := setStatus(order, models.OrderStatusPendingDealerAssignment, actor, reason, now, &t); err != nil {
		return t, err
	}
	if !t.statusChanged {
		// Still record that the dealer let go of the order.
		order.StatusHistory = append(order.StatusHistory, models.StatusChange{
			From: order.Status, To: order.Status, ActorID: actor.ID, ActorRole: actor.Role, Reason: reason, At: now,
		})
	}
	return t, nil
}

// applyDealerStatus lets the assigned dealer move an order to any
// dealer-settable status, in any order.
func applyDealerStatus(order *models.Order, actor Actor, status models.OrderStatus, now time.Time) (transition, error) {
	t := transition{previous: order.Status}
	if !status.Valid() {
		return t, invalidField("status", fmt.Sprintf("Unknown order status '%s'", status))
	}
	if !order.AssignedTo(actor.ID) {
		return t, fmt.Errorf("order %s is not assigned to dealer %s: %w", order.ID, actor.ID, ErrForbidden)
	}
	if !status.DealerSettable() {
		return t, fmt.Errorf("dealers cannot set status %s: %w", status, ErrInvalidTransition)
	}
	err := setStatus(order, status, actor, "", now, &t)
	return t, err
}

// applyAdminPatch applies an administrator's change. Assigning a dealer
// without a status leaves the status as it is.
func applyAdminPatch(order *models.Order, actor Actor, patch OrderPatch, now time.Time) (transition, error) {
	t := transition{previous: order.Status}
	if patch.Status != nil && !patch.Status.Valid() {
		return t, invalidField("status", fmt.Sprintf("Unknown order status '%s'", *patch.Status))
	}

	if patch.AssignedDealerID != nil {
		if order.Status.Terminal() {
			return t, fmt.Errorf("cannot reassign order %s in status %s: %w", order.ID, order.Status, ErrTerminalStatus)
		}
		dealerID := strings.TrimSpace(*patch.AssignedDealerID)
		switch {
		case dealerID == "" && order.AssignedDealerID != nil:
			order.AssignedDealerID = nil
			t.changed = true
		case dealerID != "" && !order.AssignedTo(dealerID):
			order.AssignedDealerID = &dealerID
			t.changed = true
		}
	}
	if patch.DealerRejectionReason != nil {
		reason := strings.TrimSpace(*patch.DealerRejectionReason)
		if reason != order.DealerRejectionReason {
			if order.Status.Terminal() {
				return t, fmt.Errorf("cannot change order %s in status %s: %w", order.ID, order.Status, ErrTerminalStatus)
			}
			order.DealerRejectionReason = reason
			t.changed = true
		}
	}
	if patch.Status != nil {
		if err := setStatus(order, *patch.Status, actor, "", now, &t); err != nil {
			return t, err
		}
	}
	return t, nil
}

// applySelfAssign claims an unassigned order for the acting dealer without
// touching its status.
func applySelfAssign(order *models.Order, actor Actor) (transition, error) {
	t := transition{previous: order.Status}
	if order.AssignedTo(actor.ID) {
		return t, nil
	}
	if order.AssignedDealerID != nil {
		return t, fmt.Errorf("order %s is assigned to another dealer: %w", order.ID, ErrForbidden)
	}
	if order.Status.Terminal() {
		return t, fmt.Errorf("order %s is %s: %w", order.ID, order.Status, ErrTerminalStatus)
	}
	dealerID := actor.ID
	order.AssignedDealerID = &dealerID
	t.changed = true
	return t, nil
}

// applyDealerPatch maps a dealer's PATCH onto accept, reject, a plain
// status update or a self-assignment, matching what the dealer portal sends
// for each action. Accepting needs the Processing by Dealer status in the
// same patch.
func applyDealerPatch(order *models.Order, actor Actor, patch OrderPatch, now time.Time) (transition, error) {
	if patch.AssignedDealerID != nil {
		dealerID := strings.TrimSpace(*patch.AssignedDealerID)
		switch {
		case dealerID == actor.ID:
			if patch.Status == nil {
				return applySelfAssign(order, actor)
			}
			if *patch.Status != models.OrderStatusProcessingByDealer {
				return transition{previous: order.Status}, fmt.Errorf("accepting sets status %s: %w", models.OrderStatusProcessingByDealer, ErrInvalidTransition)
			}
			return applyAccept(order, actor, now)
		case dealerID == "":
			if patch.Status != nil && *patch.Status != models.OrderStatusPendingDealerAssignment {
				return transition{previous: order.Status}, fmt.Errorf("rejecting sets status %s: %w", models.OrderStatusPendingDealerAssignment, ErrInvalidTransition)
			}
			reason := ""
			if patch.DealerRejectionReason != nil {
				reason = *patch.DealerRejectionReason
			}
			return applyReject(order, actor, reason, now)
		default:
			return transition{previous: order.Status}, fmt.Errorf("dealers cannot assign orders to others: %w", ErrForbidden)
		}
	}
	if patch.DealerRejectionReason != nil {
		return transition{previous: order.Status}, invalidField("assignedDealerId", "A rejection must clear assignedDealerId")
	}
	if patch.Status == nil {
		return transition{previous: order.Status}, nil
	}
	return applyDealerStatus(order, actor, *patch.Status, now)
}

// applyPatch dispatches a PATCH by the actor's role.
func applyPatch(order *models.Order, actor Actor, patch OrderPatch, now time.Time) (transition, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return applyAdminPatch(order, actor, patch, now)
	case models.RoleDealer:
		return applyDealerPatch(order, actor, patch, now)
	}
	return transition{previous: order.Status}, ErrForbidden
}
