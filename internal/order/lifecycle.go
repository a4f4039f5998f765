package order

import (
	"fmt"
	"time"
)

// transitions is the only place the lifecycle graph lives. Anything not in
// this table is illegal; the old dashboards compared status strings in each
// button handler, which is exactly what this replaces.
var transitions = map[Status]map[Status]bool{
	StatusNew:       {StatusPreparing: true, StatusCancelled: true},
	StatusPreparing: {StatusReady: true, StatusCancelled: true},
	StatusReady:     {StatusCompleted: true},
}

// CanTransition reports whether target is reachable from current.
func CanTransition(current, target Status) bool {
	return transitions[current][target]
}

// SideEffect names work the orchestrator must run after the store write
// succeeds. The engine declares them; it never executes them.
type SideEffect string

const (
	EffectInvalidateCounts SideEffect = "INVALIDATE_COUNTS"
	EffectPublishChange    SideEffect = "PUBLISH_CHANGE"
	EffectNotifyCafeteria  SideEffect = "NOTIFY_CAFETERIA"
	EffectNotifyCustomer   SideEffect = "NOTIFY_CUSTOMER"
)

// TransitionRequest is a validated request to move one order to a new status.
type TransitionRequest struct {
	Target Status
	Reason *string
	Actor  Actor
}

// TransitionResult holds the fields the store must write, the expected
// current status the conditional write is keyed on, and the declared side
// effects.
type TransitionResult struct {
	From               Status
	To                 Status
	CancellationReason *string
	CancelledBy        *ActorRole
	CancelledAt        *time.Time
	Effects            []SideEffect
}

// PlanTransition validates req against the order's current state and actor
// policy and returns the write plan. It is pure: no I/O, no clock reads
// beyond stamping cancellation time.
func PlanTransition(o *Order, req TransitionRequest) (*TransitionResult, error) {
	if o.Status.Terminal() {
		return nil, fmt.Errorf("%w: order %s is %s", ErrAlreadyTerminal, o.ID, o.Status)
	}

	if !CanTransition(o.Status, req.Target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, req.Target)
	}

	if err := authorize(o, req); err != nil {
		return nil, err
	}

	res := &TransitionResult{
		From:    o.Status,
		To:      req.Target,
		Effects: []SideEffect{EffectInvalidateCounts, EffectPublishChange},
	}

	if req.Target == StatusCancelled {
		if req.Reason == nil || *req.Reason == "" {
			// Rejected outright, never defaulted. Some old call sites
			// substituted "No reason provided"; that behavior is gone.
			return nil, ErrReasonRequired
		}
		now := time.Now()
		role := req.Actor.Role
		res.CancellationReason = req.Reason
		res.CancelledBy = &role
		res.CancelledAt = &now

		switch req.Actor.Role {
		case RoleCustomer:
			res.Effects = append(res.Effects, EffectNotifyCafeteria)
		case RoleStaff:
			res.Effects = append(res.Effects, EffectNotifyCustomer)
		}
	}

	return res, nil
}

// authorize applies the actor policy: customers may only cancel their own
// orders, staff only operate on their own cafeteria, system is unrestricted.
func authorize(o *Order, req TransitionRequest) error {
	switch req.Actor.Role {
	case RoleSystem:
		return nil
	case RoleStaff:
		if req.Actor.CafeteriaID == nil || *req.Actor.CafeteriaID != o.CafeteriaID {
			return fmt.Errorf("%w: staff of another cafeteria", ErrForbidden)
		}
		return nil
	case RoleCustomer:
		if req.Actor.ID != o.CustomerID {
			return fmt.Errorf("%w: not the ordering customer", ErrForbidden)
		}
		if req.Target != StatusCancelled {
			return fmt.Errorf("%w: customers may only cancel", ErrForbidden)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown role %q", ErrForbidden, req.Actor.Role)
}

// Apply mutates o in memory with the result fields after the store write
// succeeded, so callers get the updated record without a re-read.
func (res *TransitionResult) Apply(o *Order) {
	o.Status = res.To
	o.UpdatedAt = time.Now()
	if res.To == StatusCancelled {
		o.CancellationReason = res.CancellationReason
		o.CancelledBy = res.CancelledBy
		o.CancelledAt = res.CancelledAt
	}
}
