package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusNew       Status = "NEW"
	StatusPreparing Status = "PREPARING"
	StatusReady     Status = "READY"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus normalizes an external status string. The mobile client and
// older dashboard builds still send "pending"; it maps to NEW here and
// nowhere else.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NEW", "PENDING":
		return StatusNew, nil
	case "PREPARING":
		return StatusPreparing, nil
	case "READY":
		return StatusReady, nil
	case "COMPLETED":
		return StatusCompleted, nil
	case "CANCELLED", "CANCELED":
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusNew, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled}
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type ActorRole string

const (
	RoleCustomer ActorRole = "CUSTOMER"
	RoleStaff    ActorRole = "STAFF"
	RoleSystem   ActorRole = "SYSTEM"
)

// Actor identifies who is requesting a mutation. Staff actors are scoped to
// a single cafeteria.
type Actor struct {
	ID          uint
	Role        ActorRole
	CafeteriaID *uint
}

type Order struct {
	ID                 uuid.UUID
	CafeteriaID        uint
	CustomerID         uint
	Status             Status
	Items              []Item
	TotalAmount        int
	PickupTime         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CancellationReason *string
	CancelledBy        *ActorRole
	CancelledAt        *time.Time
}

type Item struct {
	ID         uint
	OrderID    uuid.UUID
	MenuItemID uint
	Name       string
	Quantity   int
	UnitPrice  int
	Notes      *string
}

// Total returns the stored total when present, otherwise the sum over items.
// The mobile client historically wrote zero totals on some orders, so a zero
// stored value is treated as absent.
func (o *Order) Total() int {
	if o.TotalAmount > 0 {
		return o.TotalAmount
	}
	total := 0
	for _, it := range o.Items {
		total += it.Quantity * it.UnitPrice
	}
	return total
}

// Detail is the dashboard detail view: the order plus resolved customer
// contact fields.
type Detail struct {
	Order
	CustomerName  string
	CustomerEmail string
}

// Elapsed reports time since the order was placed, rounded to the second.
func (d *Detail) Elapsed(now time.Time) time.Duration {
	return now.Sub(d.CreatedAt).Round(time.Second)
}

// PickupLabel renders the pickup slot for the kitchen display. No pickup
// time means the customer wants it as soon as possible.
func (d *Detail) PickupLabel() string {
	if d.PickupTime == nil {
		return "ASAP"
	}
	return d.PickupTime.Format("15:04")
}

// CountsSnapshot is the per-cafeteria status breakdown the dashboard header
// renders. Derived data; safe to discard and rebuild at any time.
type CountsSnapshot struct {
	CafeteriaID uint           `json:"cafeteria_id"`
	ByStatus    map[Status]int `json:"by_status"`
	Total       int            `json:"total"`
	ComputedAt  time.Time      `json:"computed_at"`
}
