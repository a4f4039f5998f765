package transport

import (
	"time"

	"kantinku-be/internal/order"
)

type OrderResponse struct {
	ID                 string         `json:"id"`
	CafeteriaID        uint           `json:"cafeteria_id"`
	CustomerID         uint           `json:"customer_id"`
	Status             order.Status   `json:"status"`
	TotalAmount        int            `json:"total_amount"`
	PickupTime         *time.Time     `json:"pickup_time,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	CancellationReason *string        `json:"cancellation_reason,omitempty"`
	CancelledBy        *string        `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time     `json:"cancelled_at,omitempty"`
	Items              []ItemResponse `json:"items,omitempty"`
}

type ItemResponse struct {
	MenuItemID uint    `json:"menu_item_id"`
	Name       string  `json:"name,omitempty"`
	Quantity   int     `json:"quantity"`
	UnitPrice  int     `json:"unit_price"`
	Notes      *string `json:"notes,omitempty"`
}

type DetailResponse struct {
	OrderResponse
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	ElapsedSec    int64  `json:"elapsed_sec"`
	PickupLabel   string `json:"pickup_label"`
}

func toOrderResponse(o *order.Order) OrderResponse {
	items := make([]ItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemResponse{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Notes:      it.Notes,
		})
	}

	var cancelledBy *string
	if o.CancelledBy != nil {
		v := string(*o.CancelledBy)
		cancelledBy = &v
	}

	return OrderResponse{
		ID:                 o.ID.String(),
		CafeteriaID:        o.CafeteriaID,
		CustomerID:         o.CustomerID,
		Status:             o.Status,
		TotalAmount:        o.Total(),
		PickupTime:         o.PickupTime,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		CancellationReason: o.CancellationReason,
		CancelledBy:        cancelledBy,
		CancelledAt:        o.CancelledAt,
		Items:              items,
	}
}

func toDetailResponse(d *order.Detail, now time.Time) DetailResponse {
	return DetailResponse{
		OrderResponse: toOrderResponse(&d.Order),
		CustomerName:  d.CustomerName,
		CustomerEmail: d.CustomerEmail,
		ElapsedSec:    int64(d.Elapsed(now).Seconds()),
		PickupLabel:   d.PickupLabel(),
	}
}
