package mykafka

import "time"

// Event is the envelope written to every topic.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

const (
	CartItemAdded    = "cart.item_added"
	CartItemUpdated  = "cart.item_updated"
	CartItemRemoved  = "cart.item_removed"
	CartCleared      = "cart.cleared"
	OrderCreated     = "order.created"
	OrderStatus      = "order.status_changed"
	OrderPayment     = "order.payment_updated"
	ProductCreated   = "product.created"
	ProductUpdated   = "product.updated"
	ProductDeleted   = "product.deleted"
	InventoryChanged = "product.inventory_changed"
)

func NewEvent(typ string, data any) Event {
	return Event{Type: typ, OccurredAt: time.Now().UTC(), Data: data}
}
