package domain

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusCompleted  OrderStatus = "COMPLETED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// PaymentState tracks the payment request attached to a PENDING order.
// FAILED on a PENDING order means the order exists but no payment handle
// could be obtained; the order may be retried.
type PaymentState string

const (
	PaymentNone      PaymentState = "NONE"
	PaymentRequested PaymentState = "REQUESTED"
	PaymentFailed    PaymentState = "FAILED"
	PaymentSucceeded PaymentState = "SUCCEEDED"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("status %q: %w", s, ErrInvalidStatus)
}

// CanTransition reports whether an order may move from one status to
// another. Repeating the current status is allowed.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	switch to {
	case StatusProcessing:
		return from == StatusPending
	case StatusCompleted:
		return from == StatusProcessing
	case StatusCancelled:
		return from != StatusCancelled
	}
	return false
}

// RestocksOnCancel reports whether cancelling from this status returns the
// order's units to inventory. Completed orders have shipped.
func RestocksOnCancel(from OrderStatus) bool {
	return from == StatusPending || from == StatusProcessing
}
