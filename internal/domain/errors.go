package domain

import "errors"

var (
	ErrValidation            = errors.New("validation")             // 400
	ErrInvalidStatus         = errors.New("invalid status")         // 400
	ErrInsufficientInventory = errors.New("insufficient inventory") // 400
	ErrUnauthorized          = errors.New("unauthorized")           // 401
	ErrForbidden             = errors.New("forbidden")              // 403
	ErrNotFound              = errors.New("not found")              // 404
	ErrConflict              = errors.New("conflict")               // 409
	ErrPaymentGateway        = errors.New("payment gateway")        // 502
)
