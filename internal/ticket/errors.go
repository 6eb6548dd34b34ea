package ticket

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOrderVoid         = errors.New("order is void")
	ErrAlreadyVoid       = errors.New("line is already void")
	ErrAlreadyReturned   = errors.New("product line is already returned")
	ErrItemNotFound      = errors.New("line item not found")
	ErrServiceNotFound   = errors.New("service line not found")
	ErrWrongItemType     = errors.New("operation does not apply to this line type")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrRefundExceedsPaid = errors.New("refund exceeds amount paid")
	ErrNothingToRefund   = errors.New("nothing to refund")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyOrder        = errors.New("order has no devices or products")
	ErrUnknownProduct    = errors.New("product not found")
	ErrUnpricedService   = errors.New("service has no price")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrWarrantyParent    = errors.New("warranty requires a completed or collected parent ticket")
)
