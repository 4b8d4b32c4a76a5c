package orderbook

import "errors"

var (
	ErrDuplicateOrderID = errors.New("duplicate order id")
)
