package oms

import (
	"errors"

	"github.com/joripage/matching-engine/pkg/oms/position"
)

var (
	ErrDuplicateOrder       = errors.New("duplicate order")
	ErrOrderNotFound        = errors.New("order not found")
	ErrCancelRejected       = errors.New("order cannot be cancelled")
	ErrInsufficientPosition = position.ErrInsufficientPosition
)
