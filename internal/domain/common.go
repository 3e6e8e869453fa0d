package domain

import (
	"fmt"
	"strings"
)

// Direction represents the side of a trade (Buy for long, Short).
type Direction string

const (
	Buy   Direction = "Buy"
	Short Direction = "Short"
)

// IsValid reports whether d is one of the known directions.
func (d Direction) IsValid() bool {
	return d == Buy || d == Short
}

// ParseDirection converts user or broker input into a Direction.
// "long" and "sell" are accepted as aliases for Buy and Short.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "long":
		return Buy, nil
	case "short", "sell":
		return Short, nil
	default:
		return "", fmt.Errorf("unknown direction %q (use Buy or Short): %w", s, ErrInvalidTrade)
	}
}

// TradeStatus is the lifecycle state derived from a trade's exit fields.
type TradeStatus string

const (
	StatusOpen   TradeStatus = "open"
	StatusClosed TradeStatus = "closed"
)
