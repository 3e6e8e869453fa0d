// Package indicators computes chart overlays from daily price bars.
package indicators

import (
	"fmt"
	"strings"

	"tradingJournal/internal/domain"
)

// MovingAverageType defines the type of moving average
type MovingAverageType string

const (
	// SimpleMovingAverage represents a simple moving average
	SimpleMovingAverage MovingAverageType = "SMA"
	// ExponentialMovingAverage represents an exponential moving average
	ExponentialMovingAverage MovingAverageType = "EMA"
)

// ParseMovingAverageType accepts sma or ema in any case.
func ParseMovingAverageType(s string) (MovingAverageType, error) {
	switch MovingAverageType(strings.ToUpper(strings.TrimSpace(s))) {
	case SimpleMovingAverage:
		return SimpleMovingAverage, nil
	case ExponentialMovingAverage:
		return ExponentialMovingAverage, nil
	}
	return "", fmt.Errorf("unsupported moving average type: %s", s)
}

// MovingAverage is a closing-price moving average over Period bars.
type MovingAverage struct {
	Type   MovingAverageType
	Period int
}

// NewMovingAverage creates a new moving average indicator instance
func NewMovingAverage(typ MovingAverageType, period int) (*MovingAverage, error) {
	if period <= 0 {
		return nil, fmt.Errorf("moving average period must be positive, got %d", period)
	}
	if typ != SimpleMovingAverage && typ != ExponentialMovingAverage {
		return nil, fmt.Errorf("unsupported moving average type: %s", typ)
	}
	return &MovingAverage{Type: typ, Period: period}, nil
}

// Name returns a column label such as "SMA(20)".
func (m *MovingAverage) Name() string {
	return fmt.Sprintf("%s(%d)", m.Type, m.Period)
}

// Series returns one value per bar. The first Period-1 entries are nil.
func (m *MovingAverage) Series(bars []*domain.PriceBar) []*float64 {
	out := make([]*float64, len(bars))
	if len(bars) < m.Period {
		return out
	}

	var total float64
	for i := 0; i < m.Period; i++ {
		total += bars[i].Close
	}
	avg := total / float64(m.Period)
	out[m.Period-1] = domain.Float(avg)

	multiplier := 2.0 / float64(m.Period+1)
	for i := m.Period; i < len(bars); i++ {
		switch m.Type {
		case SimpleMovingAverage:
			total += bars[i].Close - bars[i-m.Period].Close
			avg = total / float64(m.Period)
		case ExponentialMovingAverage:
			// seeded with the SMA of the first window
			avg = (bars[i].Close-avg)*multiplier + avg
		}
		out[i] = domain.Float(avg)
	}
	return out
}
