package risk

import (
	"testing"

	"github.com/shopspring/decimal"

	"tradingJournal/internal/domain"
)

func TestDefaults(t *testing.T) {
	d := NewDefaults()
	entry := decimal.NewFromInt(100)

	// Test stop loss calculation
	if got := d.StopLoss(entry, domain.Buy).InexactFloat64(); got != 95 {
		t.Errorf("Expected buy stop loss 95, got %v", got)
	}
	if got := d.StopLoss(entry, domain.Short).InexactFloat64(); got != 105 {
		t.Errorf("Expected short stop loss 105, got %v", got)
	}

	// Test take profit calculation
	if got := d.TakeProfit(entry, domain.Buy).InexactFloat64(); got != 110 {
		t.Errorf("Expected buy target 110, got %v", got)
	}
	if got := d.TakeProfit(entry, domain.Short).InexactFloat64(); got != 90 {
		t.Errorf("Expected short target 90, got %v", got)
	}
}

func TestDefaultsApplyKeepsExistingPlan(t *testing.T) {
	trade := &domain.Trade{Direction: domain.Buy, EntryPrice: 40, StopLoss: domain.Float(39)}
	NewDefaults().Apply(trade)

	if *trade.StopLoss != 39 {
		t.Errorf("Expected existing stop loss to be kept, got %v", *trade.StopLoss)
	}
	if trade.TargetPrice == nil || *trade.TargetPrice != 44 {
		t.Errorf("Expected default target 44, got %v", trade.TargetPrice)
	}
}

func TestDefaultsValidate(t *testing.T) {
	tests := []struct {
		name    string
		d       Defaults
		wantErr bool
	}{
		{"standard", NewDefaults(), false},
		{"zero stop", Defaults{StopLossPercent: 0, TakeProfitPercent: 0.1}, true},
		{"target of 100%", Defaults{StopLossPercent: 0.05, TakeProfitPercent: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
