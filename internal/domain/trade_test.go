package domain

import (
	"errors"
	"math"
	"testing"
)

func TestSide_OppositeAndSign(t *testing.T) {
	if SideBid.Opposite() != SideAsk || SideAsk.Opposite() != SideBid {
		t.Error("Opposite mismatch")
	}
	if SideBid.Sign() != 1 || SideAsk.Sign() != -1 {
		t.Errorf("Sign mismatch: bid=%v ask=%v", SideBid.Sign(), SideAsk.Sign())
	}
	if Side("mid").Valid() {
		t.Error("unknown side should be invalid")
	}
}

func TestTrade_Notional(t *testing.T) {
	tr := NewTrade(SideBid, 100.0, 2.5, 1000)

	if tr.Notional() != 250.0 {
		t.Errorf("expected notional 250, got %f", tr.Notional())
	}
	if !tr.IsBuy() || tr.IsSell() {
		t.Error("bid trade should be a buy")
	}
	if tr.SignedQuantity() != 2.5 {
		t.Errorf("expected signed quantity 2.5, got %f", tr.SignedQuantity())
	}
	if NewTrade(SideAsk, 100.0, 2.5, 1000).SignedQuantity() != -2.5 {
		t.Error("ask trade should have negative signed quantity")
	}
}

func TestTrade_Validate(t *testing.T) {
	tests := []struct {
		name    string
		trade   Trade
		wantErr bool
	}{
		{"valid", NewTrade(SideAsk, 10, 1, 0), false},
		{"zero price", NewTrade(SideBid, 0, 1, 0), true},
		{"negative quantity", NewTrade(SideBid, 10, -1, 0), true},
		{"zero quantity", NewTrade(SideBid, 10, 0, 0), true},
		{"nan price", NewTrade(SideBid, math.NaN(), 1, 0), true},
		{"inf quantity", NewTrade(SideBid, 10, math.Inf(1), 0), true},
		{"unknown side", NewTrade(Side("x"), 10, 1, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trade.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTrade) {
					t.Errorf("expected ErrInvalidTrade, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
