package api

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestJSONCodec(t *testing.T) {
	c := jsonCodec{}
	if c.Name() != "json" {
		t.Errorf("unexpected codec name %q", c.Name())
	}

	req := &AddExpenseRequest{
		Description: "Taxi",
		Amount:      decimal.RequireFromString("50.00"),
		PaidBy:      1,
		SplitType:   "PERCENTAGE",
		Inputs:      map[int64]decimal.Decimal{2: decimal.RequireFromString("60")},
	}
	data, err := c.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, want := range []string{`"amount":"50"`, `"inputs":{"2":"60"}`, `"split_type":"PERCENTAGE"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("encoded %s missing %s", data, want)
		}
	}

	var got AddExpenseRequest
	if err := c.Unmarshal([]byte(`{"amount": 12.5, "paid_by": 2, "inputs": {"3": "40"}}`), &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("12.5")) || got.PaidBy != 2 || !got.Inputs[3].Equal(decimal.NewFromInt(40)) {
		t.Errorf("unexpected decoded request: %+v", got)
	}

	if err := c.Unmarshal(nil, &got); err != nil {
		t.Errorf("empty body should decode to the zero message: %v", err)
	}
	if err := c.Unmarshal([]byte(`{"amount": "lots"}`), &got); err == nil {
		t.Error("expected error for invalid amount")
	}
}
