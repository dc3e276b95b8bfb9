package core

import (
	"encoding/json"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"0", 0, true},
		{"1", 100, true},
		{"1.2", 120, true},
		{"1,23", 123, true},
		{"12.345", 1235, true},
		{"12.344", 1234, true},
		{"-30.00", -3000, true},
		{"  150.00 ", 15000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{"9999999999.99", 999999999999, true},
		{"-9999999999.99", -999999999999, true},
		{"9999999999.995", 0, false},
		{"10000000000", 0, false},
		{"-10000000000", 0, false},
		{"100000000000000000000", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q: unexpected err %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
		if tc.ok && got.Cents() != tc.cents {
			t.Fatalf("%q: got %d cents, want %d", tc.in, got.Cents(), tc.cents)
		}
	}
}

func TestMoneyArithmeticAndString(t *testing.T) {
	a := NewMoneyFromCents(10000)
	b := MustParseMoney("50")
	if got := a.Add(b).String(); got != "150.00" {
		t.Fatalf("add = %s", got)
	}
	if got := a.Sub(MustParseMoney("130.5")).String(); got != "-30.50" {
		t.Fatalf("sub = %s", got)
	}
	if !Zero.IsZero() || Zero.String() != "0.00" {
		t.Fatalf("zero value misbehaves: %s", Zero)
	}
	if a.Cmp(b) != 1 || b.Cmp(a) != -1 || a.Cmp(NewMoneyFromCents(10000)) != 0 {
		t.Fatalf("cmp mismatch")
	}
}

func TestMoneyJSON(t *testing.T) {
	var payload struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":"12.34","b":5.5}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.A.Cents() != 1234 || payload.B.Cents() != 550 {
		t.Fatalf("got %s %s", payload.A, payload.B)
	}
	out, err := json.Marshal(payload.B)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"5.50"` {
		t.Fatalf("marshal = %s", out)
	}
}

func TestPercentageZeroGuard(t *testing.T) {
	if got := Percentage(MustParseMoney("10"), Zero); got != 0 {
		t.Fatalf("expected 0 for zero denominator, got %v", got)
	}
	if got := Percentage(MustParseMoney("150"), MustParseMoney("200")); got != 75 {
		t.Fatalf("expected 75, got %v", got)
	}
}
