package board

import "testing"

func TestUnitByteRoundTrip(t *testing.T) {
	units := []Unit{
		{},
		{Color: Black, P: 1},
		{Color: White, P: 1},
		{Color: Black, Tribun: true, P: 1},
		{Color: White, Tribun: true, P: 8},
		{Color: Black, P: 4, S: 2},
		{Color: White, P: 4, S: 8},
		{Color: Black, P: 3, S: 6},
		{Color: White, P: 2, S: 4},
		{Color: Black, P: 6},
		{Color: White, P: 8},
	}
	for _, u := range units {
		b := UnitToByte(u)
		got, err := ByteToUnit(b)
		if err != nil {
			t.Fatalf("ByteToUnit(UnitToByte(%v)): %v", u, err)
		}
		if got != u {
			t.Errorf("round trip %v -> 0x%02x -> %v", u, b, got)
		}
	}
	if UnitToByte(Unit{}) != 0 {
		t.Error("empty unit must encode as 0x00")
	}
}

func TestByteToUnitRejects(t *testing.T) {
	cases := []struct {
		name string
		b    byte
	}{
		{"reserved primary index", 0x07},
		{"reserved secondary index", 0x38 | 0x01},
		{"color bit on empty heights", 0x40},
		{"tribun bit on empty heights", 0x80},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ByteToUnit(tc.b); err == nil {
				t.Errorf("ByteToUnit(0x%02x) should fail", tc.b)
			}
		})
	}
}

func TestRoundDownHeight(t *testing.T) {
	cases := []struct {
		in   int
		want uint8
	}{
		{-3, 0}, {0, 0}, {1, 1}, {4, 4}, {5, 4}, {6, 6}, {7, 6}, {8, 8}, {9, 8}, {14, 8},
	}
	for _, tc := range cases {
		if got := RoundDownHeight(tc.in); got != tc.want {
			t.Errorf("RoundDownHeight(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   Unit
		want Unit
	}{
		{
			"valid unit unchanged",
			Unit{Color: Black, P: 4, S: 2},
			Unit{Color: Black, P: 4, S: 2},
		},
		{
			"heights round down",
			Unit{Color: White, P: 7, S: 0},
			Unit{Color: White, P: 6},
		},
		{
			"slave property clears oversized primary",
			Unit{Color: Black, P: 6, S: 2},
			Unit{Color: White, P: 2}, // p cleared, then the slave liberates
		},
		{
			"slave property clears undersized primary",
			Unit{Color: Black, P: 1, S: 4},
			Unit{Color: White, P: 4},
		},
		{
			"liberation flips color and drops tribun",
			Unit{Color: White, Tribun: true, P: 0, S: 3},
			Unit{Color: Black, P: 3},
		},
		{
			"empty stays empty",
			Unit{Color: White, Tribun: true},
			Unit{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
