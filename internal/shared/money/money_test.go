package money

import "testing"

func TestPercentRoundsHalfUp(t *testing.T) {
	cases := []struct {
		amount Money
		pct    int
		want   Money
	}{
		{20000, 50, 10000},
		{20000, 5, 1000},
		{999, 50, 500},  // 499.5 rounds up
		{101, 50, 51},   // 50.5 rounds up
		{100, 33, 33},   // 33.0 exact
		{1, 49, 0},      // 0.49 rounds down
		{1, 50, 1},      // 0.50 rounds up
		{0, 100, 0},
		{-999, 50, -500}, // symmetric with positive case
	}

	for _, c := range cases {
		if got := c.amount.Percent(c.pct); got != c.want {
			t.Errorf("Percent(%d, %d%%) = %d, want %d", c.amount, c.pct, got, c.want)
		}
	}
}

func TestString(t *testing.T) {
	if got := FromCents(12345).String(); got != "123.45" {
		t.Errorf("String() = %q, want %q", got, "123.45")
	}
	if got := FromCents(-50).String(); got != "-0.50" {
		t.Errorf("String() = %q, want %q", got, "-0.50")
	}
	if got := FromCents(5).String(); got != "0.05" {
		t.Errorf("String() = %q, want %q", got, "0.05")
	}
}
