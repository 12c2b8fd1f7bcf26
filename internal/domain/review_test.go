package domain

import "testing"

func TestAverageRating(t *testing.T) {
	// No reviews: the average is absent, not zero.
	if _, ok := AverageRating(nil); ok {
		t.Fatalf("expected no average for empty review set")
	}

	avg, ok := AverageRating([]Review{{Rating: 5}, {Rating: 3}, {Rating: 4}})
	if !ok {
		t.Fatalf("expected an average")
	}
	if avg != 4.0 {
		t.Errorf("expected average 4.0, got %v", avg)
	}

	avg, ok = AverageRating([]Review{{Rating: 2}})
	if !ok || avg != 2.0 {
		t.Errorf("expected average 2.0, got %v (ok=%v)", avg, ok)
	}
}

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"", CategoryOther, true},
		{"shop", CategoryShop, true},
		{"Restaurant", CategoryRestaurant, true},
		{" doctor ", CategoryDoctor, true},
		{"other", CategoryOther, true},
		{"gym", "", false},
	}

	for _, c := range cases {
		got, ok := ParseCategory(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseCategory(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}
