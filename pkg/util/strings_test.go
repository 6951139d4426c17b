package util

import "testing"

func TestParseIntDefault(t *testing.T) {
	cases := []struct {
		in   string
		def  int
		want int
	}{
		{"", 5, 5},
		{"12", 5, 12},
		{" -3 ", 0, -3},
		{"abc", 7, 7},
	}
	for _, c := range cases {
		if got := ParseIntDefault(c.in, c.def); got != c.want {
			t.Errorf("ParseIntDefault(%q, %d) = %d, want %d", c.in, c.def, got, c.want)
		}
	}
}

func TestFold(t *testing.T) {
	if got := Fold("  Fed Holds RATES \n"); got != "fed holds rates" {
		t.Fatalf("got %q", got)
	}
}
