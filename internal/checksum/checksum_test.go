package checksum

import "testing"

func TestSum_Stable(t *testing.T) {
	a := Sum([]byte("name: Bob\n"))
	if a != Sum([]byte("name: Bob\n")) {
		t.Fatal("Sum not deterministic")
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
	if a == Sum([]byte("name: Rob\n")) {
		t.Error("different content produced the same sum")
	}
}

func TestMatches(t *testing.T) {
	cur := Sum([]byte("x"))
	cases := []struct {
		header string
		want   bool
	}{
		{"", true},
		{"*", true},
		{cur, true},
		{ETag(cur), true},
		{"W/" + ETag(cur), true},
		{`"other", ` + ETag(cur), true},
		{"stale", false},
		{ETag("stale"), false},
	}
	for _, c := range cases {
		if got := Matches(c.header, cur); got != c.want {
			t.Errorf("Matches(%q) = %v, want %v", c.header, got, c.want)
		}
	}
}
