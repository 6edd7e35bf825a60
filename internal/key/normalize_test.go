package key

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"foo.bar", "foo.bar"},
		{"foo bar", "foobar"},
		{"foo/bar", "foobar"},
		{"foo$bar!", "foobar"},
		{"Already_Fine-1.2", "Already_Fine-1.2"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"foo/bar baz", "a.b.c", "weird!!chars//here", "trailing   "}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent: Normalize(%q)=%q, Normalize(that)=%q", in, once, twice)
		}
	}
}
