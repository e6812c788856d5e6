package clipboard

import "testing"

func TestTitle(t *testing.T) {
	cases := []struct{ in, want string }{
		{"First line\nsecond line", "First line"},
		{"  padded  \nrest", "padded"},
		{"", "ClipboardContent"},
		{"\n\n", "ClipboardContent"},
	}
	for _, c := range cases {
		if got := Title(c.in); got != c.want {
			t.Errorf("Title(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTitleCapsLength(t *testing.T) {
	long := ""
	for range 20 {
		long += "abcde"
	}
	got := Title(long)
	if len([]rune(got)) != 50 {
		t.Errorf("len = %d", len([]rune(got)))
	}
}
