package vault

import "testing"

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "Hello_World"},
		{"  spaced   out  ", "spaced_out"},
		{"Go 1.25: What's New?", "Go_125_Whats_New"},
		{"Идея: сделать бэкап", "Идея_сделать_бэкап"},
		{"a/b\\c", "abc"},
		{"___", "___"},
		{"!!!", "note"},
		{"", "note"},
	}
	for _, c := range cases {
		if got := Slug(c.in); got != c.want {
			t.Errorf("Slug(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
