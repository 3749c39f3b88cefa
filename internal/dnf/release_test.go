package dnf

import "testing"

func TestReleasePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fedora release 40 (Forty)", "40"},
		{"Fedora release 42 (Adams)", "42"},
		{"Fedora Linux 41 (Workstation Edition)", "41"},
		{"CentOS Stream release 9", ""},
		{"", ""},
	}
	for _, tt := range tests {
		var got string
		if m := releasePattern.FindStringSubmatch(tt.in); m != nil {
			got = m[1]
		}
		if got != tt.want {
			t.Errorf("releasePattern on %q = %q, want %q", tt.in, got, tt.want)
		}
	}
}
