package util

import "testing"

func TestFormatByteSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{2 * 1024 * 1024, "2.0 MB"},
		{5*1024*1024*1024 + 300*1024*1024, "5.3 GB"},
	}
	for _, tc := range cases {
		if got := FormatByteSize(tc.in); got != tc.want {
			t.Errorf("FormatByteSize(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
