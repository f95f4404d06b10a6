package worker

import (
	"testing"
	"time"
)

func TestCronSpec(t *testing.T) {
	cases := []struct {
		interval time.Duration
		want     string
	}{
		{0, "*/1 * * * *"},
		{30 * time.Second, "*/1 * * * *"},
		{time.Minute, "*/1 * * * *"},
		{5 * time.Minute, "*/5 * * * *"},
		{2 * time.Hour, "*/59 * * * *"},
	}
	for _, tc := range cases {
		if got := cronSpec(tc.interval); got != tc.want {
			t.Errorf("cronSpec(%v) = %q, want %q", tc.interval, got, tc.want)
		}
	}
}
