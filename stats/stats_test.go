package stats

import (
	"testing"
	"time"
)

func TestHitRatioZeroWhenIdle(t *testing.T) {
	c := NewCollector()
	if got := c.HitRatio(); got != 0 {
		t.Fatalf("expected 0 with no requests, got %v", got)
	}
}

func TestHitRatioCounts(t *testing.T) {
	c := NewCollector()
	c.Hit()
	c.Hit()
	c.Hit()
	c.Miss()

	if got := c.HitRatio(); got != 0.75 {
		t.Fatalf("expected 0.75, got %v", got)
	}
}

func TestAgeBuckets(t *testing.T) {
	cases := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Second, BucketUnderMinute},
		{90 * time.Second, BucketUnderFive},
		{30 * time.Minute, BucketUnderHour},
		{2 * time.Hour, BucketOverHour},
	}
	for _, tc := range cases {
		if got := AgeBucket(tc.age); got != tc.want {
			t.Fatalf("AgeBucket(%v) = %q, want %q", tc.age, got, tc.want)
		}
	}
}
