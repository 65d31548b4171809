package db

import (
	"testing"
	"time"
)

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{StatusReviewing, false},
		{StatusResolved, true},
		{StatusExpired, true},
		{"unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := IsTerminal(tt.status); got != tt.expected {
				t.Errorf("IsTerminal(%q) = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}

func TestValidStatus(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{StatusReviewing, true},
		{StatusResolved, true},
		{StatusExpired, true},
		{"", false},
		{"in_review", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := ValidStatus(tt.status); got != tt.expected {
				t.Errorf("ValidStatus(%q) = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}

func TestValidMatchScore(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		expected bool
	}{
		{"lower bound", 0, true},
		{"upper bound", 100, true},
		{"mid range", 73, true},
		{"negative", -1, false},
		{"too high", 101, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidMatchScore(tt.score); got != tt.expected {
				t.Errorf("ValidMatchScore(%d) = %v, want %v", tt.score, got, tt.expected)
			}
		})
	}
}

func TestApplication_IsExpirable(t *testing.T) {
	now := time.Now()
	window := 2 * time.Minute

	tests := []struct {
		name     string
		status   string
		age      time.Duration
		expected bool
	}{
		{"fresh reviewing", StatusReviewing, time.Second, false},
		{"stale reviewing", StatusReviewing, 3 * time.Minute, true},
		{"exactly at window", StatusReviewing, window, false},
		{"stale resolved", StatusResolved, 3 * time.Minute, false},
		{"stale expired", StatusExpired, 3 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Application{Status: tt.status, CreatedAt: now.Add(-tt.age)}
			if got := a.IsExpirable(window, now); got != tt.expected {
				t.Errorf("IsExpirable() = %v, want %v", got, tt.expected)
			}
		})
	}
}
