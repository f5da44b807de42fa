package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func timePtr(t time.Time) *time.Time { return &t }

// The two validity predicates deliberately differ: IsExpired is a strict
// comparison against activeUntil, IsActivelyPaying tolerates up to 30
// days past it. This grid pins both.
func TestSubscriptionPredicates(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name        string
		status      SubscriptionStatus
		activeUntil *time.Time
		wantPaying  bool
		wantExpired bool
	}{
		{
			name:        "active inside window",
			status:      SubscriptionStatusActive,
			activeUntil: timePtr(now.AddDate(0, 0, 10)),
			wantPaying:  true,
			wantExpired: false,
		},
		{
			name:        "active, expired yesterday, still monetized",
			status:      SubscriptionStatusActive,
			activeUntil: timePtr(now.AddDate(0, 0, -1)),
			wantPaying:  true,
			wantExpired: true,
		},
		{
			name:        "active, expired 29 days ago, still monetized",
			status:      SubscriptionStatusActive,
			activeUntil: timePtr(now.AddDate(0, 0, -29)),
			wantPaying:  true,
			wantExpired: true,
		},
		{
			name:        "active, expired 31 days ago, no longer monetized",
			status:      SubscriptionStatusActive,
			activeUntil: timePtr(now.AddDate(0, 0, -31)),
			wantPaying:  false,
			wantExpired: true,
		},
		{
			name:        "pending never pays",
			status:      SubscriptionStatusPending,
			activeUntil: nil,
			wantPaying:  false,
			wantExpired: false,
		},
		{
			name:        "cancelled with future window does not pay",
			status:      SubscriptionStatusCancelled,
			activeUntil: timePtr(now.AddDate(0, 0, 10)),
			wantPaying:  false,
			wantExpired: false,
		},
		{
			name:        "expired status with past window",
			status:      SubscriptionStatusExpired,
			activeUntil: timePtr(now.AddDate(0, 0, -5)),
			wantPaying:  false,
			wantExpired: true,
		},
		{
			name:        "active with no window yet",
			status:      SubscriptionStatusActive,
			activeUntil: nil,
			wantPaying:  false,
			wantExpired: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := &Subscription{Status: tc.status, ActiveUntil: tc.activeUntil}
			assert.Equal(t, tc.wantPaying, sub.IsActivelyPaying(now), "IsActivelyPaying")
			assert.Equal(t, tc.wantExpired, sub.IsExpired(now), "IsExpired")
		})
	}
}

func TestIsActive_FollowsStatusOnly(t *testing.T) {
	past := time.Now().AddDate(0, 0, -10)

	sub := &Subscription{Status: SubscriptionStatusActive, ActiveUntil: &past}
	assert.True(t, sub.IsActive(), "IsActive tracks the stored status, not the clock")

	sub.Status = SubscriptionStatusCancelled
	assert.False(t, sub.IsActive())
}

func TestWithinActivePeriod(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	sub := &Subscription{Status: SubscriptionStatusActive, ActiveUntil: &future}
	assert.True(t, sub.WithinActivePeriod(now))

	sub.ActiveUntil = &past
	assert.False(t, sub.WithinActivePeriod(now))

	sub.ActiveUntil = nil
	assert.False(t, sub.WithinActivePeriod(now))
}
