package domain

import (
	"errors"
	"testing"
	"time"
)

func TestQuorumIsExactEquality(t *testing.T) {
	cases := []struct {
		votes, perTeam int
		want           bool
	}{
		{0, 3, false},
		{2, 3, false},
		{3, 3, true},
		{4, 3, false}, // nunca debería pasar, pero el check es por igualdad
	}
	for _, c := range cases {
		if got := QuorumReached(c.votes, c.perTeam); got != c.want {
			t.Errorf("QuorumReached(%d, %d) = %v", c.votes, c.perTeam, got)
		}
	}
}

func TestForceConfirmThresholdIsHalfRoundedDown(t *testing.T) {
	cases := map[int]int{2: 1, 3: 1, 4: 2, 5: 2, 6: 3}
	for perTeam, want := range cases {
		if got := ForceConfirmThreshold(perTeam); got != want {
			t.Errorf("ForceConfirmThreshold(%d) = %d, want %d", perTeam, got, want)
		}
	}
}

func TestCanOpenForceConfirm(t *testing.T) {
	cases := []struct {
		name      string
		perTeam   int
		awayVotes int
		until     time.Duration
		want      error
	}{
		{"per team too small", 1, 1, 10 * time.Minute, ErrForceConfirmPerTeam},
		{"not enough votes", 4, 1, 10 * time.Minute, ErrForceConfirmTooFewVotes},
		{"too early", 4, 2, 2 * time.Hour, ErrForceConfirmTooEarly},
		{"exactly at the window", 4, 2, 30 * time.Minute, nil},
		{"inside the window", 4, 2, 5 * time.Minute, nil},
		{"already past start", 4, 2, -time.Minute, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := CanOpenForceConfirm(c.perTeam, c.awayVotes, c.until)
			if !errors.Is(err, c.want) {
				t.Fatalf("err = %v, want %v", err, c.want)
			}
		})
	}
}

func TestWantsReminder(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if WantsReminder(now, now.Add(2*time.Hour)) {
		t.Error("short-notice scrim should not get a reminder")
	}
	if WantsReminder(now, now.Add(24*time.Hour)) {
		t.Error("exactly 24h is not more than a day out")
	}
	if !WantsReminder(now, now.Add(48*time.Hour)) {
		t.Error("two-day-out scrim should get a reminder")
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []ScrimStatus{StatusPendingHost, StatusPendingAway, StatusScheduled} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if ScrimStatus("cancelled").Valid() {
		t.Error("cancelled is not a status, cancellation deletes the row")
	}
}
