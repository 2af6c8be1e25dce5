package storage

import (
	"testing"
	"time"

	"github.com/jose-valero/scrim-bot/internal/domain"
)

func TestBuildScrimPatchOnlyTouchesSetFields(t *testing.T) {
	msg := "123"
	sets, args := buildScrimPatch(ScrimPatch{AwayMessageID: &msg})

	if len(sets) != 1 || sets[0] != "away_message_id = $1" {
		t.Fatalf("sets = %v", sets)
	}
	if len(args) != 1 || args[0] != "123" {
		t.Fatalf("args = %v", args)
	}
}

func TestBuildScrimPatchEmpty(t *testing.T) {
	sets, args := buildScrimPatch(ScrimPatch{})
	if len(sets) != 0 || len(args) != 0 {
		t.Fatalf("empty patch produced sets=%v args=%v", sets, args)
	}
}

func TestBuildScrimPatchNumbersPlaceholdersInOrder(t *testing.T) {
	when := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	home := "h"
	chat := "c"
	sets, args := buildScrimPatch(ScrimPatch{
		ScheduledFor:  &when,
		HomeMessageID: &home,
		ScrimChatID:   &chat,
	})

	want := []string{"scheduled_for = $1", "home_message_id = $2", "scrim_chat_id = $3"}
	if len(sets) != len(want) {
		t.Fatalf("sets = %v", sets)
	}
	for i := range want {
		if sets[i] != want[i] {
			t.Fatalf("sets[%d] = %q, want %q", i, sets[i], want[i])
		}
	}
	if len(args) != 3 || args[0] != when || args[1] != "h" || args[2] != "c" {
		t.Fatalf("args = %v", args)
	}
}

func TestScrimVoteHelpers(t *testing.T) {
	s := Scrim{
		PerTeam:                    4,
		HomeVoterIDs:               []string{"h1", "h2", "h3", "h4"},
		AwayVoterIDs:               []string{"a1"},
		AwayConfirmAnywaysVoterIDs: []string{"a1", "a2"},
	}
	if !s.HomeQuorum() {
		t.Error("home should have quorum")
	}
	if s.AwayQuorum() {
		t.Error("away should not have quorum")
	}
	if !s.ForceConfirmPassed() {
		t.Error("force confirm should pass at per_team/2 votes")
	}
	if !s.VotedOn(domain.SideHome, "h2") || s.VotedOn(domain.SideAway, "a2") {
		t.Error("VotedOn mismatch")
	}
}
