package ballot

import (
	"testing"

	"github.com/uniwahl/wahlportal/internal/election"
)

func TestStoreCreateModeSelectsDraftKind(t *testing.T) {
	s := NewStore()

	vote := s.Create("abcd1234", election.Election{
		ID:             "el-1",
		Mode:           election.ModeProportional,
		VotesPerBallot: 5,
	}, nil)
	if vote.Draft == nil || vote.Referendum != nil {
		t.Error("proportional election should get a vote draft")
	}

	ref := s.Create("abcd1234", election.Election{
		ID:   "el-2",
		Mode: election.ModeReferendum,
		Info: "Semesterticket",
	}, referendumOptions())
	if ref.Referendum == nil || ref.Draft != nil {
		t.Error("referendum election should get a referendum draft")
	}
}

func TestStoreOneSessionPerVoterAndElection(t *testing.T) {
	s := NewStore()
	e := election.Election{ID: "el-1", Mode: election.ModeMajority, VotesPerBallot: 1}

	first := s.Create("abcd1234", e, nil)
	second := s.Create("abcd1234", e, nil)

	if _, ok := s.Get(first.ID); ok {
		t.Error("starting over should discard the previous session")
	}
	if _, ok := s.Get(second.ID); !ok {
		t.Error("the new session should be live")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}

	// A different voter on the same election keeps their own session.
	other := s.Create("wxyz9876", e, nil)
	if _, ok := s.Get(other.ID); !ok {
		t.Error("other voter's session should be live")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestStoreDiscard(t *testing.T) {
	s := NewStore()
	sess := s.Create("abcd1234", election.Election{ID: "el-1", Mode: election.ModeMajority, VotesPerBallot: 1}, nil)

	s.Discard(sess.ID)
	if _, ok := s.Get(sess.ID); ok {
		t.Error("discarded session should be gone")
	}

	// Unknown IDs are a no-op.
	s.Discard("nope")
}
