// Package ballot implements the per-ballot composition state machine: an
// interactive constraint solver over a fixed vote budget with per-candidate
// cumulation ceilings, plus the priority-ordered referendum variant.
//
// A draft never surfaces hard errors. Transitions that would violate a
// constraint are rejected silently, leaving the previous state intact; the
// UI reads the snapshot to show remaining votes and submit eligibility. The
// authoritative verdict on a submission belongs to the server.
package ballot

import "sort"

// Draft is the in-memory vote allocation for one vote-based ballot. It is
// ephemeral: discarded on cancel, submit, or navigation, never persisted.
type Draft struct {
	votesPerBallot int
	maxCumulative  int

	votes   map[int]int
	invalid bool
}

// NewDraft starts an empty draft. maxCumulative == 0 means no cumulation:
// every candidate may receive at most one vote.
func NewDraft(votesPerBallot, maxCumulative int) *Draft {
	if votesPerBallot < 1 {
		votesPerBallot = 1
	}
	return &Draft{
		votesPerBallot: votesPerBallot,
		maxCumulative:  maxCumulative,
		votes:          make(map[int]int),
	}
}

// Ceiling is the effective per-candidate maximum.
func (d *Draft) Ceiling() int {
	if d.maxCumulative > 0 {
		return d.maxCumulative
	}
	return 1
}

// Set assigns n votes to the candidate with the given list number. The
// transition is accepted iff 0 <= n <= ceiling and the delta against the
// previous value keeps the remaining budget non-negative. Rejected
// transitions keep the previous value; the return value reports acceptance.
// Setting the same n twice is a no-op, so Set is idempotent.
func (d *Draft) Set(listNumber, n int) bool {
	if n < 0 || n > d.Ceiling() {
		return false
	}
	delta := n - d.votes[listNumber]
	if d.VotesRemaining()-delta < 0 {
		return false
	}
	if n == 0 {
		delete(d.votes, listNumber)
	} else {
		d.votes[listNumber] = n
	}
	return true
}

// Votes returns the current allocation for a candidate.
func (d *Draft) Votes(listNumber int) int {
	return d.votes[listNumber]
}

// VotesRemaining is the unspent budget. The invariant
// remaining + sum(votes) == votesPerBallot holds after any Set sequence.
func (d *Draft) VotesRemaining() int {
	used := 0
	for _, n := range d.votes {
		used += n
	}
	return d.votesPerBallot - used
}

// Reset returns the draft to its initial state, including the invalid flag.
func (d *Draft) Reset() {
	d.votes = make(map[int]int)
	d.invalid = false
}

// ToggleInvalid flips the explicit invalid-ballot flag.
func (d *Draft) ToggleInvalid() {
	d.invalid = !d.invalid
}

// Invalid reports whether the voter opted for an invalid ballot.
func (d *Draft) Invalid() bool {
	return d.invalid
}

// CanSubmit reports the submit gate: the ballot is submittable iff it was
// marked invalid, or the budget is fully spent with no candidate above the
// ceiling. The ceiling part cannot be violated through Set, but the gate
// re-checks it so the law holds independently of how the state was reached.
func (d *Draft) CanSubmit() bool {
	if d.invalid {
		return true
	}
	if d.VotesRemaining() != 0 {
		return false
	}
	for _, n := range d.votes {
		if n > d.Ceiling() {
			return false
		}
	}
	return true
}

// VoteDecision is one compacted allocation entry of a submission payload.
type VoteDecision struct {
	ListNumber int `json:"listnum"`
	Votes      int `json:"votes"`
}

// Submission is the payload sent to the voting API for one ballot.
type Submission struct {
	ElectionID   string         `json:"electionId"`
	Valid        bool           `json:"valid"`
	VoteDecision []VoteDecision `json:"voteDecision"`
}

// Submit produces the submission payload, or ok == false while the gate is
// closed. An invalid ballot carries an empty decision list; otherwise the
// compacted allocation (zero entries removed) is emitted in ascending list
// number order.
func (d *Draft) Submit(electionID string) (Submission, bool) {
	if !d.CanSubmit() {
		return Submission{}, false
	}
	sub := Submission{
		ElectionID:   electionID,
		Valid:        !d.invalid,
		VoteDecision: []VoteDecision{},
	}
	if d.invalid {
		return sub, true
	}
	for listNumber, n := range d.votes {
		sub.VoteDecision = append(sub.VoteDecision, VoteDecision{ListNumber: listNumber, Votes: n})
	}
	sort.Slice(sub.VoteDecision, func(i, j int) bool {
		return sub.VoteDecision[i].ListNumber < sub.VoteDecision[j].ListNumber
	})
	return sub, true
}

// Snapshot is the UI-facing view of a draft.
type Snapshot struct {
	VotesPerBallot int         `json:"votesPerBallot"`
	VotesRemaining int         `json:"votesRemaining"`
	Allocations    map[int]int `json:"allocations"`
	Invalid        bool        `json:"invalid"`
	CanSubmit      bool        `json:"canSubmit"`
}

// State returns a copy of the current draft state.
func (d *Draft) State() Snapshot {
	alloc := make(map[int]int, len(d.votes))
	for k, v := range d.votes {
		alloc[k] = v
	}
	return Snapshot{
		VotesPerBallot: d.votesPerBallot,
		VotesRemaining: d.VotesRemaining(),
		Allocations:    alloc,
		Invalid:        d.invalid,
		CanSubmit:      d.CanSubmit(),
	}
}
