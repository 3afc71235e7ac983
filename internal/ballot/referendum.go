package ballot

import (
	"sort"
	"strconv"
	"strings"

	"github.com/uniwahl/wahlportal/internal/election"
)

// Unselected marks an empty priority slot.
const Unselected = 0

// ReferendumDraft is the draft for a referendum ballot: an ordered sequence
// of priority slots, each holding one option number. Lower priority index
// means higher importance.
type ReferendumDraft struct {
	description string
	options     map[int]election.ReferendumOption

	slots   []int
	invalid bool
}

// NewReferendumDraft starts an empty referendum draft with one priority slot
// per option. description is the election's descriptive text; it feeds the
// synthetic option identifier some servers expect.
func NewReferendumDraft(description string, options []election.ReferendumOption) *ReferendumDraft {
	byNr := make(map[int]election.ReferendumOption, len(options))
	for _, o := range options {
		byNr[o.Nr] = o
	}
	return &ReferendumDraft{
		description: description,
		options:     byNr,
		slots:       make([]int, len(options)),
	}
}

// abstentionAt reports whether the slot at index i holds the abstention
// option.
func (r *ReferendumDraft) abstentionAt(i int) bool {
	nr := r.slots[i]
	return nr != Unselected && r.options[nr].IsAbstention()
}

// firstAbstention returns the slot index of the highest-priority abstention,
// or -1. Slots after it carry no meaning.
func (r *ReferendumDraft) firstAbstention() int {
	for i := range r.slots {
		if r.abstentionAt(i) {
			return i
		}
	}
	return -1
}

// Select binds an option to a priority (1-based). The transition is rejected
// when the priority is out of range, the option is unknown, a non-abstention
// option is already bound to another priority, or a higher-ranked priority
// already chose abstention. Re-selecting an occupied priority replaces its
// binding: the latest user action wins.
func (r *ReferendumDraft) Select(priority, optionNr int) bool {
	idx := priority - 1
	if idx < 0 || idx >= len(r.slots) {
		return false
	}
	opt, known := r.options[optionNr]
	if !known {
		return false
	}
	if ab := r.firstAbstention(); ab >= 0 && ab < idx {
		return false
	}
	if !opt.IsAbstention() {
		for i, nr := range r.slots {
			if i != idx && nr == optionNr {
				return false
			}
		}
	}
	r.slots[idx] = optionNr
	return true
}

// Unselect empties a priority slot.
func (r *ReferendumDraft) Unselect(priority int) {
	idx := priority - 1
	if idx >= 0 && idx < len(r.slots) {
		r.slots[idx] = Unselected
	}
}

// Option returns the option number bound to a priority, or Unselected.
func (r *ReferendumDraft) Option(priority int) int {
	idx := priority - 1
	if idx < 0 || idx >= len(r.slots) {
		return Unselected
	}
	return r.slots[idx]
}

// Reset returns the draft to its initial state.
func (r *ReferendumDraft) Reset() {
	r.slots = make([]int, len(r.slots))
	r.invalid = false
}

// ToggleInvalid flips the explicit invalid-ballot flag.
func (r *ReferendumDraft) ToggleInvalid() {
	r.invalid = !r.invalid
}

// Invalid reports whether the voter opted for an invalid ballot.
func (r *ReferendumDraft) Invalid() bool {
	return r.invalid
}

// CanSubmit reports the submit gate: all priorities filled, or the ballot
// marked invalid. Priorities below an abstention are exempt because they are
// meaningless once abstention dominates.
func (r *ReferendumDraft) CanSubmit() bool {
	if r.invalid {
		return true
	}
	limit := len(r.slots)
	if ab := r.firstAbstention(); ab >= 0 {
		limit = ab + 1
	}
	for i := 0; i < limit; i++ {
		if r.slots[i] == Unselected {
			return false
		}
	}
	return true
}

// Choice is one priority binding of a referendum submission.
type Choice struct {
	Priority int `json:"priority"`
	OptionNr int `json:"nr"`
}

// ReferendumSubmission is the payload for one referendum ballot. OptionID is
// the synthetic candidate identifier formed from the election description and
// the chosen option numbers.
type ReferendumSubmission struct {
	ElectionID string   `json:"electionId"`
	Valid      bool     `json:"valid"`
	Choices    []Choice `json:"choices"`
	OptionID   string   `json:"optionId,omitempty"`
}

// Submit produces the submission payload, or ok == false while the gate is
// closed. Choices are sorted ascending by priority; slots after an
// abstention are dropped.
func (r *ReferendumDraft) Submit(electionID string) (ReferendumSubmission, bool) {
	if !r.CanSubmit() {
		return ReferendumSubmission{}, false
	}
	sub := ReferendumSubmission{
		ElectionID: electionID,
		Valid:      !r.invalid,
		Choices:    []Choice{},
	}
	if r.invalid {
		return sub, true
	}

	limit := len(r.slots)
	if ab := r.firstAbstention(); ab >= 0 {
		limit = ab + 1
	}
	nums := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		sub.Choices = append(sub.Choices, Choice{Priority: i + 1, OptionNr: r.slots[i]})
		nums = append(nums, strconv.Itoa(r.slots[i]))
	}
	sort.Slice(sub.Choices, func(i, j int) bool { return sub.Choices[i].Priority < sub.Choices[j].Priority })

	sub.OptionID = syntheticOptionID(r.description, nums)
	return sub, true
}

// ReferendumSnapshot is the UI-facing view of a referendum draft. Slots[i]
// holds the option number bound to priority i+1, or Unselected.
type ReferendumSnapshot struct {
	Slots     []int `json:"slots"`
	Invalid   bool  `json:"invalid"`
	CanSubmit bool  `json:"canSubmit"`
}

// State returns a copy of the current draft state.
func (r *ReferendumDraft) State() ReferendumSnapshot {
	slots := make([]int, len(r.slots))
	copy(slots, r.slots)
	return ReferendumSnapshot{
		Slots:     slots,
		Invalid:   r.invalid,
		CanSubmit: r.CanSubmit(),
	}
}

// syntheticOptionID concatenates the lowercased, whitespace-stripped election
// description with the comma-joined option numbers.
func syntheticOptionID(description string, nums []string) string {
	stripped := strings.Join(strings.Fields(strings.ToLower(description)), "")
	return stripped + strings.Join(nums, ",")
}
