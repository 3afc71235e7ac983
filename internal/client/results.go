package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/uniwahl/wahlportal/internal/election"
)

// ErrUnexpectedResultShape is returned when a counting result does not match
// any known sub-schema for its counting method. The UI shows it as
// UNEXPECTED_RESULT_SHAPE instead of rendering nothing.
var ErrUnexpectedResultShape = errors.New("UNEXPECTED_RESULT_SHAPE: counting result has an unknown shape")

// ElectedCandidate is one entry of a vote-based elected list.
type ElectedCandidate struct {
	ListNumber int    `json:"listNumber"`
	GivenName  string `json:"givenName"`
	Surname    string `json:"surname"`
	Votes      int    `json:"votes"`
	Elected    bool   `json:"elected"`
}

// SeatAllocation is one list's seat share under a proportional method.
type SeatAllocation struct {
	ListName string `json:"listName"`
	Votes    int    `json:"votes"`
	Seats    int    `json:"seats"`
}

// ProportionalResult is the tally of a Sainte-Laguë or Hare-Niemeyer count.
type ProportionalResult struct {
	Elected []ElectedCandidate `json:"elected"`
	Seats   []SeatAllocation   `json:"seats"`
}

// MajorityResult is the tally of a highest-votes count.
type MajorityResult struct {
	Elected          []ElectedCandidate `json:"elected"`
	TotalVotes       int                `json:"totalVotes"`
	MajorityReached  bool               `json:"majorityReached"`
	RequiredMajority int                `json:"requiredMajority,omitempty"`
}

// ReferendumOptionVotes is one referendum option's outcome.
type ReferendumOptionVotes struct {
	Nr    int    `json:"nr"`
	Name  string `json:"name"`
	Votes int    `json:"votes"`
}

// ReferendumResult is the tally of a yes/no/abstention count.
type ReferendumResult struct {
	Options     []ReferendumOptionVotes `json:"options"`
	Abstentions int                     `json:"abstentions"`
}

// CountResult is the counting outcome as a tagged variant keyed by counting
// method. Exactly one of the sub-results is non-nil.
type CountResult struct {
	ElectionID string                  `json:"electionId"`
	Method     election.CountingMethod `json:"countingMethod"`

	Proportional *ProportionalResult `json:"proportional,omitempty"`
	Majority     *MajorityResult     `json:"majority,omitempty"`
	Referendum   *ReferendumResult   `json:"referendum,omitempty"`
}

// CountResults fetches and decodes the counting result for an election. A
// result whose shape does not match its declared counting method fails with
// ErrUnexpectedResultShape.
func (c *Client) CountResults(ctx context.Context, electionID string) (*CountResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/counting/"+url.PathEscape(electionID)+"/results", nil)
	if err != nil {
		return nil, err
	}

	var raw struct {
		ElectionID string                  `json:"electionId"`
		Method     election.CountingMethod `json:"countingMethod"`

		Elected          []ElectedCandidate      `json:"elected"`
		Seats            []SeatAllocation        `json:"seats"`
		TotalVotes       int                     `json:"totalVotes"`
		MajorityReached  *bool                   `json:"majorityReached"`
		RequiredMajority int                     `json:"requiredMajority"`
		Options          []ReferendumOptionVotes `json:"options"`
		Abstentions      int                     `json:"abstentions"`
	}
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}

	result := &CountResult{ElectionID: raw.ElectionID, Method: raw.Method}

	switch raw.Method {
	case election.MethodSainteLague, election.MethodHareNiemeyer:
		if raw.Elected == nil && raw.Seats == nil {
			return nil, fmt.Errorf("%w (method %s)", ErrUnexpectedResultShape, raw.Method)
		}
		result.Proportional = &ProportionalResult{Elected: raw.Elected, Seats: raw.Seats}

	case election.MethodHighestSimple, election.MethodHighestAbsolute:
		if raw.Elected == nil {
			return nil, fmt.Errorf("%w (method %s)", ErrUnexpectedResultShape, raw.Method)
		}
		majorityReached := raw.Method == election.MethodHighestSimple
		if raw.MajorityReached != nil {
			majorityReached = *raw.MajorityReached
		}
		result.Majority = &MajorityResult{
			Elected:          raw.Elected,
			TotalVotes:       raw.TotalVotes,
			MajorityReached:  majorityReached,
			RequiredMajority: raw.RequiredMajority,
		}

	case election.MethodYesNoReferendum:
		if raw.Options == nil {
			return nil, fmt.Errorf("%w (method %s)", ErrUnexpectedResultShape, raw.Method)
		}
		result.Referendum = &ReferendumResult{Options: raw.Options, Abstentions: raw.Abstentions}

	default:
		return nil, fmt.Errorf("%w (method %q)", ErrUnexpectedResultShape, raw.Method)
	}

	return result, nil
}
