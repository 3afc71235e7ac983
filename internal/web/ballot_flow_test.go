package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/uniwahl/wahlportal/internal/ballot"
)

// fakeVotingAPI serves the endpoints a ballot flow touches.
func fakeVotingAPI(t *testing.T, submitStatus int, gotSubmission *json.RawMessage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/voter/elections/el-prop":
			w.Write([]byte(`{"id":"el-prop","key":"SP-2026","info":"Studierendenparlament",
				"mode":"proportional_representation","countingMethod":"sainte_lague",
				"votesPerBallot":3,"maxCumulativeVotes":2,
				"start":"2026-06-01T08:00:00Z","end":"2026-06-15T18:00:00Z","candidates":[]}`))
		case r.URL.Path == "/voter/elections/el-ref":
			w.Write([]byte(`{"id":"el-ref","key":"URA-2026","info":"Semesterticket",
				"mode":"referendum","countingMethod":"yes_no_referendum",
				"start":"2026-06-01T08:00:00Z","end":"2026-06-15T18:00:00Z","candidates":[]}`))
		case strings.HasPrefix(r.URL.Path, "/candidates/information/option/public/election/"):
			w.Write([]byte(`[{"nr":1,"name":"Ja"},{"nr":2,"name":"Nein"},{"nr":3,"name":"Enthaltung"}]`))
		case strings.HasSuffix(r.URL.Path, "/ballot") && r.Method == http.MethodPost:
			if gotSubmission != nil {
				var raw json.RawMessage
				if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
					t.Errorf("decode submission: %v", err)
				}
				*gotSubmission = raw
			}
			w.WriteHeader(submitStatus)
		default:
			http.NotFound(w, r)
		}
	}
}

func postJSON(v any) *bytes.Buffer {
	data, _ := json.Marshal(v)
	return bytes.NewBuffer(data)
}

func createSession(t *testing.T, s *Server, electionID string) ballotState {
	t.Helper()
	body := postJSON(map[string]string{"voterUid": "abcd1234", "electionId": electionID})
	rec := doRequest(s, http.MethodPost, "/api/ballot", body, "application/json")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d, body %s", rec.Code, rec.Body)
	}
	var st ballotState
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return st
}

func TestBallotFlowVoteBased(t *testing.T) {
	var submitted json.RawMessage
	s, _ := newTestServer(t, fakeVotingAPI(t, http.StatusCreated, &submitted))

	st := createSession(t, s, "el-prop")
	if st.Draft == nil {
		t.Fatal("proportional election should open a vote draft")
	}
	if st.Draft.VotesPerBallot != 3 {
		t.Errorf("VotesPerBallot = %d, want 3", st.Draft.VotesPerBallot)
	}

	// Spend the budget: 2 on list 1, 1 on list 4.
	for _, step := range []map[string]int{
		{"listNumber": 1, "votes": 2},
		{"listNumber": 4, "votes": 1},
	} {
		rec := doRequest(s, http.MethodPost, "/api/ballot/"+st.SessionID+"/set",
			postJSON(step), "application/json")
		if rec.Code != http.StatusOK {
			t.Fatalf("set: status %d, body %s", rec.Code, rec.Body)
		}
	}

	// Over the cumulation ceiling: rejected, state unchanged.
	rec := doRequest(s, http.MethodPost, "/api/ballot/"+st.SessionID+"/set",
		postJSON(map[string]int{"listNumber": 2, "votes": 3}), "application/json")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("over-ceiling set: status %d, want 422", rec.Code)
	}

	rec = doRequest(s, http.MethodPost, "/api/ballot/"+st.SessionID+"/submit", nil, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: status %d, body %s", rec.Code, rec.Body)
	}

	var sub ballot.Submission
	if err := json.Unmarshal(submitted, &sub); err != nil {
		t.Fatalf("decode forwarded submission: %v", err)
	}
	if sub.ElectionID != "el-prop" || !sub.Valid || len(sub.VoteDecision) != 2 {
		t.Errorf("submission = %+v", sub)
	}

	// The draft is gone after a successful submit.
	rec = doRequest(s, http.MethodGet, "/api/ballot/"+st.SessionID, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("state after submit: status %d, want 404", rec.Code)
	}
}

func TestBallotFlowIncompleteSubmit(t *testing.T) {
	s, _ := newTestServer(t, fakeVotingAPI(t, http.StatusCreated, nil))
	st := createSession(t, s, "el-prop")

	rec := doRequest(s, http.MethodPost, "/api/ballot/"+st.SessionID+"/submit", nil, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty submit: status %d, want 422", rec.Code)
	}

	// The draft survives the failed attempt.
	rec = doRequest(s, http.MethodGet, "/api/ballot/"+st.SessionID, nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("state after refused submit: status %d", rec.Code)
	}
}

func TestBallotFlowAlreadyVoted(t *testing.T) {
	s, _ := newTestServer(t, fakeVotingAPI(t, http.StatusConflict, nil))
	st := createSession(t, s, "el-prop")

	doRequest(s, http.MethodPost, "/api/ballot/"+st.SessionID+"/invalid", nil, "")
	rec := doRequest(s, http.MethodPost, "/api/ballot/"+st.SessionID+"/submit", nil, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("submit: status %d, want 409", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ALREADY_VOTED") {
		t.Errorf("body = %s", rec.Body)
	}

	// Server rejection keeps the draft so the voter sees what happened.
	rec = doRequest(s, http.MethodGet, "/api/ballot/"+st.SessionID, nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("state after server rejection: status %d", rec.Code)
	}
}

func TestBallotFlowReferendum(t *testing.T) {
	var submitted json.RawMessage
	s, _ := newTestServer(t, fakeVotingAPI(t, http.StatusCreated, &submitted))

	st := createSession(t, s, "el-ref")
	if st.Referendum == nil {
		t.Fatal("referendum election should open a referendum draft")
	}
	if len(st.Referendum.Slots) != 3 {
		t.Errorf("slots = %d, want one per option", len(st.Referendum.Slots))
	}

	// Abstention at priority 1 suffices.
	rec := doRequest(s, http.MethodPost, "/api/ballot/"+st.SessionID+"/select",
		postJSON(map[string]int{"priority": 1, "optionNr": 3}), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("select: status %d, body %s", rec.Code, rec.Body)
	}

	// A choice below the abstention is refused.
	rec = doRequest(s, http.MethodPost, "/api/ballot/"+st.SessionID+"/select",
		postJSON(map[string]int{"priority": 2, "optionNr": 1}), "application/json")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("select below abstention: status %d, want 422", rec.Code)
	}

	rec = doRequest(s, http.MethodPost, "/api/ballot/"+st.SessionID+"/submit", nil, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: status %d, body %s", rec.Code, rec.Body)
	}

	var sub ballot.ReferendumSubmission
	if err := json.Unmarshal(submitted, &sub); err != nil {
		t.Fatalf("decode forwarded submission: %v", err)
	}
	if sub.ElectionID != "el-ref" || len(sub.Choices) != 1 || sub.Choices[0].OptionNr != 3 {
		t.Errorf("submission = %+v", sub)
	}
}

func TestBallotSetOnReferendumRefused(t *testing.T) {
	s, _ := newTestServer(t, fakeVotingAPI(t, http.StatusCreated, nil))
	st := createSession(t, s, "el-ref")

	rec := doRequest(s, http.MethodPost, "/api/ballot/"+st.SessionID+"/set",
		postJSON(map[string]int{"listNumber": 1, "votes": 1}), "application/json")
	if rec.Code != http.StatusConflict {
		t.Errorf("set on referendum: status %d, want 409", rec.Code)
	}
}

func TestBallotDiscard(t *testing.T) {
	s, _ := newTestServer(t, fakeVotingAPI(t, http.StatusCreated, nil))
	st := createSession(t, s, "el-prop")

	rec := doRequest(s, http.MethodDelete, "/api/ballot/"+st.SessionID, nil, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("discard: status %d", rec.Code)
	}
	rec = doRequest(s, http.MethodGet, "/api/ballot/"+st.SessionID, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("state after discard: status %d, want 404", rec.Code)
	}
}

func TestBallotResetClearsDraft(t *testing.T) {
	s, _ := newTestServer(t, fakeVotingAPI(t, http.StatusCreated, nil))
	st := createSession(t, s, "el-prop")

	doRequest(s, http.MethodPost, "/api/ballot/"+st.SessionID+"/set",
		postJSON(map[string]int{"listNumber": 1, "votes": 2}), "application/json")

	rec := doRequest(s, http.MethodPost, "/api/ballot/"+st.SessionID+"/reset", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: status %d", rec.Code)
	}
	var state ballotState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Draft.VotesRemaining != 3 || len(state.Draft.Allocations) != 0 {
		t.Errorf("draft after reset = %+v", state.Draft)
	}
}
