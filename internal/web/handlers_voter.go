package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uniwahl/wahlportal/internal/ballot"
	"github.com/uniwahl/wahlportal/internal/client"
	"github.com/uniwahl/wahlportal/internal/election"
	"github.com/uniwahl/wahlportal/internal/logging"
)

// handleVoterElections lists a voter's elections filtered by status. The
// status defaults to active; future and finished are the other windows.
func (s *Server) handleVoterElections(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	status := client.ElectionStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = client.StatusActive
	}
	switch status {
	case client.StatusFuture, client.StatusActive, client.StatusFinished:
	default:
		writeError(w, r, http.StatusBadRequest, "unbekannter Status: "+string(status))
		return
	}

	elections, err := s.api.VoterElections(r.Context(), uid, status)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, elections)
}

// handleVoterElection fetches one election descriptor with its candidates.
func (s *Server) handleVoterElection(w http.ResponseWriter, r *http.Request) {
	detail, err := s.api.VoterElection(r.Context(), chi.URLParam(r, "electionID"))
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ballotState is the session view returned by the ballot endpoints. Exactly
// one of Draft and Referendum is set, matching the election mode.
type ballotState struct {
	SessionID  string                     `json:"sessionId"`
	ElectionID string                     `json:"electionId"`
	Draft      *ballot.Snapshot           `json:"draft,omitempty"`
	Referendum *ballot.ReferendumSnapshot `json:"referendum,omitempty"`
}

func stateOf(sess *ballot.Session) ballotState {
	st := ballotState{SessionID: sess.ID, ElectionID: sess.ElectionID}
	if sess.Referendum != nil {
		snap := sess.Referendum.State()
		st.Referendum = &snap
	} else {
		snap := sess.Draft.State()
		st.Draft = &snap
	}
	return st
}

// handleBallotCreate starts a ballot draft for one voter and election. The
// election descriptor comes from the voting API so the draft is always bound
// to the server's current vote budget and cumulation ceiling.
func (s *Server) handleBallotCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VoterUID   string `json:"voterUid"`
		ElectionID string `json:"electionId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "ungültiger Anfragetext: "+err.Error())
		return
	}
	if req.VoterUID == "" || req.ElectionID == "" {
		writeError(w, r, http.StatusBadRequest, "voterUid und electionId sind erforderlich")
		return
	}

	detail, err := s.api.VoterElection(r.Context(), req.ElectionID)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	var options []election.ReferendumOption
	if detail.Mode == election.ModeReferendum {
		options, err = s.api.ReferendumOptions(r.Context(), req.ElectionID)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
	}

	sess := s.ballots.Create(req.VoterUID, detail.Election, options)
	logging.FromContext(r.Context()).Info("ballot session started",
		"session", sess.ID, "election", sess.ElectionID, "mode", detail.Mode)

	writeJSON(w, http.StatusCreated, stateOf(sess))
}

// session resolves the session path parameter, answering 404 itself when the
// draft is gone (submitted, discarded, or never created).
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*ballot.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess, ok := s.ballots.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "unbekannte Sitzung")
	}
	return sess, ok
}

func (s *Server) handleBallotState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	writeJSON(w, http.StatusOK, stateOf(sess))
}

// handleBallotSet assigns votes to a list number on a vote-based draft.
// Rejected transitions answer 422 and leave the draft untouched.
func (s *Server) handleBallotSet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		ListNumber int `json:"listNumber"`
		Votes      int `json:"votes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "ungültiger Anfragetext: "+err.Error())
		return
	}

	sess.Lock()
	defer sess.Unlock()
	if sess.Draft == nil {
		writeError(w, r, http.StatusConflict, "Diese Wahl ist eine Urabstimmung; Stimmen können nicht vergeben werden.")
		return
	}
	if !sess.Draft.Set(req.ListNumber, req.Votes) {
		writeError(w, r, http.StatusUnprocessableEntity, "Die Stimmvergabe überschreitet das Stimmbudget oder die Kumulationsgrenze.")
		return
	}
	writeJSON(w, http.StatusOK, stateOf(sess))
}

// handleBallotSelect binds a referendum option to a priority slot.
func (s *Server) handleBallotSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Priority int `json:"priority"`
		OptionNr int `json:"optionNr"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "ungültiger Anfragetext: "+err.Error())
		return
	}

	sess.Lock()
	defer sess.Unlock()
	if sess.Referendum == nil {
		writeError(w, r, http.StatusConflict, "Diese Wahl ist keine Urabstimmung; Prioritäten können nicht vergeben werden.")
		return
	}
	if !sess.Referendum.Select(req.Priority, req.OptionNr) {
		writeError(w, r, http.StatusUnprocessableEntity, "Diese Zuordnung ist nicht zulässig.")
		return
	}
	writeJSON(w, http.StatusOK, stateOf(sess))
}

// handleBallotUnselect empties a referendum priority slot.
func (s *Server) handleBallotUnselect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Priority int `json:"priority"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "ungültiger Anfragetext: "+err.Error())
		return
	}

	sess.Lock()
	defer sess.Unlock()
	if sess.Referendum == nil {
		writeError(w, r, http.StatusConflict, "Diese Wahl ist keine Urabstimmung.")
		return
	}
	sess.Referendum.Unselect(req.Priority)
	writeJSON(w, http.StatusOK, stateOf(sess))
}

// handleBallotReset returns the draft to its initial state.
func (s *Server) handleBallotReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	if sess.Referendum != nil {
		sess.Referendum.Reset()
	} else {
		sess.Draft.Reset()
	}
	writeJSON(w, http.StatusOK, stateOf(sess))
}

// handleBallotToggleInvalid flips the explicit invalid-ballot flag.
func (s *Server) handleBallotToggleInvalid(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	if sess.Referendum != nil {
		sess.Referendum.ToggleInvalid()
	} else {
		sess.Draft.ToggleInvalid()
	}
	writeJSON(w, http.StatusOK, stateOf(sess))
}

// handleBallotSubmit sends the composed ballot to the voting API and, on
// acceptance, destroys the draft. A closed submit gate answers 422; API
// rejections keep the draft alive so the voter can react.
func (s *Server) handleBallotSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	sess.Lock()
	defer sess.Unlock()

	var err error
	if sess.Referendum != nil {
		sub, ready := sess.Referendum.Submit(sess.ElectionID)
		if !ready {
			writeError(w, r, http.StatusUnprocessableEntity, "Der Stimmzettel ist noch nicht vollständig.")
			return
		}
		err = s.api.SubmitReferendum(r.Context(), sess.VoterUID, sub)
	} else {
		sub, ready := sess.Draft.Submit(sess.ElectionID)
		if !ready {
			writeError(w, r, http.StatusUnprocessableEntity, "Der Stimmzettel ist noch nicht vollständig.")
			return
		}
		err = s.api.SubmitBallot(r.Context(), sess.VoterUID, sub)
	}
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	s.ballots.Discard(sess.ID)
	logging.FromContext(r.Context()).Info("ballot submitted",
		"session", sess.ID, "election", sess.ElectionID)
	writeJSON(w, http.StatusCreated, map[string]any{"submitted": true})
}

// handleBallotDiscard destroys a draft without submitting.
func (s *Server) handleBallotDiscard(w http.ResponseWriter, r *http.Request) {
	s.ballots.Discard(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}
