// Package client talks to the authoritative voting API. All election state
// (voter rolls, ballots, hash chains, tallies) lives behind that API; this
// client only moves validated files and ballots across and renders what
// comes back.
//
// Transport failures are surfaced with the server's message when present.
// There are no automatic retries; a 401 terminates the session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/uniwahl/wahlportal/internal/ballot"
	"github.com/uniwahl/wahlportal/internal/election"
)

// ErrSessionExpired is returned on any 401 response. The caller must end the
// session; the client does not renew tokens.
var ErrSessionExpired = errors.New("session expired")

// ErrAlreadyVoted is returned when the server rejects a ballot because one
// was already recorded for this voter.
var ErrAlreadyVoted = errors.New("ballot already recorded")

// ErrElectionClosed is returned when the server rejects a ballot because the
// voting window is over.
var ErrElectionClosed = errors.New("election closed")

// csrfHeader carries the CSRF token on mutating requests.
const csrfHeader = "X-CSRF-Token"

// UploadKind selects the import endpoint for a validated file.
type UploadKind string

const (
	UploadVoters     UploadKind = "voters"
	UploadCandidates UploadKind = "candidates"
	UploadElections  UploadKind = "elections"
)

// ElectionStatus filters a voter's election listing.
type ElectionStatus string

const (
	StatusFuture   ElectionStatus = "future"
	StatusActive   ElectionStatus = "active"
	StatusFinished ElectionStatus = "finished"
)

// Client is a voting-API client bound to one base URL and one session.
type Client struct {
	baseURL   string
	http      *http.Client
	authToken string
	csrfToken string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithSession sets the opaque auth token and the CSRF token for mutating
// requests. Renewal happens outside this package.
func WithSession(authToken, csrfToken string) Option {
	return func(c *Client) {
		c.authToken = authToken
		c.csrfToken = csrfToken
	}
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response with the server's message preserved
// verbatim for display.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// UploadResponse is the server's verdict on an import upload.
type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Upload forwards the originally submitted file to the import endpoint for
// its kind. The file goes up unmodified; validation already happened
// locally and the server validates again on its own.
func (c *Client) Upload(ctx context.Context, kind UploadKind, filename string, data []byte) (*UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/upload/"+string(kind), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out UploadResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VoterElections lists a voter's elections filtered by status.
func (c *Client) VoterElections(ctx context.Context, voterID string, status ElectionStatus) ([]election.Election, error) {
	path := fmt.Sprintf("/voter/%s/elections?status=%s", url.PathEscape(voterID), status)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var out []election.Election
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ElectionDetail is an election descriptor with its embedded candidate list.
type ElectionDetail struct {
	election.Election
	Candidates []election.Candidate `json:"candidates"`
}

// VoterElection fetches one election descriptor with candidates.
func (c *Client) VoterElection(ctx context.Context, electionID string) (*ElectionDetail, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/voter/elections/"+url.PathEscape(electionID), nil)
	if err != nil {
		return nil, err
	}
	var out ElectionDetail
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Candidates lists the admitted candidates of an election.
func (c *Client) Candidates(ctx context.Context, electionID string) ([]election.Candidate, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/candidates/election/"+url.PathEscape(electionID), nil)
	if err != nil {
		return nil, err
	}
	var out []election.Candidate
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReferendumOptions lists the public referendum options of an election.
func (c *Client) ReferendumOptions(ctx context.Context, electionID string) ([]election.ReferendumOption, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/candidates/information/option/public/election/"+url.PathEscape(electionID), nil)
	if err != nil {
		return nil, err
	}
	var out []election.ReferendumOption
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitBallot sends a composed ballot. The server answers 201 on
// acceptance; already-voted and election-closed rejections map to their
// sentinel errors so the UI can alert precisely.
func (c *Client) SubmitBallot(ctx context.Context, voterUID string, sub ballot.Submission) error {
	return c.submitBallot(ctx, voterUID, sub)
}

// SubmitReferendum sends a composed referendum ballot. Status handling
// matches SubmitBallot.
func (c *Client) SubmitReferendum(ctx context.Context, voterUID string, sub ballot.ReferendumSubmission) error {
	return c.submitBallot(ctx, voterUID, sub)
}

func (c *Client) submitBallot(ctx context.Context, voterUID string, sub any) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode ballot: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/voter/"+url.PathEscape(voterUID)+"/ballot", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit ballot: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		return nil
	case http.StatusUnauthorized:
		return ErrSessionExpired
	case http.StatusConflict:
		return ErrAlreadyVoted
	case http.StatusGone, http.StatusForbidden:
		return ErrElectionClosed
	default:
		return readAPIError(resp)
	}
}

// TriggerCount asks the server to run the tally for an election.
func (c *Client) TriggerCount(ctx context.Context, electionID string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/counting/"+url.PathEscape(electionID)+"/count", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// IntegrityReport is a server-computed hash chain verification outcome. The
// client renders it and draws no conclusions of its own.
type IntegrityReport struct {
	Verified bool            `json:"verified"`
	Message  string          `json:"message,omitempty"`
	Entries  json.RawMessage `json:"entries,omitempty"`
}

// AuditLogIntegrity fetches the audit-log chain verification report.
func (c *Client) AuditLogIntegrity(ctx context.Context) (*IntegrityReport, error) {
	return c.integrity(ctx, "/admin/integrity/audit-log")
}

// BallotIntegrity fetches the all-ballots chain verification report.
func (c *Client) BallotIntegrity(ctx context.Context) (*IntegrityReport, error) {
	return c.integrity(ctx, "/admin/integrity/all-ballots")
}

func (c *Client) integrity(ctx context.Context, path string) (*IntegrityReport, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var out IntegrityReport
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// newRequest builds a request with session headers attached.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	if c.csrfToken != "" && method != http.MethodGet {
		req.Header.Set(csrfHeader, c.csrfToken)
	}
	return req, nil
}

// do executes a request and decodes a 2xx JSON body into out (skipped when
// out is nil).
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}

// readAPIError extracts the server's message, preferring a JSON body with a
// message field, falling back to the raw body text.
func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			msg = body.Message
		} else {
			msg = body.Error
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
