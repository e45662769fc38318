package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"tipline/engine"
	"tipline/model"
)

// SessionHeader carries the whistleblower session token on every
// authenticated request.
const SessionHeader = "X-Session"

// Client talks to the platform backend. Questionnaire schemas are
// immutable per id, so they are fetched once and cached for the lifetime
// of the client.
type Client struct {
	base string
	http *http.Client

	mu      sync.Mutex
	session string
	qcache  map[string]*model.Questionnaire
}

func NewClient(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   hc,
		qcache: make(map[string]*model.Questionnaire),
	}
}

// Session returns the current session token, empty before NewSession.
func (c *Client) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SetSession installs a session token obtained elsewhere (receipt auth).
func (c *Client) SetSession(token string) {
	c.mu.Lock()
	c.session = token
	c.mu.Unlock()
}

type sessionResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// NewSession opens an anonymous whistleblower session; the returned
// token rides along on every later call.
func (c *Client) NewSession(ctx context.Context) error {
	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/session", nil, &resp); err != nil {
		return err
	}
	c.SetSession(resp.Token)
	return nil
}

// ReceiptAuth exchanges a submission receipt for a session token scoped
// to the existing report.
func (c *Client) ReceiptAuth(ctx context.Context, receipt string) error {
	in := map[string]string{"receipt": receipt}
	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/receiptauth", in, &resp); err != nil {
		return err
	}
	c.SetSession(resp.Token)
	return nil
}

// FetchContexts lists the contexts reports may be filed against.
func (c *Client) FetchContexts(ctx context.Context) ([]model.Context, error) {
	var out []model.Context
	if err := c.do(ctx, http.MethodGet, "/api/contexts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchContext fetches one context by id.
func (c *Client) FetchContext(ctx context.Context, id string) (*model.Context, error) {
	var out model.Context
	if err := c.do(ctx, http.MethodGet, "/api/contexts/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchQuestionnaire fetches and compiles a schema, caching by id. A
// malformed schema surfaces as model.SchemaError, not a transport
// failure, and is not cached.
func (c *Client) FetchQuestionnaire(ctx context.Context, id string) (*model.Questionnaire, error) {
	c.mu.Lock()
	if q, ok := c.qcache[id]; ok {
		c.mu.Unlock()
		return q, nil
	}
	c.mu.Unlock()

	q := new(model.Questionnaire)
	if err := c.do(ctx, http.MethodGet, "/api/questionnaires/"+id, nil, q); err != nil {
		return nil, err
	}
	if err := q.Compile(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.qcache[id] = q
	c.mu.Unlock()
	return q, nil
}

// FetchReceivers lists the known receivers.
func (c *Client) FetchReceivers(ctx context.Context) ([]model.Receiver, error) {
	var out []model.Receiver
	if err := c.do(ctx, http.MethodGet, "/api/receivers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type submitResponse struct {
	Receipt string `json:"receipt"`
}

// SubmitReport files the assembled payload and returns the receipt.
// It satisfies engine.ReportSubmitter.
func (c *Client) SubmitReport(ctx context.Context, p engine.Payload) (string, error) {
	var resp submitResponse
	if err := c.do(ctx, http.MethodPost, "/api/submissions", p, &resp); err != nil {
		return "", err
	}
	return resp.Receipt, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Buffer
	if in != nil {
		body = new(bytes.Buffer)
		if err := json.NewEncoder(body).Encode(in); err != nil {
			return &Error{Err: err}
		}
	} else {
		body = new(bytes.Buffer)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return &Error{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Session(); token != "" {
		req.Header.Set(SessionHeader, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var ec errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&ec)
		return &Error{Code: ec.Error, Status: resp.StatusCode}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Err: err}
		}
	}
	return nil
}
