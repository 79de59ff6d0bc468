// Package client talks to the leadflow api and feeds lead edits through an optimistic coordinator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/osr-alliance/backend-lib-leadflow/apierr"
	"github.com/osr-alliance/backend-lib-leadflow/optimistic"
	"github.com/osr-alliance/backend-lib-leadflow/store"
)

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends in as json and decodes the answer into out. A non 2xx answer becomes an *apierr.Error; a transport
// failure is returned as the http client reported it.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := struct {
			Error string `json:"error"`
		}{}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return apierr.FromStatus(resp.StatusCode, e.Error)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Login keeps the session token for the calls that follow
func (c *Client) Login(ctx context.Context, email, password string) error {
	out := struct {
		Token string `json:"token"`
	}{}
	err := c.do(ctx, http.MethodPost, "/login", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return err
	}
	c.Token = out.Token
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/logout", nil, nil)
	c.Token = ""
	return err
}

func (c *Client) ListLeads(ctx context.Context) ([]store.Lead, error) {
	leads := []store.Lead{}
	err := c.do(ctx, http.MethodGet, "/leads", nil, &leads)
	return leads, err
}

func (c *Client) GetLead(ctx context.Context, id int32) (*store.Lead, error) {
	l := &store.Lead{}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/leads/%d", id), nil, l)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (c *Client) UpdateLead(ctx context.Context, id int32, changes store.LeadChanges) (*store.Lead, error) {
	l := &store.Lead{}
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/leads/%d", id), changes, l)
	if err != nil {
		return nil, err
	}
	return l, nil
}

type LeadBoard = optimistic.Coordinator[int32, store.Lead, store.LeadChanges]

// BoardObservers are optional callbacks for a LeadBoard
type BoardObservers struct {
	OnChange  func(leads []store.Lead)
	OnError   func(id int32, f *optimistic.Failure)
	OnSuccess func(id int32)
}

/*
NewLeadBoard shows leads and applies edits to them before the api confirms. Reload it with

	board.Refetch(ctx, c.ListLeads)
*/
func NewLeadBoard(c *Client, leads []store.Lead, obs BoardObservers) *LeadBoard {
	return optimistic.New(leads, optimistic.Config[int32, store.Lead, store.LeadChanges]{
		ID:    func(l store.Lead) int32 { return l.ID },
		Apply: func(l store.Lead, ch store.LeadChanges) store.Lead { return ch.Apply(l) },
		Persist: func(ctx context.Context, id int32, ch store.LeadChanges) error {
			_, err := c.UpdateLead(ctx, id, ch)
			return err
		},
		OnChange:  obs.OnChange,
		OnError:   obs.OnError,
		OnSuccess: obs.OnSuccess,
	})
}
