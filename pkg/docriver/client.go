// Package docriver is a read client for a docriver server: it downloads
// stored documents, lists transaction events, and builds viewer URLs.
package docriver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Event is one transaction event recorded by the server for a realm.
type Event struct {
	EventTime int64  `json:"eventTime"`
	Document  string `json:"document"`
	Status    string `json:"status"`
	Location  string `json:"location"`
	Type      string `json:"type"`
	Mime      string `json:"mime"`
}

// Time returns EventTime as a time.Time.
func (e Event) Time() time.Time {
	return time.Unix(e.EventTime, 0)
}

// EventQuery bounds an events listing; zero times are omitted.
type EventQuery struct {
	From time.Time
	To   time.Time
}

// Download is an open document body. The caller must close it.
type Download struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// Extension guesses a file extension from the content type.
func (d *Download) Extension() string {
	mediaType, _, err := mime.ParseMediaType(d.ContentType)
	if err != nil {
		return ""
	}
	exts, _ := mime.ExtensionsByType(mediaType)
	if len(exts) == 0 {
		return ""
	}
	return exts[0]
}

// Client talks to one realm of a docriver server.
type Client struct {
	server string
	realm  string
	http   *http.Client
}

// NewClient creates a client for server and realm. A nil httpClient uses
// http.DefaultClient.
func NewClient(server, realm string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		server: strings.TrimRight(server, "/"),
		realm:  realm,
		http:   httpClient,
	}
}

// Realm returns the realm the client is bound to.
func (c *Client) Realm() string {
	return c.realm
}

// DocumentURL returns {server}/document/{realm}/{name}.
func (c *Client) DocumentURL(name string) string {
	return c.server + "/document/" + url.PathEscape(c.realm) + "/" + url.PathEscape(name)
}

// Document opens the stored content of name. authorization is sent as the
// Authorization header when non-empty.
func (c *Client) Document(ctx context.Context, name, authorization string) (*Download, error) {
	if name == "" {
		return nil, ErrMissingName
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DocumentURL(name), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}

	return &Download{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

// Events lists the transaction events of the realm within q.
func (c *Client) Events(ctx context.Context, q EventQuery, authorization string) ([]Event, error) {
	params := url.Values{}
	if !q.From.IsZero() {
		params.Set("from", strconv.FormatInt(q.From.Unix(), 10))
	}
	if !q.To.IsZero() {
		params.Set("to", strconv.FormatInt(q.To.Unix(), 10))
	}

	u := c.server + "/tx/" + url.PathEscape(c.realm)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
