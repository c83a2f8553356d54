// Package restdb implements tabledb.DB against a PostgREST-style hosted
// database API: one resource per table, equality filters as
// column=eq.value query parameters.
package restdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgallion1/planreport/internal/tabledb"
)

// Client communicates with the hosted REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a client for baseURL, e.g.
// https://project.example.co/rest/v1.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func encodeValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return tabledb.Timestamp(t)
	default:
		return fmt.Sprint(t)
	}
}

func (c *Client) endpoint(table string, where tabledb.Filter, extra url.Values) string {
	q := url.Values{}
	for _, k := range tabledb.Keys(where) {
		q.Set(k, "eq."+encodeValue(where[k]))
	}
	for k, v := range extra {
		q[k] = v
	}
	u := c.baseURL + "/" + url.PathEscape(table)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func rowBody(row tabledb.Row) ([]byte, error) {
	out := make(map[string]any, len(row))
	for k, v := range row {
		if t, ok := v.(time.Time); ok {
			v = tabledb.Timestamp(t)
		}
		out[k] = v
	}
	return json.Marshal(out)
}

// do sends a request and returns the response body of a 2xx reply.
// 429 and 5xx replies become *tabledb.RetryableError.
func (c *Client) do(ctx context.Context, method, u string, body []byte, prefer string) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return resp.StatusCode, nil, &tabledb.RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return resp.StatusCode, nil, fmt.Errorf("%s %s: status %d: %s", method, req.URL.Path, resp.StatusCode, string(respBody))
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func decodeRows(body []byte) ([]tabledb.Row, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	var rows []tabledb.Row
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

// Insert adds one row.
func (c *Client) Insert(ctx context.Context, table string, row tabledb.Row) error {
	body, err := rowBody(row)
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}
	if _, _, err := c.do(ctx, http.MethodPost, c.endpoint(table, nil, nil), body, "return=minimal"); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// Update patches every matching row and returns the count.
func (c *Client) Update(ctx context.Context, table string, set tabledb.Row, where tabledb.Filter) (int64, error) {
	body, err := rowBody(set)
	if err != nil {
		return 0, fmt.Errorf("marshal row: %w", err)
	}
	_, resp, err := c.do(ctx, http.MethodPatch, c.endpoint(table, where, nil), body, "return=representation")
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	rows, err := decodeRows(resp)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	return int64(len(rows)), nil
}

// Delete removes every matching row and returns the count.
func (c *Client) Delete(ctx context.Context, table string, where tabledb.Filter) (int64, error) {
	_, resp, err := c.do(ctx, http.MethodDelete, c.endpoint(table, where, nil), nil, "return=representation")
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	rows, err := decodeRows(resp)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	return int64(len(rows)), nil
}

// Select returns every matching row.
func (c *Client) Select(ctx context.Context, table string, where tabledb.Filter, orderBy string) ([]tabledb.Row, error) {
	extra := url.Values{"select": {"*"}}
	if orderBy != "" {
		col, dir := strings.TrimPrefix(orderBy, "-"), "asc"
		if strings.HasPrefix(orderBy, "-") {
			dir = "desc"
		}
		extra.Set("order", col+"."+dir)
	}
	_, resp, err := c.do(ctx, http.MethodGet, c.endpoint(table, where, extra), nil, "")
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	rows, err := decodeRows(resp)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return rows, nil
}

// HasTable probes the table resource; a 404 means it does not exist.
func (c *Client) HasTable(ctx context.Context, table string) (bool, error) {
	status, _, err := c.do(ctx, http.MethodGet, c.endpoint(table, nil, url.Values{"select": {"*"}, "limit": {"0"}}), nil, "")
	if status == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probe table %s: %w", table, err)
	}
	return true, nil
}
