// Package supabase is the primary store backed by a Supabase project,
// talking to its PostgREST endpoint.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"press-pass/core/pass"
	"press-pass/core/store"

	"github.com/go-resty/resty/v2"
)

// ErrNotConfigured is returned by New without a URL or key.
var ErrNotConfigured = errors.New("supabase url and service key are required")

// Client implements store.Primary over PostgREST.
type Client struct {
	http  *resty.Client
	table string
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 10
	}
	table := cfg.Table
	if table == "" {
		table = "press_passes"
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")+"/rest/v1").
		SetTimeout(time.Duration(timeout)*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("apikey", cfg.ServiceKey).
		SetHeader("Authorization", "Bearer "+cfg.ServiceKey).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second)
	client.AddRetryCondition(retryCondition)

	return &Client{http: client, table: table}, nil
}

// retryCondition retries network errors and 5xx answers only. Inserts are
// never retried: a lost answer may follow a committed row.
func retryCondition(r *resty.Response, err error) bool {
	if r != nil && r.Request != nil && r.Request.Method == http.MethodPost {
		return false
	}
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	return r.StatusCode() >= http.StatusInternalServerError
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (c *Client) request(ctx context.Context) (*resty.Request, *[]pass.Input, *errorBody) {
	var rows []pass.Input
	var eb errorBody
	req := c.http.R().
		SetContext(ctx).
		SetResult(&rows).
		SetError(&eb)
	return req, &rows, &eb
}

func (c *Client) do(req *resty.Request, method string, eb *errorBody) error {
	resp, err := req.Execute(method, "/"+c.table)
	if err != nil {
		return fmt.Errorf("supabase %s %s: %w", method, c.table, err)
	}
	if resp.IsError() {
		msg := eb.Message
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return &store.RemoteError{Status: resp.StatusCode(), Code: eb.Code, Message: msg}
	}
	return nil
}

func (c *Client) Insert(ctx context.Context, rec pass.Record) (pass.Record, error) {
	req, rows, eb := c.request(ctx)
	req.SetHeader("Prefer", "return=representation").SetBody(toRow(rec))
	if err := c.do(req, http.MethodPost, eb); err != nil {
		return pass.Record{}, err
	}
	if len(*rows) == 0 {
		return rec, nil
	}
	return pass.DecodeRow((*rows)[0]), nil
}

func (c *Client) Get(ctx context.Context, id string) (pass.Record, error) {
	req, rows, eb := c.request(ctx)
	req.SetQueryParam("select", "*").
		SetQueryParam("pass_number", "eq."+id).
		SetQueryParam("limit", "1")
	if err := c.do(req, http.MethodGet, eb); err != nil {
		return pass.Record{}, err
	}
	if len(*rows) == 0 {
		return pass.Record{}, pass.ErrNotFound
	}
	return pass.DecodeRow((*rows)[0]), nil
}

func (c *Client) List(ctx context.Context, q pass.Query) ([]pass.Record, error) {
	req, rows, eb := c.request(ctx)
	direction := "desc"
	if q.Ascending {
		direction = "asc"
	}
	req.SetQueryParam("select", "*").
		SetQueryParam("order", q.SortColumn()+"."+direction)
	if q.Email != "" {
		req.SetQueryParam("email", "eq."+q.Email)
	}
	if q.Organization != "" {
		req.SetQueryParam("organization", "eq."+q.Organization)
	}
	if q.Offset > 0 {
		req.SetQueryParam("offset", strconv.Itoa(q.Offset))
	}
	if q.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(q.Limit))
	}
	if err := c.do(req, http.MethodGet, eb); err != nil {
		return nil, err
	}

	recs := make([]pass.Record, 0, len(*rows))
	for _, row := range *rows {
		recs = append(recs, pass.DecodeRow(row))
	}
	return recs, nil
}

func (c *Client) Update(ctx context.Context, id string, p pass.Patch) (pass.Record, error) {
	cols := p.Columns()
	if len(cols) == 0 {
		return c.Get(ctx, id)
	}
	if at, ok := cols["payment_date"].(time.Time); ok {
		cols["payment_date"] = at.Format(time.RFC3339Nano)
	}

	req, rows, eb := c.request(ctx)
	req.SetHeader("Prefer", "return=representation").
		SetQueryParam("pass_number", "eq."+id).
		SetBody(cols)
	if err := c.do(req, http.MethodPatch, eb); err != nil {
		return pass.Record{}, err
	}
	if len(*rows) == 0 {
		return pass.Record{}, pass.ErrNotFound
	}
	return pass.DecodeRow((*rows)[0]), nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	req, rows, eb := c.request(ctx)
	req.SetHeader("Prefer", "return=representation").
		SetQueryParam("pass_number", "eq."+id)
	if err := c.do(req, http.MethodDelete, eb); err != nil {
		return err
	}
	if len(*rows) == 0 {
		return pass.ErrNotFound
	}
	return nil
}

func toRow(r pass.Record) map[string]any {
	row := map[string]any{
		"pass_number":     r.ID,
		"name":            r.Name,
		"email":           r.Email,
		"title":           r.Title,
		"organization":    r.Organization,
		"download_type":   r.DownloadType,
		"created_at":      r.CreatedAt.UTC().Format(time.RFC3339Nano),
		"paid":            r.Paid,
		"payment_pending": r.PaymentPending,
	}
	if r.PaymentID != nil {
		row["payment_id"] = *r.PaymentID
	}
	if r.PaymentAmount != nil {
		row["payment_amount"] = *r.PaymentAmount
	}
	if r.PaymentDate != nil {
		row["payment_date"] = r.PaymentDate.UTC().Format(time.RFC3339Nano)
	}
	return row
}
