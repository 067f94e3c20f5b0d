package postgrest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/bapokting/internal/config"
)

const restPath = "/rest/v1"

// APIError represents a PostgREST error payload plus the HTTP status it came with.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgrest error: status=%d, code=%s, message=%s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("postgrest error: status=%d, message=%s", e.Status, e.Message)
}

// Client is a resty-backed client for a PostgREST endpoint such as a hosted Supabase project.
type Client struct {
	httpClient *resty.Client
}

// NewClient builds a client from the database configuration.
func NewClient(cfg config.DatabaseConfig) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(base+restPath).
		SetHeader("apikey", cfg.APIKey).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{httpClient: restyClient}
}

// Query accumulates PostgREST query string parameters.
type Query struct {
	values url.Values
}

// NewQuery starts an empty query.
func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

// Select limits the returned columns.
func (q *Query) Select(columns string) *Query { return q.add("select", columns) }

// Eq filters column = value.
func (q *Query) Eq(column, value string) *Query { return q.add(column, "eq."+value) }

// Gte filters column >= value.
func (q *Query) Gte(column, value string) *Query { return q.add(column, "gte."+value) }

// Lte filters column <= value.
func (q *Query) Lte(column, value string) *Query { return q.add(column, "lte."+value) }

// Lt filters column < value.
func (q *Query) Lt(column, value string) *Query { return q.add(column, "lt."+value) }

// Order sorts by column, ascending unless desc is set.
func (q *Query) Order(column string, desc bool) *Query {
	dir := "asc"
	if desc {
		dir = "desc"
	}
	return q.add("order", column+"."+dir)
}

// Limit caps the number of rows.
func (q *Query) Limit(n int) *Query { return q.add("limit", strconv.Itoa(n)) }

// Offset skips the first n rows.
func (q *Query) Offset(n int) *Query { return q.add("offset", strconv.Itoa(n)) }

// Values exposes the encoded parameters.
func (q *Query) Values() url.Values {
	if q == nil {
		return url.Values{}
	}
	return q.values
}

func (q *Query) clone() *Query {
	c := NewQuery()
	for k, vs := range q.Values() {
		c.values[k] = append([]string(nil), vs...)
	}
	return c
}

func (q *Query) add(key, value string) *Query {
	q.values.Add(key, value)
	return q
}

// Select reads rows of table matching q into out (a pointer to a slice).
func (c *Client) Select(ctx context.Context, table string, q *Query, out any) error {
	req := c.request(ctx).SetQueryParamsFromValues(q.Values()).SetResult(out)
	resp, err := req.Get("/" + table)
	return c.check(resp, err, "select "+table)
}

// SelectPage reads at most limit rows starting at offset and returns the total row
// count reported by the server, or -1 when it did not report one. The server may
// return fewer rows than limit when it enforces its own max-rows cap.
func (c *Client) SelectPage(ctx context.Context, table string, q *Query, offset, limit int, out any) (int, error) {
	page := q.clone().Limit(limit).Offset(offset)
	resp, err := c.request(ctx).
		SetHeader("Prefer", "count=exact").
		SetQueryParamsFromValues(page.Values()).
		SetResult(out).
		Get("/" + table)
	if err := c.check(resp, err, "select "+table); err != nil {
		return 0, err
	}
	return contentRangeTotal(resp.Header().Get("Content-Range")), nil
}

// contentRangeTotal parses the total of a "0-24/3573" or "*/0" header.
func contentRangeTotal(header string) int {
	i := strings.LastIndexByte(header, '/')
	if i < 0 {
		return -1
	}
	total, err := strconv.Atoi(strings.TrimSpace(header[i+1:]))
	if err != nil {
		return -1
	}
	return total
}

// Insert creates one row and decodes the stored representation into out.
func (c *Client) Insert(ctx context.Context, table string, body any, out any) error {
	resp, err := c.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(body).
		SetResult(out).
		Post("/" + table)
	return c.check(resp, err, "insert "+table)
}

// Update patches the rows matched by q and decodes their new representation into out.
func (c *Client) Update(ctx context.Context, table string, q *Query, body any, out any) error {
	resp, err := c.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParamsFromValues(q.Values()).
		SetBody(body).
		SetResult(out).
		Patch("/" + table)
	return c.check(resp, err, "update "+table)
}

// Delete removes the rows matched by q and decodes the removed rows into out when non-nil.
func (c *Client) Delete(ctx context.Context, table string, q *Query, out any) error {
	req := c.request(ctx).SetQueryParamsFromValues(q.Values())
	if out != nil {
		req = req.SetHeader("Prefer", "return=representation").SetResult(out)
	}
	resp, err := req.Delete("/" + table)
	return c.check(resp, err, "delete "+table)
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.httpClient.R().SetContext(ctx).SetError(&APIError{})
}

func (c *Client) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}

	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.Status = resp.StatusCode()
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(resp.String())
	}
	return fmt.Errorf("%s: %w", op, apiErr)
}
