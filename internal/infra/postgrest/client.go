// Package postgrest implements the Repository against a hosted tabular store
// exposing a PostgREST query API (the wire format used by Supabase).
package postgrest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	postgrest "github.com/supabase-community/postgrest-go"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

var _ domain.Repository = (*Client)(nil)

// Client talks to {BaseURL}/rest/v1/{table}.
type Client struct {
	rest  *postgrest.Client
	table string
}

func NewClient(baseURL, apiKey, table string) *Client {
	if table == "" {
		table = "analyses"
	}
	rest := postgrest.NewClient(strings.TrimRight(baseURL, "/")+"/rest/v1", "", map[string]string{
		"apikey":        apiKey,
		"Authorization": "Bearer " + apiKey,
	})
	return &Client{rest: rest, table: table}
}

// APIError is an error answer from the query API
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgrest %s: %s", e.Code, e.Message)
	}
	return "postgrest: " + e.Message
}

var codedError = regexp.MustCompile(`^\(([^)]*)\) (.*)$`)

const plainError = "error executing query: "

// apiError maps the client's error strings back to a typed error. Transport
// failures are returned as they are.
func apiError(err error) error {
	msg := err.Error()
	if m := codedError.FindStringSubmatch(msg); m != nil {
		return &APIError{Code: m[1], Message: m[2]}
	}
	if strings.HasPrefix(msg, plainError) {
		return &APIError{Message: strings.TrimSpace(strings.TrimPrefix(msg, plainError))}
	}
	return err
}

type row struct {
	ID         string `json:"id,omitempty"`
	Device     string `json:"device"`
	DamageType string `json:"damage_type"`
	Analysis   string `json:"analysis"`
	Category   string `json:"category"`
	Severity   string `json:"severity"`
}

func fromFields(f domain.Fields) row {
	return row{
		Device:     strings.TrimSpace(f.Device),
		DamageType: strings.TrimSpace(f.DamageType),
		Analysis:   strings.TrimSpace(f.Analysis),
		Category:   string(f.Category),
		Severity:   string(f.Severity),
	}
}

func (r row) toDomain() domain.Analysis {
	return domain.Analysis{
		ID: domain.ID(r.ID),
		Fields: domain.Fields{
			Device:     r.Device,
			DamageType: r.DamageType,
			Analysis:   r.Analysis,
			Category:   domain.Category(r.Category),
			Severity:   domain.Severity(r.Severity),
		},
	}
}

// exec runs fb once ctx is still live. The client has no per-call context.
func exec(ctx context.Context, op string, fb *postgrest.FilterBuilder) ([]row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []row
	if _, err := fb.ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, apiError(err))
	}
	return rows, nil
}

// List selects every row; no filter, order or range is pushed down.
func (c *Client) List(ctx context.Context) ([]domain.Analysis, error) {
	rows, err := exec(ctx, "list "+c.table, c.rest.From(c.table).Select("*", "", false))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Analysis, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// Create inserts one row; the backend assigns the id.
func (c *Client) Create(ctx context.Context, f domain.Fields) error {
	_, err := exec(ctx, "insert "+c.table,
		c.rest.From(c.table).Insert([]row{fromFields(f)}, false, "", "representation", ""))
	return err
}

// Update replaces the non-id columns. A non-uuid id cannot match a row.
func (c *Client) Update(ctx context.Context, id domain.ID, f domain.Fields) error {
	if !isUUID(id) {
		return nil
	}
	_, err := exec(ctx, "update "+c.table,
		c.rest.From(c.table).Update(fromFields(f), "representation", "").Eq("id", string(id)))
	return err
}

// Delete filters by id; a filter matching nothing is still a success.
func (c *Client) Delete(ctx context.Context, id domain.ID) error {
	if !isUUID(id) {
		return nil
	}
	_, err := exec(ctx, "delete "+c.table,
		c.rest.From(c.table).Delete("representation", "").Eq("id", string(id)))
	return err
}

func isUUID(id domain.ID) bool {
	_, err := uuid.Parse(string(id))
	return err == nil
}
