// Package sheets appends submission rows to a Google spreadsheet through the Sheets REST API.
package sheets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2/google"

	"snapbooth/site/internal/httpretry"
)

// Scope is the OAuth scope needed to append values.
const Scope = "https://www.googleapis.com/auth/spreadsheets"

// DefaultBaseURL is the public Sheets API host.
const DefaultBaseURL = "https://sheets.googleapis.com"

// ErrNotConfigured is returned by a nil *Client so callers can treat the sink as optional.
var ErrNotConfigured = errors.New("sheets: spreadsheet sink is not configured")

// Appender is the spreadsheet sink contract used by services.
type Appender interface {
	Append(ctx context.Context, rangeA1 string, row []string) error
}

// Client appends rows to one spreadsheet.
type Client struct {
	doer          httpretry.HTTPDoer
	baseURL       string
	spreadsheetID string
}

// New builds a client over an already-authorized HTTP doer.
func New(doer httpretry.HTTPDoer, baseURL, spreadsheetID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{doer: doer, baseURL: strings.TrimRight(baseURL, "/"), spreadsheetID: spreadsheetID}
}

// NewServiceAccountClient authorizes with a service-account key. ctx must outlive the client because
// token refreshes run under it.
func NewServiceAccountClient(ctx context.Context, credentialsJSON []byte, baseURL, spreadsheetID string, maxRetries int) (*Client, error) {
	conf, err := google.JWTConfigFromJSON(credentialsJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("sheets: parse service account: %w", err)
	}
	doer := httpretry.NewRetryClient(conf.Client(ctx), maxRetries)
	return New(doer, baseURL, spreadsheetID), nil
}

type valueRange struct {
	Range          string     `json:"range"`
	MajorDimension string     `json:"majorDimension"`
	Values         [][]string `json:"values"`
}

// Append adds row after the last row of rangeA1 (e.g. "Intake!A:K").
func (c *Client) Append(ctx context.Context, rangeA1 string, row []string) error {
	if c == nil || c.doer == nil || c.spreadsheetID == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(valueRange{Range: rangeA1, MajorDimension: "ROWS", Values: [][]string{row}})
	if err != nil {
		return fmt.Errorf("sheets: encode row: %w", err)
	}

	// RAW stores visitor text literally; a cell starting with "=" is never evaluated as a formula.
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(rangeA1))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sheets: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("sheets: append: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<12))
		return fmt.Errorf("sheets: append status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
