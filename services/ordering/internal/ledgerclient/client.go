// Package ledgerclient talks to the ledger service over HTTP.
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/appetiteclub/seatside/pkg/ledgerapi"
	"github.com/appetiteclub/seatside/pkg/lib/core"
	"github.com/appetiteclub/seatside/services/ordering/internal/menu"
)

var errNotFound = errors.New("not found")

const (
	DefaultBaseURL = "http://localhost:8090"
	DefaultTimeout = 10 * time.Second
)

// Client implements the persistence boundary against the ledger service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. An empty baseURL uses the local default; a zero
// timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewFromConfig reads ledger.url and ledger.timeout.
func NewFromConfig(cfg *core.Config) *Client {
	return New(
		cfg.GetStringOrDef("ledger.url", DefaultBaseURL),
		cfg.GetDurationOrDef("ledger.timeout", DefaultTimeout),
	)
}

// SubmitOrderMutation sends one change for (ticketID, ledger). A result the
// ledger refused is returned together with a *ledgerapi.RejectedError.
func (c *Client) SubmitOrderMutation(ctx context.Context, ticketID, ledger string, m ledgerapi.OrderMutation) (ledgerapi.MutationResult, error) {
	var result ledgerapi.MutationResult

	path := fmt.Sprintf("/tickets/%s/ledgers/%s/mutations", url.PathEscape(ticketID), url.PathEscape(ledger))
	if err := c.do(ctx, http.MethodPost, path, m, &result); err != nil {
		return result, fmt.Errorf("submit order mutation: %w", ticketErr(err))
	}

	if !result.Success {
		return result, &ledgerapi.RejectedError{Code: result.Code, Message: result.Error}
	}
	return result, nil
}

// FetchReservation returns the reservation and the orders already held for it.
func (c *Client) FetchReservation(ctx context.Context, ticketID string) (ledgerapi.ReservationSnapshot, error) {
	var snap ledgerapi.ReservationSnapshot

	path := "/tickets/" + url.PathEscape(ticketID)
	if err := c.do(ctx, http.MethodGet, path, nil, &snap); err != nil {
		return snap, fmt.Errorf("fetch reservation: %w", ticketErr(err))
	}
	if snap.ExistingOrders == nil {
		snap.ExistingOrders = map[string]ledgerapi.OrderView{}
	}
	return snap, nil
}

// FetchMenu returns the raw menu feed. It satisfies menu.Feed.
func (c *Client) FetchMenu(ctx context.Context) ([]map[string]interface{}, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/menu/items", nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch menu: %w", err)
	}
	return menu.DecodeFeed(raw)
}

// do sends body as JSON and decodes the data field of the response envelope
// into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ledger service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return errors.New("response has no data")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

func ticketErr(err error) error {
	if errors.Is(err, errNotFound) {
		return ledgerapi.ErrTicketNotFound
	}
	return err
}

func statusError(resp *http.Response) error {
	var envelope core.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&envelope); err == nil && envelope.Error.Message != "" {
		return fmt.Errorf("ledger service returned status %d: %s", resp.StatusCode, envelope.Error.Message)
	}
	return fmt.Errorf("ledger service returned status %d", resp.StatusCode)
}
