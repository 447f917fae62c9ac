// Package remote persists transactions through the /transactions REST endpoint.
package remote

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

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

const defaultTimeout = 10 * time.Second

var _ storage.Backend = (*Backend)(nil)

// Config represents the configuration for the remote backend.
type Config struct {
	BaseURL    string
	Timeout    time.Duration // Default: 10 seconds, per request
	HTTPClient *http.Client
}

// Backend talks to a ledger server over HTTP. Calls are never retried: a
// single failure is returned to the caller.
type Backend struct {
	httpClient *http.Client
	endpoint   string
	timeout    time.Duration
	logger     logrus.FieldLogger
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	StatusCode int
	Message    string
	Details    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s /transactions: HTTP %d", e.Method, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// New creates a remote backend for the server at cfg.BaseURL.
func New(cfg Config, logger logrus.FieldLogger) *Backend {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &Backend{
		httpClient: client,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/transactions",
		timeout:    timeout,
		logger:     logger.WithField("backend", "remote"),
	}
}

func (b *Backend) Name() string {
	return "remote"
}

// body is the JSON sent on create and update.
type body struct {
	ID    transaction.ID `json:"id,omitempty"`
	Name  string         `json:"name"`
	Value float64        `json:"value"`
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func (b *Backend) do(ctx context.Context, method string, id *transaction.ID, payload interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	target := b.endpoint
	if id != nil {
		target += "?" + url.Values{"id": {id.String()}}.Encode()
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return storage.Unavailable(method, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.logger.WithError(err).WithField("method", method).Error("Remote.do.request failed")
		return storage.Unavailable(method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Method: method, StatusCode: resp.StatusCode}
		var eb errorBody
		if json.NewDecoder(resp.Body).Decode(&eb) == nil {
			statusErr.Message = eb.Error
			statusErr.Details = eb.Details
		}
		if resp.StatusCode == http.StatusNotFound && id != nil {
			b.logger.WithError(statusErr).Warn("Remote.do.record unknown to server")
			return fmt.Errorf("%w: %w", storage.ErrRecordNotFound, statusErr)
		}
		b.logger.WithError(statusErr).Error("Remote.do.non-2xx")
		return storage.Unavailable(method, statusErr)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return storage.Unavailable(method, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (b *Backend) LoadAll(ctx context.Context) ([]transaction.Record, error) {
	var records []transaction.Record
	if err := b.do(ctx, http.MethodGet, nil, nil, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []transaction.Record{}
	}
	return records, nil
}

func (b *Backend) list(ctx context.Context) ([]transaction.Transaction, error) {
	records, err := b.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return transaction.Transactions(records), nil
}

// SaveAll makes the server hold exactly list. The endpoint has no bulk write,
// so the difference is applied one request at a time.
func (b *Backend) SaveAll(ctx context.Context, list []transaction.Transaction) error {
	current, err := b.list(ctx)
	if err != nil {
		return err
	}

	wanted := make(map[transaction.ID]bool, len(list))
	for _, t := range list {
		wanted[t.ID] = true
	}
	held := make(map[transaction.ID]transaction.Transaction, len(current))
	for _, t := range current {
		held[t.ID] = t
		if !wanted[t.ID] {
			id := t.ID
			if err := b.do(ctx, http.MethodDelete, &id, nil, nil); err != nil {
				return err
			}
		}
	}

	for _, t := range list {
		existing, ok := held[t.ID]
		switch {
		case !ok:
			if err := b.do(ctx, http.MethodPost, nil, body{ID: t.ID, Name: t.Name, Value: t.Value}, nil); err != nil {
				return err
			}
		case existing != t:
			id := t.ID
			if err := b.do(ctx, http.MethodPut, &id, body{ID: t.ID, Name: t.Name, Value: t.Value}, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// Append posts t, proposing its id to the server, and returns the server's list.
func (b *Backend) Append(ctx context.Context, t transaction.Transaction) ([]transaction.Transaction, error) {
	var created transaction.Transaction
	if err := b.do(ctx, http.MethodPost, nil, body{ID: t.ID, Name: t.Name, Value: t.Value}, &created); err != nil {
		return nil, err
	}
	if t.ID != 0 && created.ID != t.ID {
		b.logger.WithFields(logrus.Fields{
			"proposedID": t.ID,
			"assignedID": created.ID,
		}).Warn("Remote.Append.server assigned a different id")
	}
	return b.list(ctx)
}

// UpdateOne sends a PUT; the endpoint requires both name and value.
func (b *Backend) UpdateOne(ctx context.Context, id transaction.ID, patch transaction.Patch) ([]transaction.Transaction, error) {
	if patch.Name == nil || patch.Value == nil {
		return nil, fmt.Errorf("remote update of id %d needs both name and value", id)
	}
	payload := body{ID: id, Name: *patch.Name, Value: *patch.Value}
	if err := b.do(ctx, http.MethodPut, &id, payload, nil); err != nil {
		return nil, err
	}
	return b.list(ctx)
}

func (b *Backend) RemoveOne(ctx context.Context, id transaction.ID) ([]transaction.Transaction, error) {
	if err := b.do(ctx, http.MethodDelete, &id, nil, nil); err != nil {
		return nil, err
	}
	return b.list(ctx)
}

func (b *Backend) Clear(ctx context.Context) error {
	return b.SaveAll(ctx, nil)
}

// Probe checks that the list endpoint answers with a 2xx.
func (b *Backend) Probe(ctx context.Context) error {
	return b.do(ctx, http.MethodGet, nil, nil, nil)
}
