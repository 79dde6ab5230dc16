package timeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Compile-time interface compliance check.
var _ Poller = (*Client)(nil)

const maxResponseBodySize = 8 << 20 // 8MB

// Client polls the public timeline with one credential and remembers the
// highest identifier it has returned, so every poll only yields newer items.
//
// Client is not safe for concurrent use; each polling loop owns one.
type Client struct {
	log        logrus.FieldLogger
	cfg        Config
	httpClient *http.Client
	credential string
	lastID     uint64
}

// NewClient creates a client using credential.
func NewClient(log logrus.FieldLogger, cfg Config, credential string) *Client {
	return &Client{
		log:        log.WithField("component", "timeline"),
		cfg:        cfg,
		httpClient: cfg.HTTPClient(),
		credential: credential,
	}
}

// SetCredential swaps the active credential. The watermark is kept.
func (c *Client) SetCredential(token string) {
	c.credential = token
}

// Credential returns the active credential.
func (c *Client) Credential() string {
	return c.credential
}

// LastID returns the highest identifier returned so far.
func (c *Client) LastID() uint64 {
	return c.lastID
}

// SetLastID raises the watermark to id. Lower values are ignored.
func (c *Client) SetLastID(id uint64) {
	if id > c.lastID {
		c.lastID = id
	}
}

// Poll fetches the public timeline once and returns the items newer than the
// watermark, in the order the remote sent them.
func (c *Client) Poll(ctx context.Context) ([]Status, error) {
	start := time.Now()
	defer func() {
		pollDuration.Observe(time.Since(start).Seconds())
	}()

	statuses, err := c.poll(ctx)

	switch {
	case err == nil && len(statuses) > 0:
		pollsTotal.WithLabelValues(resultOK).Inc()
	case err == nil:
		pollsTotal.WithLabelValues(resultEmpty).Inc()
	case isRejected(err):
		pollsTotal.WithLabelValues(resultRejected).Inc()
	default:
		pollsTotal.WithLabelValues(resultError).Inc()
	}

	return statuses, err
}

func (c *Client) poll(ctx context.Context) ([]Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(), http.NoBody)
	if err != nil {
		return nil, &PollError{Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &PollError{Err: fmt.Errorf("fetch timeline: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, &PollError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.classify(resp.StatusCode, body)
	}

	return c.selectNew(body)
}

// requestURL builds the endpoint URL, keeping any query already configured.
func (c *Client) requestURL() string {
	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return c.cfg.Endpoint
	}

	q := u.Query()
	q.Set("access_token", c.credential)
	q.Set("count", strconv.Itoa(c.cfg.Count))
	u.RawQuery = q.Encode()

	return u.String()
}

func (c *Client) classify(statusCode int, body []byte) error {
	pollErr := &PollError{StatusCode: statusCode, Body: string(body)}

	if statusCode == http.StatusForbidden && gjson.ValidBytes(body) {
		code := gjson.GetBytes(body, "error_code")
		if code.Exists() && code.Int() == int64(c.cfg.BlockedErrorCode) {
			pollErr.Err = ErrCredentialRejected
		}
	}

	return pollErr
}

func (c *Client) selectNew(body []byte) ([]Status, error) {
	if !gjson.ValidBytes(body) {
		return nil, &PollError{
			StatusCode: http.StatusOK,
			Body:       string(body),
			Err:        fmt.Errorf("parse JSON: invalid document"),
		}
	}

	list := gjson.GetBytes(body, "statuses")
	if !list.IsArray() {
		return nil, &PollError{
			StatusCode: http.StatusOK,
			Body:       string(body),
			Err:        fmt.Errorf("parse JSON: statuses array missing"),
		}
	}

	var (
		fresh []Status
		maxID = c.lastID
	)

	for _, item := range list.Array() {
		id := item.Get("id").Uint()
		if id <= c.lastID {
			continue
		}

		fresh = append(fresh, Status{ID: id, Raw: []byte(item.Raw)})

		if id > maxID {
			maxID = id
		}
	}

	if len(fresh) == 0 {
		c.log.Debug("No new statuses")

		return []Status{}, nil
	}

	c.log.WithFields(logrus.Fields{
		"count":   len(fresh),
		"last_id": maxID,
	}).Info("Received new statuses")

	c.lastID = maxID

	return fresh, nil
}

func isRejected(err error) bool {
	return errors.Is(err, ErrCredentialRejected)
}
