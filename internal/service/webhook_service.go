package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// DefaultWebhookRetryIntervals is the delay before each redelivery.
var DefaultWebhookRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

const (
	HeaderWebhookSignature = "X-Schnl-Signature"
	HeaderWebhookTimestamp = "X-Schnl-Timestamp"
	HeaderWebhookSeq       = "X-Schnl-Seq"
)

// WebhookPayload is the JSON body posted for each committed journal entry.
type WebhookPayload struct {
	Seq       uint64                 `json:"seq"`
	EntryID   string                 `json:"entry_id"`
	Operation domain.Operation       `json:"operation"`
	Actor     domain.Address         `json:"actor"`
	At        time.Time              `json:"at"`
	Events    []domain.EventEnvelope `json:"events"`
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// webhookPublisher implements ports.EventPublisher over signed HTTP POSTs.
type webhookPublisher struct {
	url        string
	secret     string
	sigSvc     ports.SignatureService
	httpClient HTTPClient
	retries    []time.Duration
	log        zerolog.Logger
}

// NewWebhookPublisher creates a publisher that posts entries to url,
// signed with secret. A nil retries uses DefaultWebhookRetryIntervals.
func NewWebhookPublisher(
	url string,
	secret string,
	sigSvc ports.SignatureService,
	httpClient HTTPClient,
	retries []time.Duration,
	log zerolog.Logger,
) ports.EventPublisher {
	if retries == nil {
		retries = DefaultWebhookRetryIntervals
	}
	return &webhookPublisher{
		url:        url,
		secret:     secret,
		sigSvc:     sigSvc,
		httpClient: httpClient,
		retries:    retries,
		log:        log,
	}
}

// Publish delivers entry, retrying on transport errors and non-2xx
// responses until the schedule is exhausted or ctx ends.
func (p *webhookPublisher) Publish(ctx context.Context, entry *domain.JournalEntry) error {
	body, err := json.Marshal(WebhookPayload{
		Seq:       entry.Seq,
		EntryID:   entry.ID.String(),
		Operation: entry.Operation,
		Actor:     entry.Actor,
		At:        entry.At,
		Events:    entry.Events,
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= len(p.retries); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(ctx.Err(), lastErr)
			case <-time.After(p.retries[attempt-1]):
			}
		}

		lastErr = p.deliver(ctx, body, entry.Seq)
		if lastErr == nil {
			p.log.Info().Uint64("seq", entry.Seq).Int("attempt", attempt+1).Msg("webhook: delivered successfully")
			return nil
		}
		p.log.Warn().Err(lastErr).Uint64("seq", entry.Seq).Int("attempt", attempt+1).Msg("webhook: delivery failed")
	}

	p.log.Error().Uint64("seq", entry.Seq).Msg("webhook: all retry attempts exhausted")
	return fmt.Errorf("webhook: retries exhausted: %w", lastErr)
}

func (p *webhookPublisher) deliver(ctx context.Context, body []byte, seq uint64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	ts := time.Now().Unix()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderWebhookTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderWebhookSeq, strconv.FormatUint(seq, 10))
	req.Header.Set(HeaderWebhookSignature, p.sigSvc.Sign(p.secret, WebhookSigningString(ts, body)))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("non-2xx response: %d", resp.StatusCode)
	}
	return nil
}
