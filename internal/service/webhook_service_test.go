package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"schnl-ledger/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTTPClient implements HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func okResponse(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}
}

func testEntry(t *testing.T) *domain.JournalEntry {
	t.Helper()
	entry, err := domain.NewJournalEntry(3, domain.OpPause, testAdmin, time.Unix(1_700_000_000, 0),
		[]domain.Event{domain.Paused{Reason: "incident-7"}})
	require.NoError(t, err)
	return entry
}

func TestWebhookPublisher_Publish_SignsPayload(t *testing.T) {
	sigSvc := NewHMACSignatureService()
	var captured *http.Request
	var body []byte

	client := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		captured = req
		body, _ = io.ReadAll(req.Body)
		return okResponse(http.StatusOK), nil
	}}

	pub := NewWebhookPublisher("https://hooks.example.com/ledger", "hook-secret", sigSvc, client, []time.Duration{}, newTestLogger())
	require.NoError(t, pub.Publish(context.Background(), testEntry(t)))

	require.NotNil(t, captured)
	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "3", captured.Header.Get(HeaderWebhookSeq))

	ts, err := strconv.ParseInt(captured.Header.Get(HeaderWebhookTimestamp), 10, 64)
	require.NoError(t, err)
	assert.True(t, sigSvc.Verify("hook-secret", WebhookSigningString(ts, body), captured.Header.Get(HeaderWebhookSignature)))

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, uint64(3), payload.Seq)
	assert.Equal(t, domain.OpPause, payload.Operation)
	require.Len(t, payload.Events, 1)
	assert.Equal(t, domain.EventPaused, payload.Events[0].Type)
}

func TestWebhookPublisher_Publish_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	client := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		switch calls.Add(1) {
		case 1:
			return nil, errors.New("connection refused")
		case 2:
			return okResponse(http.StatusBadGateway), nil
		default:
			return okResponse(http.StatusNoContent), nil
		}
	}}

	retries := []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	pub := NewWebhookPublisher("https://hooks.example.com", "s", NewHMACSignatureService(), client, retries, newTestLogger())

	require.NoError(t, pub.Publish(context.Background(), testEntry(t)))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookPublisher_Publish_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	client := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return okResponse(http.StatusInternalServerError), nil
	}}

	retries := []time.Duration{time.Millisecond, time.Millisecond}
	pub := NewWebhookPublisher("https://hooks.example.com", "s", NewHMACSignatureService(), client, retries, newTestLogger())

	err := pub.Publish(context.Background(), testEntry(t))
	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookPublisher_Publish_StopsOnContextCancel(t *testing.T) {
	client := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("unreachable")
	}}

	pub := NewWebhookPublisher("https://hooks.example.com", "s", NewHMACSignatureService(), client, []time.Duration{time.Hour}, newTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := pub.Publish(ctx, testEntry(t))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

type stubPublisher struct {
	err   error
	calls atomic.Int32
}

func (s *stubPublisher) Publish(context.Context, *domain.JournalEntry) error {
	s.calls.Add(1)
	return s.err
}

func TestFanoutPublisher_DeliversToAllSinks(t *testing.T) {
	failing := &stubPublisher{err: errors.New("broker down")}
	healthy := &stubPublisher{}

	pub := NewFanoutPublisher(nil,
		NamedPublisher{Name: "kafka", Publisher: failing},
		NamedPublisher{Name: "webhook", Publisher: healthy},
	)

	err := pub.Publish(context.Background(), testEntry(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka")
	assert.Equal(t, int32(1), failing.calls.Load())
	assert.Equal(t, int32(1), healthy.calls.Load())
}
