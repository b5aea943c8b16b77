package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"schnl-ledger/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
	pingErr error
	flushed bool
	closed  bool
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	out := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		f.records = append(f.records, r)
		out = append(out, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return out
}

func (f *fakeProducer) Ping(context.Context) error  { return f.pingErr }
func (f *fakeProducer) Flush(context.Context) error { f.flushed = true; return nil }
func (f *fakeProducer) Close()                      { f.closed = true }

func testEntry(t *testing.T) *domain.JournalEntry {
	t.Helper()
	actor := domain.MustAddress("0x00000000000000000000000000000000000000ad")
	entry, err := domain.NewJournalEntry(7, domain.OpSetFreeze, actor, time.Unix(1_700_000_000, 0),
		[]domain.Event{domain.AccountFrozen{Account: actor, Reason: "case-1"}})
	require.NoError(t, err)
	return entry
}

func headerMap(r *kgo.Record) map[string]string {
	out := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

func TestPublisher_Publish(t *testing.T) {
	fp := &fakeProducer{}
	pub := newPublisher(fp, "schnl.ledger.events", zerolog.Nop())
	entry := testEntry(t)

	require.NoError(t, pub.Publish(context.Background(), entry))
	require.Len(t, fp.records, 1)

	rec := fp.records[0]
	assert.Equal(t, "schnl.ledger.events", rec.Topic)
	assert.Equal(t, partitionKey, rec.Key)

	headers := headerMap(rec)
	assert.Equal(t, "7", headers[HeaderSeq])
	assert.Equal(t, string(domain.OpSetFreeze), headers[HeaderOperation])
	assert.Equal(t, "1", headers[HeaderSchemaVersion])

	var decoded domain.JournalEntry
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, entry.ID, decoded.ID)
	events, err := decoded.DecodeEvents()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "case-1", events[0].(domain.AccountFrozen).Reason)
}

func TestPublisher_PublishError(t *testing.T) {
	fp := &fakeProducer{err: errors.New("NOT_ENOUGH_REPLICAS")}
	pub := newPublisher(fp, "t", zerolog.Nop())

	err := pub.Publish(context.Background(), testEntry(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "produce seq 7")
}

func TestPublisher_Close(t *testing.T) {
	fp := &fakeProducer{}
	pub := newPublisher(fp, "t", zerolog.Nop())

	require.NoError(t, pub.Close())
	assert.True(t, fp.flushed)
	assert.True(t, fp.closed)
	require.NoError(t, pub.Close())

	assert.Error(t, pub.Publish(context.Background(), testEntry(t)))
	assert.Error(t, pub.Ping(context.Background()))
}

func TestPublisher_Ping(t *testing.T) {
	fp := &fakeProducer{pingErr: errors.New("no brokers")}
	pub := newPublisher(fp, "t", zerolog.Nop())
	assert.Equal(t, "kafka", pub.Name())
	assert.Error(t, pub.Ping(context.Background()))
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(Config{Topic: "t"}, zerolog.Nop())
	assert.Error(t, err)
	_, err = New(Config{Brokers: "localhost:9092"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestRequiredAcks(t *testing.T) {
	assert.Equal(t, kgo.NoAck(), requiredAcks("0"))
	assert.Equal(t, kgo.LeaderAck(), requiredAcks("1"))
	assert.Equal(t, kgo.AllISRAcks(), requiredAcks("all"))
	assert.Equal(t, kgo.AllISRAcks(), requiredAcks(""))
}
