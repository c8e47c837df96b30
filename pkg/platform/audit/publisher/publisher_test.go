package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "fraudintel/pkg/domain"
	audit "fraudintel/pkg/platform/audit"
	"fraudintel/pkg/requestcontext"
)

func entry(requestID string) audit.SearchEntry {
	return audit.SearchEntry{AccountID: id.NewAccountID(), RequestID: requestID, Source: "decoy"}
}

func TestPublisher_EmitAssignsIdentity(t *testing.T) {
	pub := New(10)
	now := time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC)

	pub.Emit(requestcontext.WithTime(context.Background(), now), entry("r1"))

	batch := pub.DequeueBatch(10)
	require.Len(t, batch, 1)
	assert.False(t, batch[0].ID.IsNil())
	assert.Equal(t, now, batch[0].Timestamp)
}

func TestPublisher_SignalsReady(t *testing.T) {
	pub := New(10)

	pub.Emit(context.Background(), entry("r1"))
	pub.Emit(context.Background(), entry("r2"))

	select {
	case <-pub.Ready():
	default:
		t.Fatal("expected ready signal")
	}
	assert.Equal(t, 2, pub.Pending())
}

func TestPublisher_DropsOldestWhenFull(t *testing.T) {
	pub := New(3)

	for _, rid := range []string{"r1", "r2", "r3", "r4", "r5"} {
		pub.Emit(context.Background(), entry(rid))
	}

	batch := pub.DequeueBatch(10)
	require.Len(t, batch, 3)
	assert.Equal(t, "r3", batch[0].RequestID)
	assert.Equal(t, "r5", batch[2].RequestID)
	assert.Equal(t, int64(2), pub.Dropped())
}

func TestPublisher_ConcurrentEmitNeverBlocks(t *testing.T) {
	pub := New(100)

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			for range 50 {
				pub.Emit(context.Background(), entry("r"))
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 100, pub.Pending())
	assert.Equal(t, int64(900), pub.Dropped())
}

func TestRingBuffer_DequeueInBatches(t *testing.T) {
	b := NewRingBuffer(5)
	for _, rid := range []string{"a", "b", "c", "d"} {
		b.Enqueue(entry(rid))
	}

	first := b.DequeueBatch(3)
	require.Len(t, first, 3)
	assert.Equal(t, "a", first[0].RequestID)

	b.Enqueue(entry("e"))
	b.Enqueue(entry("f"))

	rest := b.DequeueBatch(10)
	require.Len(t, rest, 3)
	assert.Equal(t, []string{"d", "e", "f"}, []string{rest[0].RequestID, rest[1].RequestID, rest[2].RequestID})
	assert.Nil(t, b.DequeueBatch(1))
}
