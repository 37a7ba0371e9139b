package positionfeed

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

// mockReader simulates the kafka-go Reader for unit testing.
type mockReader struct {
	messages chan kafka.Message
	errs     chan error

	mu        sync.Mutex
	committed []int64
	closed    bool
}

func newMockReader() *mockReader {
	return &mockReader{
		messages: make(chan kafka.Message, 10),
		errs:     make(chan error, 10),
	}
}

func (m *mockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case err := <-m.errs:
		return kafka.Message{}, err
	case msg, ok := <-m.messages:
		if !ok {
			return kafka.Message{}, io.EOF
		}
		return msg, nil
	}
}

func (m *mockReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		m.committed = append(m.committed, msg.Offset)
	}
	return nil
}

func (m *mockReader) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockReader) commits() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.committed...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestKafkaFeedPublishesSamples(t *testing.T) {
	reader := newMockReader()
	provider := NewProvider()
	feed := newKafkaFeed(reader, provider)

	reader.messages <- kafka.Message{Offset: 0, Value: []byte(`{"latitude": -45.8644, "longitude": 170.5173}`)}
	reader.messages <- kafka.Message{Offset: 1, Value: []byte(`not json`)}
	reader.messages <- kafka.Message{Offset: 2, Value: []byte(`{"latitude": 123, "longitude": 0}`)}
	reader.messages <- kafka.Message{Offset: 3, Value: []byte(`{"latitude": -45.8650, "longitude": 170.5180}`)}

	feed.Start(context.Background())
	waitFor(t, func() bool { return len(reader.commits()) == 4 })
	feed.Stop()

	if geo, ok := provider.Latest(); ok {
		t.Errorf("a stopped feed must not expose a fix, got %+v", geo)
	}
	s, st, _ := provider.Snapshot()
	if s.Latitude != -45.8650 || s.Longitude != 170.5180 {
		t.Errorf("latest sample = %+v, want the last valid message", s)
	}
	if st != StatusStopped {
		t.Errorf("status = %s, want stopped", st)
	}
	if !reader.closed {
		t.Error("reader was not closed")
	}
}

func TestKafkaFeedMarksFailedAfterRepeatedErrors(t *testing.T) {
	reader := newMockReader()
	provider := NewProvider()
	feed := newKafkaFeed(reader, provider)
	feed.backoff = time.Millisecond

	for i := 0; i < maxConsecutiveFailures; i++ {
		reader.errs <- errors.New("broker unavailable")
	}
	feed.Start(context.Background())
	waitFor(t, func() bool {
		_, st, _ := provider.Snapshot()
		return st == StatusFailed
	})

	reader.messages <- kafka.Message{Offset: 7, Value: []byte(`{"latitude": 1, "longitude": 2}`)}
	waitFor(t, func() bool {
		_, ok := provider.Latest()
		return ok
	})
	feed.Stop()
}

func TestKafkaFeedStopsWhenReaderCloses(t *testing.T) {
	reader := newMockReader()
	provider := NewProvider()
	feed := newKafkaFeed(reader, provider)
	close(reader.messages)

	feed.Start(context.Background())
	done := make(chan struct{})
	go func() {
		feed.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer loop did not exit on EOF")
	}
	feed.Stop()
}
