package positionfeed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// maxConsecutiveFailures is how many read errors in a row mark the provider failed. Reading continues.
const maxConsecutiveFailures = 5

// KafkaReader is the subset of *kafka.Reader the feed uses.
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaFeed consumes JSON position samples from a topic into a Provider.
type KafkaFeed struct {
	reader   KafkaReader
	provider *Provider
	backoff  time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewKafkaFeed creates a consumer-group reader for topic.
func NewKafkaFeed(brokers []string, topic, groupID string, provider *Provider) *KafkaFeed {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       10e6,
	})
	return newKafkaFeed(reader, provider)
}

func newKafkaFeed(reader KafkaReader, provider *Provider) *KafkaFeed {
	return &KafkaFeed{reader: reader, provider: provider, backoff: time.Second}
}

// Start runs the consume loop on its own goroutine until Stop or ctx ends.
func (f *KafkaFeed) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)
	f.provider.SetStatus(StatusInitializing)
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		log.Println("Starting position feed consumer loop...")
		f.consume(ctx)
	}()
}

func (f *KafkaFeed) consume(ctx context.Context) {
	failures := 0
	for {
		msg, err := f.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				log.Println("Position feed consumer loop stopped.")
				return
			}
			failures++
			log.Printf("Error reading position message (%d in a row): %v", failures, err)
			if failures == maxConsecutiveFailures {
				f.provider.SetStatus(StatusFailed)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.backoff):
			}
			continue
		}
		failures = 0

		var s Sample
		if err := json.Unmarshal(msg.Value, &s); err != nil {
			log.Printf("Dropping undecodable position message at offset %d: %v", msg.Offset, err)
		} else if err := f.provider.Publish(s); err != nil {
			log.Printf("Dropping position message at offset %d: %v", msg.Offset, err)
		}

		if err := f.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Printf("Failed to commit offset %d: %v", msg.Offset, err)
		}
	}
}

// Stop ends the consume loop, closes the reader and marks the provider stopped.
func (f *KafkaFeed) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	f.wg.Wait()
	if err := f.reader.Close(); err != nil {
		log.Printf("Failed to close Kafka reader: %v", err)
	}
	f.provider.SetStatus(StatusStopped)
	log.Println("Position feed stopped.")
}
