// Package feed publishes deal events for downstream consumers (notification
// fan-out, dashboards). Publishing is best effort: the price job counts and
// logs failures but never aborts on them.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/segmentio/kafka-go"

	"bricksync/internal/model"
)

// Event is one qualifying deal, flattened for consumers.
type Event struct {
	Key        string  `json:"key"`
	SetID      string  `json:"setId"`
	Retailer   string  `json:"retailer"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	RefPrice   float64 `json:"refPrice"`
	PercentOff int     `json:"percentOff"`
	Savings    float64 `json:"savings"`
	URL        string  `json:"url"`
	TS         int64   `json:"ts"`
}

// FromDeal flattens a deal into an event.
func FromDeal(d model.Deal) Event {
	return Event{
		Key:        model.PairKey(d.SetID, d.Retailer),
		SetID:      d.SetID,
		Retailer:   d.Retailer,
		Name:       d.Name,
		Price:      d.Price,
		RefPrice:   d.RefPrice,
		PercentOff: d.PercentOff,
		Savings:    d.Savings,
		URL:        d.URL,
		TS:         d.LastUpdated,
	}
}

type Writer interface {
	Append(e Event) error
}

// MultiWriter fans out writes to multiple underlying writers.
type MultiWriter struct {
	writers []Writer
}

func NewMultiWriter(ws ...Writer) *MultiWriter {
	return &MultiWriter{writers: ws}
}

func (m *MultiWriter) Append(e Event) error {
	for _, w := range m.writers {
		if err := w.Append(e); err != nil {
			return err
		}
	}
	return nil
}

type FileWriter struct {
	path string
}

func NewFileWriter(dir string, filename string) (*FileWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &FileWriter{path: filepath.Join(dir, filename)}, nil
}

func (w *FileWriter) Append(e Event) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	if err := enc.Encode(&e); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// KafkaWriter publishes deal events to a Kafka topic. Pure-Go client
// (segmentio/kafka-go), keyed by the deal pair key.
type KafkaWriter struct {
	writer kafkaMessageWriter
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaWriter creates a Kafka writer.
// bootstrap can be a comma-separated list of host:port.
func NewKafkaWriter(bootstrap string, topic string) *KafkaWriter {
	addrs := strings.Split(bootstrap, ",")
	var brokers []string
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a != "" {
			brokers = append(brokers, a)
		}
	}
	return &KafkaWriter{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}}
}

func (k *KafkaWriter) Append(e Event) error {
	b, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return k.writer.WriteMessages(
		context.Background(),
		kafka.Message{Key: []byte(e.Key), Value: b},
	)
}

// NewKafkaWriterWith is only for tests to inject a fake writer.
func NewKafkaWriterWith(w kafkaMessageWriter) *KafkaWriter {
	return &KafkaWriter{writer: w}
}
