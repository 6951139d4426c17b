package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestNewProducerAppliesOptions(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithCompression("zstd"),
		WithRequiredAcks(1),
		WithHashByKey(true),
		WithBatchSize(10),
	)
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	defer p.Close()

	if p.writer.RequiredAcks != kafka.RequireOne {
		t.Fatalf("acks = %v", p.writer.RequiredAcks)
	}
	if _, ok := p.writer.Balancer.(*kafka.Hash); !ok {
		t.Fatalf("expected hash balancer, got %T", p.writer.Balancer)
	}
	if p.writer.BatchSize != 10 || p.comp != "zstd" {
		t.Fatalf("unexpected writer %+v", p.writer)
	}
}

func TestParseCompression(t *testing.T) {
	tests := map[string]kafka.Compression{
		"gzip":   kafka.Gzip,
		"snappy": kafka.Snappy,
		"lz4":    kafka.Lz4,
		"zstd":   kafka.Zstd,
		"":       kafka.Gzip,
	}
	for in, want := range tests {
		if got := parseCompression(in); got != want {
			t.Errorf("parseCompression(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewProducerRejectsBadAcks(t *testing.T) {
	_, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithRequiredAcks(2))
	if err == nil {
		t.Fatalf("expected error for acks=2")
	}
}

func TestNewProducerSetsClientID(t *testing.T) {
	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithClientID("fx-test"))
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	defer p.Close()

	tr, ok := p.writer.Transport.(*kafka.Transport)
	if !ok || tr.ClientID != "fx-test" {
		t.Fatalf("transport = %#v", p.writer.Transport)
	}
}
