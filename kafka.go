package marketseed

import (
	"context"

	"github.com/segmentio/kafka-go"
)

const (
	ListedTopic = "marketseed_listed"
	BoughtTopic = "marketseed_bought"
	BatchTopic  = "marketseed_batch"
)

type KWriter struct {
	w *kafka.Writer
}

func NewKWriter(topic string, uri string) (*KWriter, error) {
	w := &kafka.Writer{
		Addr:     kafka.TCP(uri),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &KWriter{
		w: w,
	}, nil
}

func (kw *KWriter) Write(body []byte) error {
	err := kw.w.WriteMessages(
		context.Background(),
		kafka.Message{
			Value: body,
		},
	)
	return err
}

func (kw *KWriter) Close() {
	kw.w.Close()
}

func NewKWriters(uri string) (map[string]*KWriter, error) {
	listedWriter, err := NewKWriter(ListedTopic, uri)
	if err != nil {
		return nil, err
	}
	boughtWriter, err := NewKWriter(BoughtTopic, uri)
	if err != nil {
		return nil, err
	}
	batchWriter, err := NewKWriter(BatchTopic, uri)
	if err != nil {
		return nil, err
	}
	return map[string]*KWriter{
		ListedTopic: listedWriter,
		BoughtTopic: boughtWriter,
		BatchTopic:  batchWriter,
	}, nil
}
