package event

import (
	"context"
	"time"

	"meme-radar/internal/tracker/model"
	"meme-radar/internal/tracker/writer"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const RETRY_COUNT = 3

// MessageWriter *kafka.Writer 满足
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaImportEventWriter struct {
	mq MessageWriter
	tl *zap.Logger

	topic string
}

func NewKafkaImportEventWriter(mq MessageWriter, tl *zap.Logger, topic string) writer.BatchWriter[model.ImportEvent] {
	return &KafkaImportEventWriter{mq: mq, tl: tl, topic: topic}
}

func (w *KafkaImportEventWriter) BWrite(ctx context.Context, events []model.ImportEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		msg, err := w.marshalToMsg(ev)
		if err != nil {
			w.tl.Warn("marshal import event failed", zap.String("token_id", ev.TokenID), zap.Error(err))
			continue
		}
		msgs = append(msgs, msg)
	}

	newCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var err error
	for attempt := 0; attempt < RETRY_COUNT; attempt++ {
		err = w.mq.WriteMessages(newCtx, msgs...)
		if err == nil {
			break
		}
	}
	if err != nil {
		w.tl.Warn("MQ write failed, exceeded the maximum number of retries", zap.Int("events", len(msgs)), zap.Error(err))
		return err
	}
	return nil
}

func (w *KafkaImportEventWriter) Close() error {
	return nil
}

func (w *KafkaImportEventWriter) marshalToMsg(ev model.ImportEvent) (kafka.Message, error) {
	jsonData, err := sonic.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Topic: w.topic,
		Key:   []byte(ev.TokenID),
		Value: jsonData,
	}, nil
}
