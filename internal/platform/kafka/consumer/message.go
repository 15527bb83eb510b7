package consumer

import (
	"context"
	"time"
)

// Message is one decoded Kafka record. Value is nil for tombstones.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// Handler processes one message. Returning an error fails the whole batch:
// nothing is committed and the consumer backs off and resubscribes, so the
// batch is redelivered. Handlers must therefore be idempotent.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}
