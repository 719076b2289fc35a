package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/samber/lo"
)

// HeaderCorrelationID carries the request correlation id from publisher to
// consumer so both sides log under the same id.
const HeaderCorrelationID = "cID"

var (
	ErrUnsupported         = errors.New("messaging: unsupported operation")
	ErrClosed              = errors.New("messaging: client closed")
	ErrDestinationRequired = errors.New("messaging: destination is required")
	ErrHandlerRequired     = errors.New("messaging: handler is required")
)

// Messaging is a broker client that can both publish and consume.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

type Publisher interface {
	// Publish sends msg to destination, a topic or subject depending on driver.
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

type Consumer interface {
	// Consume blocks, delivering messages from source to handler until ctx is done.
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one message. Under WithAutoAck(true) a nil return acks
// and an error nacks, which lets the broker redeliver.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is what Publish sends. Key is the Kafka partition key and
// is ignored by the other drivers.
type OutgoingMessage struct {
	Body    []byte
	Key     []byte
	Headers []Header
}

// JSON encodes v as the body of a message partitioned by key. A non-empty
// correlation id is attached as HeaderCorrelationID.
func JSON(v any, key, correlationID string) (OutgoingMessage, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return OutgoingMessage{}, err
	}

	msg := OutgoingMessage{Body: body, Key: []byte(key)}
	if correlationID != "" {
		msg.Headers = append(msg.Headers, Header{Key: HeaderCorrelationID, Value: []byte(correlationID)})
	}
	return msg, nil
}

type Header struct {
	Key   string
	Value []byte
}

// PublishResult is what the broker reported. Fields a driver cannot fill
// stay zero.
type PublishResult struct {
	MessageID string
	Topic     string
	Partition int32
	Offset    int64
	Timestamp time.Time
}

// Message is a received message.
type Message interface {
	Body() []byte
	Key() []byte
	Headers() []Header
	// Header returns the first value for key or "".
	Header(key string) string
	ID() string
	Topic() string
	Timestamp() time.Time

	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}

// HeaderValue returns the first value for key in headers or "".
func HeaderValue(headers []Header, key string) string {
	h, _ := lo.Find(headers, func(h Header) bool { return h.Key == key })
	return string(h.Value)
}
