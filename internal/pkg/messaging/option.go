package messaging

// ConsumeOption configures Consume.
type ConsumeOption func(*consumeOptions)

type consumeOptions struct {
	concurrency int
	autoAck     bool
	// group is the Kafka consumer group, or the NATS and in-process queue group.
	group  string
	params map[string]string
}

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	co.concurrency = max(co.concurrency, 1)
	return co
}

// WithConcurrency runs n handler goroutines. Values below 1 mean 1.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithGroup names the consumer group; members of one group split the stream.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

// WithAutoAck acks after a nil handler return and nacks after an error.
func WithAutoAck(autoAck bool) ConsumeOption {
	return func(o *consumeOptions) { o.autoAck = autoAck }
}

// WithParam passes a driver specific setting. Kafka reads "start_offset"
// ("first" or "last") for groups without a committed offset. Blank keys and
// values are ignored.
func WithParam(key, value string) ConsumeOption {
	return func(o *consumeOptions) {
		if key == "" || value == "" {
			return
		}
		if o.params == nil {
			o.params = map[string]string{}
		}
		o.params[key] = value
	}
}

func (o consumeOptions) param(key, def string) string {
	if v := o.params[key]; v != "" {
		return v
	}
	return def
}
