package messaging

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Memory is an in-process Messaging. Each group receives every message once,
// shared round-robin among that group's consumers. Nacked messages are
// redelivered up to MemoryMaxRedeliveries times.
type Memory struct {
	seq atomic.Uint64

	mu     sync.RWMutex
	topics map[string]map[string]*memoryGroup
	closed atomic.Bool
}

// MemoryMaxRedeliveries bounds redelivery of nacked messages.
const MemoryMaxRedeliveries = 3

type memoryGroup struct {
	mu      sync.Mutex
	members []chan memoryEnvelope
	next    int
}

type memoryEnvelope struct {
	msg      *delivery
	attempts int
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{topics: map[string]map[string]*memoryGroup{}}
}

// Close stops accepting publishes. Running consumers exit with their contexts.
func (m *Memory) Close() error {
	m.closed.Store(true)
	return nil
}

// Publish fans msg out to every group subscribed to destination. Messages
// published before any consumer subscribes are dropped.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}
	if m.closed.Load() {
		return PublishResult{}, ErrClosed
	}

	seq := m.seq.Inc()
	now := time.Now()
	id := destination + "/" + strconv.FormatUint(seq, 10)

	m.mu.RLock()
	groups := make([]*memoryGroup, 0, len(m.topics[destination]))
	for _, g := range m.topics[destination] {
		groups = append(groups, g)
	}
	m.mu.RUnlock()

	for _, g := range groups {
		d := &delivery{
			body:      append([]byte(nil), msg.Body...),
			key:       append([]byte(nil), msg.Key...),
			headers:   append([]Header(nil), msg.Headers...),
			id:        id,
			topic:     destination,
			timestamp: now,
		}
		if err := g.send(ctx, memoryEnvelope{msg: d}); err != nil {
			return PublishResult{}, err
		}
	}

	return PublishResult{MessageID: id, Topic: destination, Offset: int64(seq), Timestamp: now}, nil
}

// Consume joins the configured group on source and blocks until ctx is done.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	if m.closed.Load() {
		return ErrClosed
	}

	co := newConsumeOptions(opts...)
	ch := make(chan memoryEnvelope, 64)
	g := m.join(source, co.group, ch)
	defer m.leave(source, co.group, ch)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case env := <-ch:
					m.handle(ctx, g, handler, env, co.autoAck)
				}
			}
		})
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

func (m *Memory) handle(ctx context.Context, g *memoryGroup, handler Handler, env memoryEnvelope, autoAck bool) {
	d := &delivery{
		body:      env.msg.body,
		key:       env.msg.key,
		headers:   env.msg.headers,
		id:        env.msg.id,
		topic:     env.msg.topic,
		timestamp: env.msg.timestamp,
	}

	d.nack = func(ctx context.Context) error {
		if env.attempts >= MemoryMaxRedeliveries {
			return nil
		}
		return g.send(ctx, memoryEnvelope{msg: env.msg, attempts: env.attempts + 1})
	}

	//nolint:errcheck // redelivery failures only happen on shutdown
	_ = dispatch(ctx, "memory", handler, d, autoAck)
}

func (m *Memory) join(topic, group string, ch chan memoryEnvelope) *memoryGroup {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups, ok := m.topics[topic]
	if !ok {
		groups = map[string]*memoryGroup{}
		m.topics[topic] = groups
	}
	g, ok := groups[group]
	if !ok {
		g = &memoryGroup{}
		groups[group] = g
	}
	g.mu.Lock()
	g.members = append(g.members, ch)
	g.mu.Unlock()
	return g
}

func (m *Memory) leave(topic, group string, ch chan memoryEnvelope) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.topics[topic][group]
	if g == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for i, c := range g.members {
		if c == ch {
			g.members = append(g.members[:i], g.members[i+1:]...)
			break
		}
	}
	if len(g.members) == 0 {
		delete(m.topics[topic], group)
	}
}

func (g *memoryGroup) send(ctx context.Context, env memoryEnvelope) error {
	g.mu.Lock()
	if len(g.members) == 0 {
		g.mu.Unlock()
		return nil
	}
	target := g.members[g.next%len(g.members)]
	g.next++
	g.mu.Unlock()

	select {
	case target <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
