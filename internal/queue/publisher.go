package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

const (
    // maxDialTimeout caps a single connection attempt.  Publishing runs on
    // the booking request path, so a dead broker must fail fast.
    maxDialTimeout = 2 * time.Second
    // redialBackoff is how long a failed dial suppresses further attempts.
    redialBackoff = 5 * time.Second
)

// ErrBrokerUnavailable is returned while the publisher is backing off
// after a failed dial.
var ErrBrokerUnavailable = errors.New("broker unavailable")

type dialFunc func(url string, cfg amqp.Config) (*amqp.Connection, error)

// Publisher sends booking events to RabbitMQ.  The connection is opened
// on first use and re-opened after the broker drops it.  Messages are
// marked persistent and routed through the default exchange.
type Publisher struct {
    url  string
    dial dialFunc
    now  func() time.Time

    mu          sync.Mutex
    conn        *amqp.Connection
    ch          *amqp.Channel
    nextAttempt time.Time
}

func NewPublisher(url string) *Publisher {
    return &Publisher{url: url, dial: amqp.DialConfig, now: time.Now}
}

// PublishBookingCreated publishes ev to the booking.created queue.
func (p *Publisher) PublishBookingCreated(ctx context.Context, ev BookingCreatedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel(ctx)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",                  // default exchange
        BookingCreatedQueue, // routing key = queue name
        false,               // mandatory
        false,               // immediate
        pub,
    ); err != nil {
        p.reset()
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}

// channel returns an open channel, dialing when needed.  The dial is
// bounded by ctx and maxDialTimeout, and a failure blocks redialing for
// redialBackoff.  Caller holds mu.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
        return p.ch, nil
    }
    p.reset()

    if err := ctx.Err(); err != nil {
        return nil, err
    }
    now := p.now()
    if now.Before(p.nextAttempt) {
        return nil, ErrBrokerUnavailable
    }
    timeout := maxDialTimeout
    if dl, ok := ctx.Deadline(); ok && dl.Sub(now) < timeout {
        timeout = dl.Sub(now)
    }
    if timeout <= 0 {
        return nil, context.DeadlineExceeded
    }

    conn, err := p.dial(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(timeout),
    })
    if err != nil {
        p.nextAttempt = now.Add(redialBackoff)
        return nil, fmt.Errorf("dial broker: %w", err)
    }
    p.nextAttempt = time.Time{}
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("open channel: %w", err)
    }
    // Durable so messages survive broker restarts.
    if err := declareBookingQueue(ch); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.ch, p.conn = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}

func declareBookingQueue(ch *amqp.Channel) error {
    if _, err := ch.QueueDeclare(
        BookingCreatedQueue, // name
        true,                // durable
        false,               // autoDelete
        false,               // exclusive
        false,               // noWait
        nil,                 // args
    ); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    return nil
}
