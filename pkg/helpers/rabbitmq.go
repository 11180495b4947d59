package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrPublishNacked = errors.New("broker did not acknowledge message")

// RabbitPublisher publishes persistent JSON messages to one durable queue
// and waits for the broker to confirm each of them.
type RabbitPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	Queue string
}

func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p := &RabbitPublisher{conn: conn, ch: ch, Queue: queue}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		p.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// IsClosed reports whether the underlying connection has gone away.
func (p *RabbitPublisher) IsClosed() bool {
	return p == nil || p.conn == nil || p.conn.IsClosed()
}

// PublishJSON publishes body through the default exchange and blocks until
// the broker confirms it or ctx ends.
func (p *RabbitPublisher) PublishJSON(ctx context.Context, body any) error {
	if p.IsClosed() {
		return amqp.ErrClosed
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	conf, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         b,
	})
	if err != nil {
		return err
	}
	ok, err := conf.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPublishNacked
	}
	return nil
}
