package events

import (
    "context"
    "encoding/json"

    "github.com/streadway/amqp"
)

// DeliveryQueue is the durable queue external reporting consumes from.
const DeliveryQueue = "delivery_events"

// AMQPPublisher publishes delivery events to RabbitMQ.
type AMQPPublisher struct {
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewAMQPPublisher dials the broker and declares the durable queue.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
    conn, err := amqp.Dial(url)
    if err != nil {
        return nil, err
    }

    ch, err := conn.Channel()
    if err != nil {
        conn.Close()
        return nil, err
    }

    _, err = ch.QueueDeclare(
        DeliveryQueue,
        true,  // durable
        false, // delete when unused
        false, // exclusive
        false, // no-wait
        nil,   // arguments
    )
    if err != nil {
        ch.Close()
        conn.Close()
        return nil, err
    }

    return &AMQPPublisher{conn: conn, ch: ch}, nil
}

func (p *AMQPPublisher) Publish(_ context.Context, event DeliveryEvent) error {
    body, err := json.Marshal(event)
    if err != nil {
        return err
    }
    return p.ch.Publish(
        "",
        DeliveryQueue,
        false,
        false,
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            MessageId:    event.ID,
            Body:         body,
        },
    )
}

func (p *AMQPPublisher) Close() error {
    if err := p.ch.Close(); err != nil {
        p.conn.Close()
        return err
    }
    return p.conn.Close()
}

var _ Publisher = (*AMQPPublisher)(nil)
