package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// Publisher публикует сообщения в exchange биллинга через открытый канал.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
}

// NewPublisher создает новый экземпляр Publisher.
func NewPublisher(ch *amqp.Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

// PublishMessage публикует message с заданным ключом маршрутизации.
func (p *Publisher) PublishMessage(ctx context.Context, routingKey string, message any) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return PublishMessage(p.ch, p.exchange, routingKey, message)
}

// PublishMessage сериализует message в JSON и публикует его в exchange
// с заданным ключом маршрутизации. Сообщения помечаются persistent.
func PublishMessage(ch *amqp.Channel, exchange, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
