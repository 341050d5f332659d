package broker

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Producer はexchangeへの発行だけを提供する。
type Producer struct {
	conn *Connection
}

func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// Publish は1メッセージを発行する。チャネルはpublishごとに開閉する。
// exchangeは存在しなければ宣言する（topic・durable）。
func (p *Producer) Publish(exchange, routingKey string, body []byte) error {
	channel, err := p.conn.channel()
	if err != nil {
		return err
	}
	defer channel.Close()

	err = channel.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("cannot declare exchange %q: %w", exchange, err)
	}

	err = channel.Publish(
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("cannot publish to %q (%s): %w", exchange, routingKey, err)
	}

	return nil
}
