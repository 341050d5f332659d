package broker

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"
)

// Connection はプロセスで1つだけ持つAMQP接続。
// 最初のpublishで遅延接続し、切れていたら次の利用時に張り直す。
// 生の接続は外に出さず、チャネルを開く能力だけをProducerに貸す。
type Connection struct {
	url    string
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

func NewConnection(url string, logger *slog.Logger) *Connection {
	return &Connection{url: url, logger: logger}
}

// channel は必要なら接続してからチャネルを開く。
func (c *Connection) channel() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.conn.IsClosed() {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			return nil, fmt.Errorf("cannot connect to AMQP: %w", err)
		}
		c.conn = conn
		c.logger.Info("connected to AMQP")
	}

	return c.conn.Channel()
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	if err := c.conn.Close(); err != nil {
		return err
	}
	c.logger.Info("AMQP connection closed")
	return nil
}
