package publisher

import (
	"encoding/json"
	"log/slog"

	"salesapi/internal/domain/event"
)

// Producer はトランスポートへの書き込み1回分の約束。
type Producer interface {
	Publish(exchange, routingKey string, body []byte) error
}

// EventPublisher はドメインイベントをJSONにしてブローカーへ流す。
// 発行失敗は呼び出し元の業務処理を巻き戻せない段階で起きるので、
// ログに残して飲み込む（at-most-once）。
type EventPublisher struct {
	producer Producer
	logger   *slog.Logger
}

func New(producer Producer, logger *slog.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, logger: logger}
}

func (p *EventPublisher) PublishCartCreated(ev event.CartCreated) {
	p.publish(event.KeyCartCreated, ev)
}

func (p *EventPublisher) PublishCartModified(ev event.CartModified) {
	p.publish(event.KeyCartModified, ev)
}

func (p *EventPublisher) PublishCartCancelled(ev event.CartCancelled) {
	p.publish(event.KeyCartCancelled, ev)
}

func (p *EventPublisher) PublishLineCancelled(ev event.LineCancelled) {
	p.publish(event.KeyLineCancelled, ev)
}

func (p *EventPublisher) publish(routingKey string, ev any) {
	body, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to marshal event",
			"routing_key", routingKey, "error", err)
		return
	}

	if err := p.producer.Publish(event.Exchange, routingKey, body); err != nil {
		p.logger.Error("failed to publish event",
			"exchange", event.Exchange, "routing_key", routingKey, "error", err)
		return
	}

	p.logger.Info("event published",
		"exchange", event.Exchange, "routing_key", routingKey)
}
