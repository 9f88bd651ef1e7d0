package notify

import (
	"context"
	"encoding/json"
	"fmt"
)

// RoutingKeyPrefix prefixes the template name in published routing keys.
const RoutingKeyPrefix = "notification."

type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// QueueSender hands messages to a broker for an out-of-process mailer.
type QueueSender struct {
	pub Publisher
}

func NewQueueSender(pub Publisher) *QueueSender {
	return &QueueSender{pub: pub}
}

func (s *QueueSender) Send(ctx context.Context, msg Message) error {
	if err := s.pub.PublishJSON(ctx, RoutingKeyPrefix+msg.Template, msg); err != nil {
		return fmt.Errorf("publishing %s: %w", msg.Template, err)
	}

	return nil
}

// Relay decodes published messages and hands them to sender. It is the
// consuming end of QueueSender.
func Relay(sender Sender) func(ctx context.Context, routingKey string, body []byte) error {
	return func(ctx context.Context, routingKey string, body []byte) error {
		var msg Message
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("decoding %s: %w", routingKey, err)
		}

		if msg.Template == "" || msg.Recipient == "" {
			return fmt.Errorf("decoding %s: incomplete message", routingKey)
		}

		return sender.Send(ctx, msg)
	}
}
