package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Emissary/internal/domain"
)

// NotificationKind — тип пользовательского уведомления.
type NotificationKind string

// Типы уведомлений.
const (
	NotificationPublicationExpired NotificationKind = "publication.expired"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeNotification  MessageType = "notification"
	MessageTypePassCompleted MessageType = "pass.completed"
)

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NotificationPayload — payload пользовательского уведомления.
type NotificationPayload struct {
	UserID uuid.UUID        `json:"user_id"`
	Kind   NotificationKind `json:"kind"`
	Body   any              `json:"body"`
}

// Notifier публикует уведомления и события планировщика в RabbitMQ.
//
// Вся отправка best-effort: вызывающая сторона логирует ошибку
// и продолжает работу, доставка уведомлений не влияет на переходы
// статусов в БД.
type Notifier struct {
	conn   *Connection
	logger *slog.Logger
}

// NewNotifier создаёт новый Notifier.
func NewNotifier(conn *Connection, logger *slog.Logger) *Notifier {
	return &Notifier{
		conn:   conn,
		logger: logger,
	}
}

// publish отправляет сообщение в указанный exchange с routing key.
func (n *Notifier) publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return n.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		n.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// Notify отправляет пользовательское уведомление.
// Потребитель: notification-сервис (формирование текста — его зона).
func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, kind NotificationKind, body any) error {
	msg := &Message{
		ID:   uuid.New().String(),
		Type: MessageTypeNotification,
		Payload: NotificationPayload{
			UserID: userID,
			Kind:   kind,
			Body:   body,
		},
		Timestamp: time.Now(),
	}

	return n.publish(ctx, ExchangeNotifications, RoutingKeyUser, msg)
}

// PublicationExpired — хук sweeper-а: уведомляет владельца
// о просроченной публикации. Реализует scheduler.ExpiryHook.
func (n *Notifier) PublicationExpired(ctx context.Context, ev domain.PublicationExpired) error {
	return n.Notify(ctx, ev.OwnerID, NotificationPublicationExpired, ev)
}

// PublishPassCompleted публикует сводку завершённого прохода.
// Потребители: дашборды и аудит.
func (n *Notifier) PublishPassCompleted(ctx context.Context, result any) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypePassCompleted,
		Payload:   result,
		Timestamp: time.Now(),
	}

	return n.publish(ctx, ExchangeEvents, RoutingKeyPasses, msg)
}
