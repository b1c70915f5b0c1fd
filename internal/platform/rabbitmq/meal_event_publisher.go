package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"mealtracker/internal/model"
)

type MealEventPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewMealEventPublisher(conn *amqp.Connection, queueName string) *MealEventPublisher {
	return &MealEventPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *MealEventPublisher) Publish(ctx context.Context, event model.MealEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := EncodeMealEvent(event)
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			Type:         event.Action,
		},
	); err != nil {
		return fmt.Errorf("publish meal event failed: %w", err)
	}
	return nil
}

func EncodeMealEvent(event model.MealEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal meal event failed: %w", err)
	}
	return payload, nil
}

// DecodeMealEvent rejects payloads missing the identifiers or carrying an
// unknown action.
func DecodeMealEvent(body []byte) (model.MealEvent, error) {
	var event model.MealEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return model.MealEvent{}, fmt.Errorf("unmarshal meal event failed: %w", err)
	}
	if event.UserID == "" || event.MealID == "" {
		return model.MealEvent{}, fmt.Errorf("meal event missing identifiers")
	}
	switch event.Action {
	case model.MealActionCreated, model.MealActionUpdated, model.MealActionDeleted:
	default:
		return model.MealEvent{}, fmt.Errorf("unknown meal event action %q", event.Action)
	}
	return event, nil
}
