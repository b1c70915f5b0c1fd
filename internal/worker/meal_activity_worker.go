package worker

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"mealtracker/internal/model"
	"mealtracker/internal/platform/rabbitmq"
)

type ActivityWriter interface {
	Create(ctx context.Context, activity *model.MealActivity) error
}

// MealActivityWorker consumes meal events and stores them as activity rows.
type MealActivityWorker struct {
	conn      *amqp.Connection
	repo      ActivityWriter
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMealActivityWorker(conn *amqp.Connection, repo ActivityWriter, queueName string, logger *zap.Logger) *MealActivityWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MealActivityWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		logger:    logger.With(zap.String("worker", "meal_activity"), zap.String("queue", queueName)),
	}
}

func (w *MealActivityWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					w.logger.Error("handle meal event failed", zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	w.logger.Info("meal activity worker started")
	return nil
}

func (w *MealActivityWorker) handle(ctx context.Context, body []byte) error {
	event, err := rabbitmq.DecodeMealEvent(body)
	if err != nil {
		return err
	}
	activity := &model.MealActivity{
		UserID:     event.UserID,
		MealID:     event.MealID,
		Action:     event.Action,
		OccurredAt: event.OccurredAt,
	}
	if err := w.repo.Create(ctx, activity); err != nil {
		return fmt.Errorf("persist meal activity failed: %w", err)
	}
	return nil
}

func (w *MealActivityWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
