package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConfirmationWorker consumes OrderSubmitted events and advances stored
// orders from pending to confirmed once the tenant side has acknowledged
// them. Processing is idempotent via the processed_events table.
type ConfirmationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	publisher    *broker.EventPublisher
	logger       *zap.Logger
}

// NewConfirmationWorker creates a new confirmation worker
func NewConfirmationWorker(
	consumer *broker.Consumer,
	store *store.Store,
	publisher *broker.EventPublisher,
) *ConfirmationWorker {
	w := &ConfirmationWorker{
		consumer:  consumer,
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderSubmitted(w.handleOrderSubmitted)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *ConfirmationWorker) Start(ctx context.Context) error {
	log.Println("Starting confirmation worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ConfirmationWorker) Stop() error {
	log.Println("Stopping confirmation worker...")
	return w.consumer.Close()
}

func (w *ConfirmationWorker) handleOrderSubmitted(ctx context.Context, event *models.OrderSubmittedEvent) error {
	ctx, span := util.StartSpan(ctx, "ConfirmationWorker.handleOrderSubmitted")
	defer span.End()

	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if err := w.store.UpdateOrderStatus(ctx, event.OrderID, models.OrderStatusConfirmed); err != nil {
		return fmt.Errorf("failed to confirm order: %w", err)
	}

	util.OrdersConfirmedTotal.Inc()
	w.logger.Info("Order confirmed",
		zap.Int64("order_id", event.OrderID),
		zap.Int64("business_id", event.BusinessID))

	confirmed := &models.OrderConfirmedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderConfirmed,
			Timestamp: time.Now(),
		},
		OrderID:    event.OrderID,
		BusinessID: event.BusinessID,
	}
	if err := w.publisher.PublishOrderConfirmed(ctx, confirmed); err != nil {
		w.logger.Error("Failed to publish OrderConfirmed event", zap.Error(err))
	}

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	return nil
}
