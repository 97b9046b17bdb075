package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crowrepuestos/storefront/internal/order/domain"
	pkgkafka "github.com/crowrepuestos/storefront/pkg/kafka"
)

const (
	TopicOrderCreated  = "crowrepuestos.order.created"
	TopicOrderCanceled = "crowrepuestos.order.canceled"

	AggregateTypeOrder = "order"
	SourceStorefront   = "storefront"
)

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	Items       []OrderItemData `json:"items"`
	TotalAmount int64           `json:"total_amount"`
	Currency    string          `json:"currency"`
}

// OrderItemData is one order line within an event payload.
type OrderItemData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// OrderCanceledData is the payload for an order.canceled event.
type OrderCanceledData struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Reason  string `json:"reason,omitempty"`
}

// Producer publishes order lifecycle events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, orderID string, data any) error {
	ev, err := pkgkafka.NewEvent(topic, orderID, AggregateTypeOrder, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if err := p.kafka.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("topic", topic),
		slog.String("order_id", orderID),
	)
	return nil
}

// PublishOrderCreated announces a placed order.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	items := make([]OrderItemData, len(order.Items))
	for i, line := range order.Items {
		items[i] = OrderItemData{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
		}
	}

	return p.publish(ctx, TopicOrderCreated, order.ID, OrderCreatedData{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Items:       items,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
	})
}

// PublishOrderCanceled announces a canceled order.
func (p *Producer) PublishOrderCanceled(ctx context.Context, order *domain.Order, reason string) error {
	return p.publish(ctx, TopicOrderCanceled, order.ID, OrderCanceledData{
		OrderID: order.ID,
		UserID:  order.UserID,
		Reason:  reason,
	})
}
