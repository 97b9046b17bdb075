package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crowrepuestos/storefront/internal/cart/domain"
	pkgkafka "github.com/crowrepuestos/storefront/pkg/kafka"
)

const (
	TopicCartUpdated = "crowrepuestos.cart.updated"
	TopicCartCleared = "crowrepuestos.cart.cleared"

	AggregateTypeCart = "cart"
	SourceStorefront  = "storefront"
)

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	UserID      string         `json:"user_id"`
	Items       []CartItemData `json:"items"`
	TotalItems  int            `json:"total_items"`
	TotalAmount int64          `json:"total_amount"`
}

// CartItemData is one cart line within an event payload.
type CartItemData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	UserID string `json:"user_id"`
}

// Producer publishes cart events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, userID string, data any) error {
	ev, err := pkgkafka.NewEvent(topic, userID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if err := p.kafka.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("topic", topic),
		slog.String("user_id", userID),
	)
	return nil
}

// PublishCartUpdated announces the new cart contents after a mutation.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	items := make([]CartItemData, len(cart.Items))
	for i, line := range cart.Items {
		items[i] = CartItemData{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
		}
	}

	return p.publish(ctx, TopicCartUpdated, cart.UserID, CartUpdatedData{
		UserID:      cart.UserID,
		Items:       items,
		TotalItems:  cart.ItemCount(),
		TotalAmount: cart.TotalAmount(),
	})
}

// PublishCartCleared announces that the user emptied the cart.
func (p *Producer) PublishCartCleared(ctx context.Context, userID string) error {
	return p.publish(ctx, TopicCartCleared, userID, CartClearedData{UserID: userID})
}
