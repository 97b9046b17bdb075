package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crowrepuestos/storefront/internal/user/domain"
	pkgkafka "github.com/crowrepuestos/storefront/pkg/kafka"
)

const (
	TopicUserRegistered = "crowrepuestos.user.registered"
	TopicUserUpdated    = "crowrepuestos.user.updated"

	AggregateTypeUser = "user"
	SourceStorefront  = "storefront"
)

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserUpdatedData is the payload for a user.updated event.
type UserUpdatedData struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

// Producer publishes user lifecycle events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, userID string, data any) error {
	ev, err := pkgkafka.NewEvent(topic, userID, AggregateTypeUser, SourceStorefront, data)
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

// PublishUserRegistered announces a new account.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, user.ID, UserRegisteredData{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

// PublishUserUpdated announces a profile change.
func (p *Producer) PublishUserUpdated(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserUpdated, user.ID, UserUpdatedData{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
	})
}
