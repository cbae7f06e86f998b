package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/MicroblogGo/internal/domain"
	pkgkafka "github.com/utafrali/MicroblogGo/pkg/kafka"
	"github.com/utafrali/MicroblogGo/pkg/logger"
)

// Kafka topic constants for account domain events.
const (
	TopicUserRegistered  = "microblog.user.registered"
	TopicUserVerified    = "microblog.user.verified"
	TopicUserRoleChanged = "microblog.user.role_changed"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from this service.
const SourceMicroblogService = "microblog-service"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// UserVerifiedData is the payload for a user.verified event.
type UserVerifiedData struct {
	ID string `json:"id"`
}

// UserRoleChangedData is the payload for a user.role_changed event.
type UserRoleChangedData struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	ChangedBy string `json:"changed_by"`
}

// Publisher is satisfied by *pkgkafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes account domain events. A Producer without a
// publisher drops every event, which is how Kafka is switched off.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer. kafka may be nil.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
	return p.publish(ctx, TopicUserRegistered, user.ID, data)
}

// PublishUserVerified publishes a user.verified event.
func (p *Producer) PublishUserVerified(ctx context.Context, userID string) error {
	return p.publish(ctx, TopicUserVerified, userID, UserVerifiedData{ID: userID})
}

// PublishUserRoleChanged publishes a user.role_changed event.
func (p *Producer) PublishUserRoleChanged(ctx context.Context, user *domain.User, changedBy string) error {
	data := UserRoleChangedData{
		ID:        user.ID,
		Role:      user.Role,
		ChangedBy: changedBy,
	}
	return p.publish(ctx, TopicUserRoleChanged, user.ID, data)
}

func (p *Producer) publish(ctx context.Context, topic, userID string, data any) error {
	if p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, userID, AggregateTypeUser, SourceMicroblogService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("user_id", userID),
	)

	return nil
}
