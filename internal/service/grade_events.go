package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-records-api/internal/dto"
	"github.com/noah-isme/student-records-api/internal/observability"
)

// Grade event types.
const (
	GradeEventCreated = "grade.created"
	GradeEventUpdated = "grade.updated"
	GradeEventDeleted = "grade.deleted"
)

// GradeEvent is the payload broadcast after a committed grade write.
type GradeEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Source     string    `json:"source"`
	Grade      dto.Grade `json:"grade"`
	OccurredAt time.Time `json:"occurred_at"`
}

// GradeEventPublisher fans grade events out to the configured brokers.
type GradeEventPublisher interface {
	Publish(ctx context.Context, eventType string, grade dto.Grade)
}

// subjectPublisher is the part of *nats.Conn the publisher needs.
type subjectPublisher interface {
	Publish(subject string, data []byte) error
}

var _ subjectPublisher = (*nats.Conn)(nil)

type gradeEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         subjectPublisher
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string
	now          func() time.Time
}

// NewGradeEventPublisher constructs a publisher. Nil clients are skipped.
func NewGradeEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) GradeEventPublisher {
	var subjects subjectPublisher
	if natsConn != nil {
		subjects = natsConn
	}
	return newGradeEventPublisher(redisClient, subjects, channelBase, logger)
}

func newGradeEventPublisher(redisClient *redis.Client, subjects subjectPublisher, channelBase string, logger zerolog.Logger) *gradeEventPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":grades"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".grades"
	}

	return &gradeEventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         subjects,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "grade_events").Logger(),
		nodeID:       uuid.NewString(),
		now:          time.Now,
	}
}

func (p *gradeEventPublisher) Publish(ctx context.Context, eventType string, grade dto.Grade) {
	event := GradeEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Source:     p.nodeID,
		Grade:      grade,
		OccurredAt: p.now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to encode grade event")
		return
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			observability.GradeEvents().WithLabelValues("redis", "error").Inc()
			p.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish grade event to redis")
		} else {
			observability.GradeEvents().WithLabelValues("redis", "ok").Inc()
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			observability.GradeEvents().WithLabelValues("nats", "error").Inc()
			p.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish grade event to nats")
		} else {
			observability.GradeEvents().WithLabelValues("nats", "ok").Inc()
		}
	}
}
