package tracking

import (
	"context"
	"net/http"
	"time"

	"github.com/motoshop/catalog/pkg/common"
	"github.com/motoshop/catalog/pkg/messaging"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	EventSession uint16 = 0
	EventCatalog uint16 = 1
	EventAction  uint16 = 6
)

const publishTimeout = 5 * time.Second

type BaseEvent struct {
	SessionId string    `json:"session_id"`
	Context   string    `json:"context,omitempty"`
	Event     uint16    `json:"event"`
	At        time.Time `json:"ts"`
}

type SessionEvent struct {
	*BaseEvent
	UserAgent    string `json:"user_agent,omitempty"`
	Ip           string `json:"ip,omitempty"`
	Language     string `json:"language,omitempty"`
	PragmaHeader string `json:"pragma,omitempty"`
}

type CatalogEvent struct {
	*BaseEvent
	CatalogView
	Referer string `json:"referer,omitempty"`
}

type ActionEvent struct {
	*BaseEvent
	Action
}

// RabbitTracking batches events and publishes them on the tracking topic.
type RabbitTracking struct {
	prefix  string
	channel messaging.Publisher
	closer  func() error
	queue   *common.QueueHandler[any]
	logger  *zap.Logger
}

func NewRabbitTracking(conn *amqp.Connection, prefix string, logger *zap.Logger) (*RabbitTracking, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := messaging.DefineTopic(ch, prefix, messaging.TrackingEvents); err != nil {
		ch.Close()
		return nil, err
	}
	t := newTracking(ch, prefix, logger, time.Second)
	t.closer = ch.Close
	return t, nil
}

func newTracking(ch messaging.Publisher, prefix string, logger *zap.Logger, interval time.Duration) *RabbitTracking {
	t := &RabbitTracking{
		prefix:  prefix,
		channel: ch,
		logger:  common.OrNop(logger),
	}
	t.queue = common.NewQueueHandler(t.publish, 50, interval)
	return t
}

func (t *RabbitTracking) publish(events []any) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	for _, event := range events {
		if err := messaging.Publish(ctx, t.channel, t.prefix, messaging.TrackingEvents, event); err != nil {
			t.logger.Warn("failed to publish tracking event", zap.Error(err))
		}
	}
}

// Close publishes what is still queued and closes the channel.
func (t *RabbitTracking) Close() error {
	t.queue.Close()
	if t.closer != nil {
		return t.closer()
	}
	return nil
}

func base(sessionId string, event uint16) *BaseEvent {
	return &BaseEvent{SessionId: sessionId, Context: "b2c", Event: event, At: time.Now().UTC()}
}

func clientIp(r *http.Request) string {
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func (t *RabbitTracking) TrackSession(sessionId string, r *http.Request) {
	t.queue.Add(&SessionEvent{
		BaseEvent:    base(sessionId, EventSession),
		Language:     r.Header.Get("Accept-Language"),
		UserAgent:    r.UserAgent(),
		Ip:           clientIp(r),
		PragmaHeader: r.Header.Get("Pragma"),
	})
}

func (t *RabbitTracking) TrackCatalogView(sessionId string, view CatalogView, r *http.Request) {
	event := &CatalogEvent{BaseEvent: base(sessionId, EventCatalog), CatalogView: view}
	if r != nil {
		event.Referer = r.Header.Get("Referer")
	}
	t.queue.Add(event)
}

func (t *RabbitTracking) TrackAction(sessionId string, action Action) {
	t.queue.Add(&ActionEvent{BaseEvent: base(sessionId, EventAction), Action: action})
}
