package forge

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSSinkConfig configures the NATS event sink.
type NATSSinkConfig struct {
	// URLs are the NATS server URLs. Required.
	URLs []string

	// Subject is the subject events are published to. Required.
	Subject string

	// CredFile is an optional NATS credentials file.
	CredFile string

	// Timeout bounds the initial connect. Defaults to 5s.
	Timeout time.Duration
}

// Static errors for NATS sink configuration.
var (
	ErrNATSURLsRequired    = errors.New("NATS server URLs are required")
	ErrNATSSubjectRequired = errors.New("NATS subject is required")
)

// event is the wire record published for every log call.
type event struct {
	EventType string                 `json:"event_type"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Time      time.Time              `json:"time"`
}

// NATSEventSink is a Logger that publishes pipeline events to a NATS subject
// as JSON records of the shape {event_type, level, message, metadata}.
// Publish failures are swallowed: the pipeline must never fail because its
// log sink is unreachable.
type NATSEventSink struct {
	conn    *nats.Conn
	subject string
}

// NewNATSEventSink connects to NATS and returns the sink.
func NewNATSEventSink(config *NATSSinkConfig) (*NATSEventSink, error) {
	if config == nil || len(config.URLs) == 0 {
		return nil, ErrNATSURLsRequired
	}

	if config.Subject == "" {
		return nil, ErrNATSSubjectRequired
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	opts := []nats.Option{
		nats.Timeout(timeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	}
	if config.CredFile != "" {
		opts = append(opts, nats.UserCredentials(config.CredFile))
	}

	conn, err := nats.Connect(joinURLs(config.URLs), opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	return &NATSEventSink{conn: conn, subject: config.Subject}, nil
}

// Close drains the connection, flushing pending events.
func (s *NATSEventSink) Close() error {
	err := s.conn.Drain()
	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}

func (s *NATSEventSink) Debug(msg string, fields map[string]interface{}) {
	s.publish("debug", msg, fields)
}

func (s *NATSEventSink) Info(msg string, fields map[string]interface{}) {
	s.publish("info", msg, fields)
}

func (s *NATSEventSink) Warn(msg string, fields map[string]interface{}) {
	s.publish("warn", msg, fields)
}

func (s *NATSEventSink) Error(msg string, fields map[string]interface{}) {
	s.publish("error", msg, fields)
}

func (s *NATSEventSink) publish(level, msg string, fields map[string]interface{}) {
	record := event{
		EventType: eventType(fields),
		Level:     level,
		Message:   msg,
		Metadata:  fields,
		Time:      time.Now().UTC(),
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return
	}

	_ = s.conn.Publish(s.subject, payload)
}

// eventType pulls the "event" field the pipeline attaches to every record.
func eventType(fields map[string]interface{}) string {
	if v, ok := fields["event"].(string); ok {
		return v
	}

	return "log"
}

func joinURLs(urls []string) string {
	joined := urls[0]
	for _, u := range urls[1:] {
		joined += "," + u
	}

	return joined
}
