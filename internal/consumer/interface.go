package consumer

import (
	"bytes"
	"context"
	"encoding/json"
)

// FollowerKey decodes the user_id column whether the table still stores it
// as an integer or already as text.
type FollowerKey string

func (k *FollowerKey) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*k = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = FollowerKey(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*k = FollowerKey(n.String())
	return nil
}

// DebeziumFollowRecord represents a row from the event_follows table in a Debezium CDC event.
type DebeziumFollowRecord struct {
	ID        int64       `json:"id"`
	UserID    FollowerKey `json:"user_id"`
	EventID   int64       `json:"event_id"`
	CreatedAt *string     `json:"created_at"`
}

// DebeziumPayload is the payload field of a Debezium CDC message.
type DebeziumPayload struct {
	Before *DebeziumFollowRecord `json:"before"`
	After  *DebeziumFollowRecord `json:"after"`
	Op     string                `json:"op"` // "c"=create, "u"=update, "d"=delete, "r"=snapshot
	TsMs   int64                 `json:"ts_ms"`
}

// DebeziumMessage is the top-level Debezium CDC message envelope.
type DebeziumMessage struct {
	Payload DebeziumPayload `json:"payload"`
}

// Decode parses a raw Kafka message value. Tombstones (empty values) decode
// to a nil message without error.
func Decode(value []byte) (*DebeziumMessage, error) {
	if len(bytes.TrimSpace(value)) == 0 {
		return nil, nil
	}
	var msg DebeziumMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CDCEventHandler processes a decoded Debezium CDC message.
type CDCEventHandler interface {
	HandleCDCEvent(ctx context.Context, event *DebeziumMessage) error
}

// CDCEventConsumer manages the Kafka consumer lifecycle.
type CDCEventConsumer interface {
	Start(ctx context.Context) error
	Close() error
}
