package amqp

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"pennywise/internal/core"
	"pennywise/internal/notify"
)

// NotificationMessage mirrors a notify.Notification on the wire.
type NotificationMessage struct {
	Level         string    `json:"level"`
	Message       string    `json:"message"`
	TransactionID string    `json:"transactionId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NotificationMessageFrom(n notify.Notification) *NotificationMessage {
	ts := n.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &NotificationMessage{
		Level:         string(n.Level),
		Message:       n.Message,
		TransactionID: n.TransactionID,
		Timestamp:     ts,
	}
}

// ExportRequestMessage asks the worker to export the ledger to Target.
// The worker reads the ledger itself, so the message carries no records.
type ExportRequestMessage struct {
	ID            string    `json:"id"`
	Target        string    `json:"target"`
	ReferenceDate core.Date `json:"referenceDate"`
	RequestedAt   time.Time `json:"requestedAt"`
}

func NewExportRequestMessage(target string, ref core.Date) *ExportRequestMessage {
	return &ExportRequestMessage{
		ID:            uuid.NewString(),
		Target:        target,
		ReferenceDate: ref,
		RequestedAt:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportRequestMessageFromJSON decodes and checks an export request.
func ExportRequestMessageFromJSON(data []byte) (*ExportRequestMessage, error) {
	var msg ExportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Target == "" {
		return nil, errors.New("export request without target")
	}
	return &msg, nil
}
