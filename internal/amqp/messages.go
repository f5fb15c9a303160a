package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sync actions carried on the queue. The message is intentionally thin:
// the worker re-reads the record from the database, so a stale message
// never overwrites newer data on the mirror.
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// RecordSyncMessage asks the sync worker to reconcile a single
// transaction with the remote mirror.
type RecordSyncMessage struct {
	RecordID  string    `json:"record_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordSyncMessage(recordID, action string) *RecordSyncMessage {
	return &RecordSyncMessage{
		RecordID:  recordID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *RecordSyncMessage) Validate() error {
	if m.RecordID == "" {
		return fmt.Errorf("empty record id")
	}
	if m.Action != ActionUpsert && m.Action != ActionDelete {
		return fmt.Errorf("unknown action %q", m.Action)
	}
	return nil
}

func (m *RecordSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordSyncMessageFromJSON(data []byte) (*RecordSyncMessage, error) {
	var msg RecordSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
