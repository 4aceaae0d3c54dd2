package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job types carried on the sync queue.
const (
	TransactionSync = "transaction.sync"
	ReportExport    = "report.export"
)

// SyncMessage is a lightweight job. It carries only the record id; the
// worker loads the full record from the database.
type SyncMessage struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	MessageID string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
}

func newSyncMessage(kind string, id int64) *SyncMessage {
	return &SyncMessage{
		Type:      kind,
		ID:        id,
		MessageID: uuid.NewString(),
		Timestamp: time.Now(),
	}
}

// NewTransactionSyncMessage asks the worker to append a transaction to the ledger sheet.
func NewTransactionSyncMessage(id int64) *SyncMessage {
	return newSyncMessage(TransactionSync, id)
}

// NewReportExportMessage asks the worker to append a report to the reports sheet.
func NewReportExportMessage(id int64) *SyncMessage {
	return newSyncMessage(ReportExport, id)
}

func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncMessageFromJSON decodes a message and rejects unknown job types.
func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case TransactionSync, ReportExport:
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("invalid message id %d", msg.ID)
	}
	return &msg, nil
}
