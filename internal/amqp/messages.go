package amqp

import (
	"encoding/json"
	"time"
)

// ExportMessage asks the export worker to push one ledger entry to the
// spreadsheet. It carries only identifiers; the worker reads the entry
// from the database so stale payloads can never be written out.
type ExportMessage struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExportMessage(id int64, userID string) *ExportMessage {
	return &ExportMessage{
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (m *ExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportMessageFromJSON(data []byte) (*ExportMessage, error) {
	var msg ExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
