package amqp

import (
	"encoding/json"
	"time"
)

// Operations a sync message can carry.
const (
	OpAdd    = "add"
	OpDelete = "delete"
)

// SyncMessage tells the worker to replay one local change against the remote
// API. Adds carry only the local row id; the worker reads the full row from
// sqlite. Deletes carry the remote id because the local row is already gone.
type SyncMessage struct {
	Op        string    `json:"op"`
	Kind      string    `json:"kind"`
	ID        int64     `json:"id,omitempty"`
	RemoteID  string    `json:"remote_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewAddMessage(kind string, id int64) *SyncMessage {
	return &SyncMessage{Op: OpAdd, Kind: kind, ID: id, Timestamp: time.Now()}
}

func NewDeleteMessage(kind, remoteID string) *SyncMessage {
	return &SyncMessage{Op: OpDelete, Kind: kind, RemoteID: remoteID, Timestamp: time.Now()}
}

func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
