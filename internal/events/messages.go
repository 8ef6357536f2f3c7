package events

import (
	"encoding/json"
	"time"
)

// DatasetChange announces that a mutation completed. It carries only the
// operation and entity id; consumers load the current snapshot themselves.
type DatasetChange struct {
	Op        string    `json:"op"`
	EntityID  string    `json:"entityId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDatasetChange(op, entityID string) *DatasetChange {
	return &DatasetChange{
		Op:        op,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

func (m *DatasetChange) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DatasetChangeFromJSON(data []byte) (*DatasetChange, error) {
	var msg DatasetChange
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
