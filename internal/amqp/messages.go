package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Reasons a refresh was requested.
const (
	ReasonObligationsUpserted = "obligations.upserted"
	ReasonObligationPaid      = "obligation.paid"
	ReasonScheduled           = "scheduled"
)

// RefreshMessage asks consumers to recompute insights. It carries no
// analytics: the consumer reloads the records and rebuilds the report.
type RefreshMessage struct {
	Reason        string    `json:"reason"`
	ObligationIDs []string  `json:"obligation_ids,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewRefreshMessage(reason string, ids ...string) *RefreshMessage {
	return &RefreshMessage{
		Reason:        reason,
		ObligationIDs: ids,
		Timestamp:     time.Now(),
	}
}

func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Reason == "" {
		return nil, fmt.Errorf("refresh message without reason")
	}
	return &msg, nil
}
