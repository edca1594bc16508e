package amqp

import (
	"encoding/json"
	"time"

	"costboard/internal/core"
)

// TriggerMessage asks a worker to run one ingestion.
type TriggerMessage struct {
	RequestedBy string    `json:"requested_by"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewTriggerMessage(requestedBy string) *TriggerMessage {
	return &TriggerMessage{
		RequestedBy: requestedBy,
		Timestamp:   time.Now().UTC(),
	}
}

func (m *TriggerMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TriggerMessageFromJSON(data []byte) (*TriggerMessage, error) {
	var msg TriggerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// OutcomeMessage announces the result of a finished ingestion run.
type OutcomeMessage struct {
	core.Outcome
	Timestamp time.Time `json:"timestamp"`
}

func NewOutcomeMessage(o core.Outcome) *OutcomeMessage {
	return &OutcomeMessage{Outcome: o, Timestamp: time.Now().UTC()}
}

func (m *OutcomeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func OutcomeMessageFromJSON(data []byte) (*OutcomeMessage, error) {
	var msg OutcomeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
