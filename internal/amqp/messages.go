package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	EntityAccount     = "account"
	EntityTransaction = "transaction"
	EntityGoal        = "goal"

	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// MutationMessage announces a change in the ledger. It carries only the
// entity and id; consumers refetch whatever they display.
type MutationMessage struct {
	Entity    string    `json:"entity"`
	Op        string    `json:"op"`
	ID        int64     `json:"id"`
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMutationMessage(entity, op string, id int64) *MutationMessage {
	return &MutationMessage{
		Entity:    entity,
		Op:        op,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// RoutingKey is "<entity>.<op>", e.g. "transaction.created".
func (m *MutationMessage) RoutingKey() string {
	return m.Entity + "." + m.Op
}

func (m *MutationMessage) Validate() error {
	switch m.Entity {
	case EntityAccount, EntityTransaction, EntityGoal:
	default:
		return fmt.Errorf("unknown entity %q", m.Entity)
	}
	switch m.Op {
	case OpCreated, OpUpdated, OpDeleted:
	default:
		return fmt.Errorf("unknown op %q", m.Op)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *MutationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MutationMessageFromJSON parses and validates a message body.
func MutationMessageFromJSON(data []byte) (*MutationMessage, error) {
	var msg MutationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
