package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// EmployeeCreatedTopic carries account lifecycle events from the account
// service. Leave only consumes it.
const EmployeeCreatedTopic = "hr.employee.lifecycle.v1"

const EmployeeCreatedEventType = "employee_created"

type EmployeeCreatedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	EmployeeID string    `json:"employee_id"`
	FullName   string    `json:"full_name"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ParseEmployeeCreated decodes a message from EmployeeCreatedTopic. ok is
// false when the message is some other lifecycle event; a missing
// event_type is read as employee_created for older producers.
func ParseEmployeeCreated(value []byte) (event EmployeeCreatedEvent, ok bool, err error) {
	if err := json.Unmarshal(value, &event); err != nil {
		return event, false, fmt.Errorf("decode %s: %w", EmployeeCreatedEventType, err)
	}
	if event.EventType != "" && event.EventType != EmployeeCreatedEventType {
		return event, false, nil
	}
	return event, true, nil
}
