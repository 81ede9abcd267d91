// Package message holds the value types shared between the Gmail
// adapter, the local store, and the rule engine.
package message

import (
	"errors"
	"fmt"
	"time"
)

// ID is the permanent Gmail identifier of a message.
type ID string

// Message is a read-only projection of one email's metadata. The
// engine never mutates it and never holds it past one evaluation pass.
type Message struct {
	ID         ID
	ThreadID   string
	From       string
	Subject    string
	Body       string
	ReceivedAt time.Time
	LabelIDs   []string
}

// Record is the raw shape a message arrives in from a collaborator
// (an API response or a database row) before validation.
type Record struct {
	ID         string
	ThreadID   string
	From       string
	Subject    string
	Body       string
	ReceivedAt time.Time
	LabelIDs   []string
}

// New validates a record and returns the Message it describes. Text
// attributes may be empty; the identifier and received instant may not.
func New(rec Record) (Message, error) {
	if rec.ID == "" {
		return Message{}, errors.New("message record has no id")
	}
	if rec.ReceivedAt.IsZero() {
		return Message{}, fmt.Errorf("message %s has no received time", rec.ID)
	}
	return Message{
		ID:         ID(rec.ID),
		ThreadID:   rec.ThreadID,
		From:       rec.From,
		Subject:    rec.Subject,
		Body:       rec.Body,
		ReceivedAt: rec.ReceivedAt.UTC(),
		LabelIDs:   append([]string(nil), rec.LabelIDs...),
	}, nil
}
