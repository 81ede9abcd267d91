package gmail

import (
	"context"

	"github.com/joshsymonds/mailtriage/internal/message"
)

// Source is the narrow read surface for mirroring message metadata.
type Source interface {
	List(ctx context.Context, q Query, pageToken string, pageSize int) (ListPage, error)
	GetMessage(ctx context.Context, id MessageID) (message.Message, error)
}

// Actuator is the narrow mutation surface the rule engine drives. Each
// call applies one mailbox mutation to one message and returns nil or
// an *ActuatorError.
type Actuator interface {
	SetReadState(ctx context.Context, id MessageID, read bool) error
	Move(ctx context.Context, id MessageID, mailbox string) error
	ApplyLabel(ctx context.Context, id MessageID, label string) error
}

// Client is the full Gmail surface used by the cmds; the library
// packages depend only on the Source or Actuator half they need.
type Client interface {
	Source
	Actuator
}
