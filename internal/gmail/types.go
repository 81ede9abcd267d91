package gmail

// MessageID is Gmail's permanent message identifier.
type MessageID string

// LabelID is Gmail's opaque label identifier, distinct from the
// user-visible label name.
type LabelID string

// ListPage is one page of a message listing.
type ListPage struct {
	IDs       []MessageID
	NextToken string
}

// Query is a raw Gmail search query, already formed (e.g. `in:inbox`).
type Query struct {
	Raw string
}
