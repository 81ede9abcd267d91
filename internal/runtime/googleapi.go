// internal/runtime/googleapi.go — adapts *gmail.Service to our small interfaces
package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	gc "github.com/joshsymonds/mailtriage/internal/gmail"
	"github.com/joshsymonds/mailtriage/internal/message"
)

type googleClient struct {
	svc *gmailapi.Service

	mu     sync.Mutex
	labels map[string]gc.LabelID // lowercased name -> id
}

// NewGoogleAPIClient wraps an authenticated Gmail service.
func NewGoogleAPIClient(svc *gmailapi.Service) gc.Client {
	return &googleClient{svc: svc}
}

func (g *googleClient) List(ctx context.Context, q gc.Query, pageToken string, pageSize int) (gc.ListPage, error) {
	call := g.svc.Users.Messages.List("me").Q(q.Raw).MaxResults(int64(pageSize))
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return gc.ListPage{}, fmt.Errorf("list messages: %w", err)
	}
	page := gc.ListPage{NextToken: res.NextPageToken}
	for _, m := range res.Messages {
		page.IDs = append(page.IDs, gc.MessageID(m.Id))
	}
	return page, nil
}

func (g *googleClient) GetMessage(ctx context.Context, id gc.MessageID) (message.Message, error) {
	msg, err := g.svc.Users.Messages.Get("me", string(id)).
		Format("metadata").MetadataHeaders("From", "Subject", "Date").
		Context(ctx).Do()
	if err != nil {
		return message.Message{}, fmt.Errorf("get message %s: %w", id, err)
	}
	rec := message.Record{
		ID:         msg.Id,
		ThreadID:   msg.ThreadId,
		Body:       msg.Snippet,
		LabelIDs:   msg.LabelIds,
		ReceivedAt: time.UnixMilli(msg.InternalDate).UTC(),
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				rec.From = h.Value
			case "Subject":
				rec.Subject = h.Value
			case "Date":
				// The Date header wins over InternalDate when it parses.
				if t, err := mail.ParseDate(h.Value); err == nil {
					rec.ReceivedAt = t.UTC()
				}
			}
		}
	}
	return message.New(rec)
}

func (g *googleClient) SetReadState(ctx context.Context, id gc.MessageID, read bool) error {
	req := &gmailapi.ModifyMessageRequest{}
	if read {
		req.RemoveLabelIds = []string{"UNREAD"}
	} else {
		req.AddLabelIds = []string{"UNREAD"}
	}
	_, err := g.svc.Users.Messages.Modify("me", string(id), req).Context(ctx).Do()
	if err != nil {
		return actuatorErr("set read state", id, err)
	}
	return nil
}

func (g *googleClient) Move(ctx context.Context, id gc.MessageID, mailbox string) error {
	dest, err := g.labelByName(ctx, mailbox)
	if err != nil {
		return actuatorErr("move", id, err)
	}
	if dest == "" {
		return &gc.ActuatorError{
			Kind: gc.ErrNotFound, Op: "move", ID: id,
			Err: fmt.Errorf("mailbox %q does not exist", mailbox),
		}
	}
	req := &gmailapi.ModifyMessageRequest{AddLabelIds: []string{string(dest)}}
	// Taking a message out of the inbox is what makes this a move
	// rather than a plain labeling, unless the inbox is the target.
	if !strings.EqualFold(mailbox, "INBOX") {
		req.RemoveLabelIds = []string{"INBOX"}
	}
	if _, err := g.svc.Users.Messages.Modify("me", string(id), req).Context(ctx).Do(); err != nil {
		return actuatorErr("move", id, err)
	}
	return nil
}

func (g *googleClient) ApplyLabel(ctx context.Context, id gc.MessageID, label string) error {
	lid, err := g.ensureLabel(ctx, label)
	if err != nil {
		return actuatorErr("apply label", id, err)
	}
	req := &gmailapi.ModifyMessageRequest{AddLabelIds: []string{string(lid)}}
	if _, err := g.svc.Users.Messages.Modify("me", string(id), req).Context(ctx).Do(); err != nil {
		return actuatorErr("apply label", id, err)
	}
	return nil
}

// labelByName resolves a label's ID by display name, case-insensitively,
// caching the full listing on first use. Returns "" when no label has
// that name.
func (g *googleClient) labelByName(ctx context.Context, name string) (gc.LabelID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.labels == nil {
		if err := g.refreshLabelsLocked(ctx); err != nil {
			return "", err
		}
	}
	return g.labels[strings.ToLower(name)], nil
}

func (g *googleClient) refreshLabelsLocked(ctx context.Context) error {
	lr, err := g.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("list labels: %w", err)
	}
	g.labels = make(map[string]gc.LabelID, len(lr.Labels))
	for _, l := range lr.Labels {
		g.labels[strings.ToLower(l.Name)] = gc.LabelID(l.Id)
	}
	return nil
}

// ensureLabel resolves a label by name, creating it when absent.
func (g *googleClient) ensureLabel(ctx context.Context, name string) (gc.LabelID, error) {
	if lid, err := g.labelByName(ctx, name); err != nil || lid != "" {
		return lid, err
	}
	created, err := g.svc.Users.Labels.Create("me", &gmailapi.Label{Name: name}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create label %q: %w", name, err)
	}
	g.mu.Lock()
	g.labels[strings.ToLower(name)] = gc.LabelID(created.Id)
	g.mu.Unlock()
	return gc.LabelID(created.Id), nil
}

// actuatorErr classifies a Gmail API failure into the typed taxonomy
// the engine reports to callers.
func actuatorErr(op string, id gc.MessageID, err error) error {
	if ae, ok := err.(*gc.ActuatorError); ok {
		return ae
	}
	kind := gc.ErrOther
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusNotFound:
			kind = gc.ErrNotFound
		case gerr.Code == http.StatusForbidden || gerr.Code == http.StatusUnauthorized:
			kind = gc.ErrPermissionDenied
		case gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500:
			kind = gc.ErrTransient
		}
	}
	return &gc.ActuatorError{Kind: kind, Op: op, ID: id, Err: err}
}
