package message

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	received := time.Date(2024, time.March, 1, 8, 30, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{
			name: "valid",
			rec:  Record{ID: "m1", From: "a@example.com", ReceivedAt: received},
		},
		{
			name: "empty-text-fields-allowed",
			rec:  Record{ID: "m2", ReceivedAt: received},
		},
		{
			name:    "missing-id",
			rec:     Record{ReceivedAt: received},
			wantErr: true,
		},
		{
			name:    "missing-received-time",
			rec:     Record{ID: "m3"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			msg, err := New(tc.rec)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(msg.ID) != tc.rec.ID {
				t.Fatalf("ID = %q, want %q", msg.ID, tc.rec.ID)
			}
			if msg.ReceivedAt.Location() != time.UTC {
				t.Fatalf("received time not normalized to UTC: %v", msg.ReceivedAt)
			}
			if !msg.ReceivedAt.Equal(tc.rec.ReceivedAt) {
				t.Fatalf("received time changed: %v vs %v", msg.ReceivedAt, tc.rec.ReceivedAt)
			}
		})
	}
}

func TestNewCopiesLabels(t *testing.T) {
	labels := []string{"INBOX"}
	msg, err := New(Record{ID: "m1", ReceivedAt: time.Now(), LabelIDs: labels})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labels[0] = "changed"
	if msg.LabelIDs[0] != "INBOX" {
		t.Fatal("message shares the caller's label slice")
	}
}
