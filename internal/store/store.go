// Package store mirrors message metadata into a local SQLite database
// so the rule engine can evaluate without touching the network.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/joshsymonds/mailtriage/internal/message"
)

var createTableSQL = []string{
	// The messages table holds one row per mirrored message.
	//
	// Field: message_id
	//
	//   Gmail API: Users.messages resource "id" field. Permanent
	//   and unique per mailbox.
	//
	// Field: received_at
	//
	//   RFC 3339 UTC instant parsed from the Date header, falling
	//   back to the API's internalDate.
	//
	// Field: label_ids
	//
	//   JSON array of Gmail label IDs as of the last fetch. Stale
	//   by design; the actuator works against the live mailbox.
	`
CREATE TABLE IF NOT EXISTS messages (
message_id TEXT NOT NULL PRIMARY KEY,
thread_id TEXT NOT NULL,
from_address TEXT NOT NULL,
subject TEXT NOT NULL,
received_at TEXT NOT NULL,
body TEXT NOT NULL,
label_ids TEXT NOT NULL
);`,
}

// DB wraps the SQLite handle behind the narrow surface the fetch and
// process services need.
type DB struct {
	db *sql.DB
}

func dsnFromPath(path string, addValues url.Values) (string, error) {
	var u *url.URL
	if !strings.HasPrefix(path, "file:") {
		u = &url.URL{Scheme: "file", Path: path}
	} else {
		var err error
		u, err = url.Parse(path)
		if err != nil {
			return "", err
		}
	}
	values := u.Query()
	for k, v := range addValues {
		for _, item := range v {
			values.Add(k, item)
		}
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(ctx context.Context, path string) (*DB, error) {
	// The _busy_timeout SQLite extension controls how long SQLite
	// polls before giving up; the 5 second default is too short in
	// practice.
	busyTimeout := int(5*time.Minute) / int(time.Millisecond)

	dsn, err := dsnFromPath(path, url.Values{
		"_busy_timeout": {fmt.Sprintf("%d", busyTimeout)}})
	if err != nil {
		return nil, errors.Wrapf(err, "Open(%q) failed: could not form a DB DSN", path)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "Open(%q) failed: could not open database", path)
	}
	for _, stmt := range createTableSQL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "Open(%q) failed: could not initialize schema", path)
		}
	}
	return &DB{db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// UpsertMessages writes a batch of mirrored messages in one
// transaction and returns the number written. Re-fetching a message
// replaces its row.
func (d *DB) UpsertMessages(ctx context.Context, msgs []message.Message) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin transaction failed")
	}
	defer tx.Rollback()

	upsert, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO messages
(message_id, thread_id, from_address, subject, received_at, body, label_ids)
VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return 0, errors.Wrap(err, "db prepare statement failed for messages upsert")
	}
	defer upsert.Close()

	for _, msg := range msgs {
		labels, err := json.Marshal(msg.LabelIDs)
		if err != nil {
			return 0, errors.Wrapf(err, "encode labels for %s", msg.ID)
		}
		_, err = upsert.ExecContext(ctx,
			string(msg.ID), msg.ThreadID, msg.From, msg.Subject,
			msg.ReceivedAt.UTC().Format(time.RFC3339Nano), msg.Body, string(labels))
		if err != nil {
			return 0, errors.Wrapf(err, "db upsert failed for %s", msg.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit failed")
	}
	return len(msgs), nil
}

// ForEach invokes handler for every stored message. A handler error
// stops the scan and is returned unchanged.
func (d *DB) ForEach(ctx context.Context, handler func(message.Message) error) error {
	rows, err := d.db.QueryContext(ctx, `
SELECT message_id, thread_id, from_address, subject, received_at, body, label_ids
FROM messages`)
	if err != nil {
		return errors.Wrap(err, "db query failed in ForEach")
	}
	defer rows.Close()

	for rows.Next() {
		var rec message.Record
		var receivedAt, labels string
		if err := rows.Scan(&rec.ID, &rec.ThreadID, &rec.From, &rec.Subject,
			&receivedAt, &rec.Body, &labels); err != nil {
			return errors.Wrap(err, "db scan failed in ForEach")
		}
		rec.ReceivedAt, err = time.Parse(time.RFC3339Nano, receivedAt)
		if err != nil {
			return errors.Wrapf(err, "bad received_at for message %s", rec.ID)
		}
		if err := json.Unmarshal([]byte(labels), &rec.LabelIDs); err != nil {
			return errors.Wrapf(err, "bad label_ids for message %s", rec.ID)
		}
		msg, err := message.New(rec)
		if err != nil {
			return errors.Wrapf(err, "bad row for message %s", rec.ID)
		}
		if err := handler(msg); err != nil {
			return err
		}
	}
	return errors.Wrap(rows.Err(), "row iteration failed in ForEach")
}

// Count returns the number of mirrored messages.
func (d *DB) Count(ctx context.Context) (int, error) {
	row := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, errors.Wrap(err, "db count failed")
	}
	return n, nil
}
