package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"smartcare/pkg"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Notifier wraps PostgreSQL LISTEN/NOTIFY. Stored sensor readings are
// announced on Channel so that every server instance can push them to its
// live-feed subscribers.
type Notifier struct {
	DB      *sql.DB
	DSN     string
	Channel string
	Logger  *zap.Logger
}

// NewNotifier constructs a new Notifier. dsn is used for the dedicated
// listening connection, which cannot come from the pool.
func NewNotifier(db *sql.DB, dsn, channel string, logger *zap.Logger) *Notifier {
	return &Notifier{DB: db, DSN: dsn, Channel: channel, Logger: logger}
}

// Notify publishes ev on the channel.
func (n *Notifier) Notify(ctx context.Context, ev pkg.ReadingEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := n.DB.ExecContext(ctx, `SELECT pg_notify($1, $2)`, n.Channel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", n.Channel, err)
	}
	return nil
}

// Listen delivers every event received on the channel until ctx is
// cancelled, at which point the returned channel is closed. The listener
// reconnects on its own; malformed payloads are logged and skipped.
func (n *Notifier) Listen(ctx context.Context) (<-chan pkg.ReadingEvent, error) {
	listener := pq.NewListener(n.DSN, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			n.Logger.Warn("notify listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	if err := listener.Listen(n.Channel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s: %w", n.Channel, err)
	}

	ch := make(chan pkg.ReadingEvent)
	go func() {
		defer func() {
			_ = listener.Close()
			close(ch)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case note := <-listener.Notify:
				// nil after a reconnect; notifications may have been lost.
				if note == nil {
					continue
				}
				var ev pkg.ReadingEvent
				if err := json.Unmarshal([]byte(note.Extra), &ev); err != nil {
					n.Logger.Warn("malformed notification", zap.String("channel", note.Channel), zap.Error(err))
					continue
				}
				select {
				case ch <- ev:
				case <-ctx.Done():
					return
				}
			case <-time.After(90 * time.Second):
				go func() { _ = listener.Ping() }()
			}
		}
	}()
	return ch, nil
}
