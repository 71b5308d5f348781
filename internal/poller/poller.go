// Package poller drives the inbound pipeline: fetch one batch of raw
// updates, normalize each through the parser, persist and fan out the
// results, and advance the offset cursor.
package poller

import (
	"context"
	"fmt"
	"log/slog"

	"tgcrm/internal/database"
	"tgcrm/internal/model"
	"tgcrm/internal/observability"
	"tgcrm/internal/telegram"
)

// UpdateSource fetches one raw batch per call. *telegram.Client satisfies
// it.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64) []telegram.Update
}

// Broadcaster fans a normalized message out to connected front-end
// clients. *ws.Hub satisfies it.
type Broadcaster interface {
	BroadcastMessage(msg model.Message, chat model.ChatGroup)
}

// Poller owns the cursor threading for the poll loop. It is scheduled in
// singleton mode, so no two cycles are ever in flight with a stale cursor.
type Poller struct {
	log    *slog.Logger
	source UpdateSource
	store  database.Store
	hub    Broadcaster
}

// New creates a poller over the given update source, store, and hub.
func New(log *slog.Logger, source UpdateSource, store database.Store, hub Broadcaster) *Poller {
	return &Poller{
		log:    log.With("component", "poller"),
		source: source,
		store:  store,
		hub:    hub,
	}
}

// Run executes one poll cycle. All provider-side failures degrade to "no
// updates this cycle" inside the update source. A store failure aborts
// the cycle at the failing update: the cursor only covers the prefix
// that was persisted, so the next cycle re-delivers from the failure
// point instead of losing the message. Unrepresentable updates are
// dropped and skipped over.
func (p *Poller) Run(ctx context.Context) error {
	offset, err := p.store.GetOffset(ctx)
	if err != nil {
		observability.IncPollCycle("error")
		return fmt.Errorf("failed to load poll cursor: %w", err)
	}

	batch := p.source.GetUpdates(ctx, offset)
	if len(batch) == 0 {
		observability.IncPollCycle("empty")
		return nil
	}
	observability.AddUpdatesReceived(len(batch))

	var storeErr error
	consumed := 0
	for _, raw := range batch {
		parsed := telegram.ParseUpdate(raw)
		if parsed == nil {
			observability.IncUpdateDropped()
			p.log.DebugContext(ctx, "Dropped unrepresentable update", "update_id", raw.UpdateID)
			consumed++
			continue
		}

		if err := p.store.UpsertChat(ctx, parsed.Chat); err != nil {
			storeErr = fmt.Errorf("failed to upsert chat %d: %w", parsed.Chat.ID, err)
			break
		}
		if err := p.store.SaveMessage(ctx, parsed.Message); err != nil {
			storeErr = fmt.Errorf("failed to save message %s in chat %d: %w",
				parsed.Message.ID, parsed.Message.ChatID, err)
			break
		}

		observability.IncMessageParsed(string(parsed.Message.Kind))
		p.hub.BroadcastMessage(parsed.Message, parsed.Chat)
		consumed++
	}

	// The batch arrives in ascending update-id order, so the consumed
	// prefix determines the cursor. SaveMessage upserts on (chat_id,
	// message_id), which keeps re-delivery of that prefix idempotent.
	next := telegram.NextOffset(batch[:consumed], offset)
	if next != offset {
		if err := p.store.SetOffset(ctx, next); err != nil {
			observability.IncPollCycle("error")
			return fmt.Errorf("failed to persist poll cursor: %w", err)
		}
	}

	if storeErr != nil {
		observability.IncPollCycle("error")
		p.log.ErrorContext(ctx, "Poll cycle aborted on store failure",
			"error", storeErr, "next_offset", next)
		return storeErr
	}

	observability.IncPollCycle("updates")
	p.log.DebugContext(ctx, "Poll cycle complete", "updates", len(batch), "next_offset", next)
	return nil
}
