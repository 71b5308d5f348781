package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// GetUpdates fetches one batch of raw updates starting at offset. The call
// carries a server-side long-poll hint and a client-side timeout that
// aborts a hung request; a timeout means an empty batch this cycle, not a
// failure. The batch is returned unparsed, in provider order (ascending
// update id), for the caller to feed through ParseUpdate.
//
// Offset discipline is the caller's contract: after consuming a batch,
// advance the cursor with NextOffset before the next call.
func (c *Client) GetUpdates(ctx context.Context, offset int64) []Update {
	ctx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	envelope := c.getJSON(ctx, "getUpdates", fmt.Sprintf("offset=%d&timeout=%d", offset, longPollHint))
	if envelope == nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.log.DebugContext(ctx, "Poll cycle timed out, no updates")
		}
		return nil
	}
	if !envelope.OK {
		return nil
	}

	var updates []Update
	if err := json.Unmarshal(envelope.Result, &updates); err != nil {
		c.log.WarnContext(ctx, "Failed to decode updates batch", "error", err)
		return nil
	}
	return updates
}

// NextOffset computes the cursor for the call after consuming batch:
// max(update_id)+1, or current unchanged for an empty batch. Failing to
// advance re-delivers the batch; advancing past the maximum silently
// drops updates.
func NextOffset(batch []Update, current int64) int64 {
	next := current
	for _, u := range batch {
		if u.UpdateID+1 > next {
			next = u.UpdateID + 1
		}
	}
	return next
}
