package vkapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Totktonada/vk-messages-backup/internal/record"
	vkerrors "github.com/Totktonada/vk-messages-backup/internal/vkapi/errors"
)

const methodGetHistory = "messages.getHistory"

type itemsPage struct {
	Count int               `json:"count"`
	Items []json.RawMessage `json:"items"`
}

// History fetches the messages of peerID with ids strictly greater than
// after, in ascending id order. Pass record.NoID to fetch the whole
// history.
//
// The API returns newest messages first; paging walks backwards from the
// oldest message of the previous page and stops at the first id <= after.
func (c *Client) History(ctx context.Context, peerID, after int64) ([]*record.Message, error) {
	var newestFirst []*record.Message
	params := map[string]string{
		"peer_id": strconv.FormatInt(peerID, 10),
		"count":   strconv.Itoa(c.historyPageSize),
	}

	for done := false; !done; {
		if n := len(newestFirst); n > 0 {
			params["start_message_id"] = strconv.FormatInt(newestFirst[n-1].ID()-1, 10)
		}
		raw, err := c.call(ctx, methodGetHistory, params)
		if err != nil {
			return nil, fmt.Errorf("history of peer %d: %w", peerID, err)
		}
		var page itemsPage
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, vkerrors.NewDecodeError(methodGetHistory, err)
		}
		if len(page.Items) == 0 {
			break
		}

		added := 0
		for _, item := range page.Items {
			var r record.Raw
			if err := record.Unmarshal(item, &r); err != nil {
				return nil, vkerrors.NewDecodeError(methodGetHistory, err)
			}
			m := record.NewMessage(r)
			if m.ID() == record.NoID {
				return nil, vkerrors.NewDecodeError(methodGetHistory, fmt.Errorf("message without id in history of peer %d", peerID))
			}
			if m.ID() <= after {
				done = true
				break
			}
			if n := len(newestFirst); n > 0 && m.ID() >= newestFirst[n-1].ID() {
				continue
			}
			newestFirst = append(newestFirst, m)
			added++
		}
		if added == 0 {
			break
		}
	}

	out := make([]*record.Message, len(newestFirst))
	for i, m := range newestFirst {
		out[len(newestFirst)-1-i] = m
	}
	log.Info().Int64("peer_id", peerID).Int("messages", len(out)).Msg("fetched new messages")
	return out, nil
}
