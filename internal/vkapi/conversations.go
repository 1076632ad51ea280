package vkapi

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Totktonada/vk-messages-backup/internal/record"
	vkerrors "github.com/Totktonada/vk-messages-backup/internal/vkapi/errors"
)

const methodGetConversations = "messages.getConversations"

type conversationsPage struct {
	Count int `json:"count"`
	Items []struct {
		Conversation struct {
			Peer struct {
				ID int64 `json:"id"`
			} `json:"peer"`
			LastMessageID int64 `json:"last_message_id"`
			ChatSettings  struct {
				Title string `json:"title"`
			} `json:"chat_settings"`
		} `json:"conversation"`
	} `json:"items"`
}

// Conversations lists every conversation of the account, most recently
// active first. Pages are chained by the last message id of the previous
// page.
func (c *Client) Conversations(ctx context.Context) ([]record.Conversation, error) {
	var out []record.Conversation
	seen := make(map[int64]struct{})
	params := map[string]string{
		"count": strconv.Itoa(c.conversationsPageSize),
	}
	var start int64 = -1

	for {
		raw, err := c.call(ctx, methodGetConversations, params)
		if err != nil {
			return nil, err
		}
		var page conversationsPage
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, vkerrors.NewDecodeError(methodGetConversations, err)
		}
		if len(page.Items) == 0 {
			break
		}
		for _, item := range page.Items {
			conv := item.Conversation
			if _, dup := seen[conv.Peer.ID]; dup {
				continue
			}
			seen[conv.Peer.ID] = struct{}{}
			out = append(out, record.Conversation{PeerID: conv.Peer.ID, Title: conv.ChatSettings.Title})
		}
		log.Info().Int("conversations", len(out)).Msg("downloaded conversations")

		next := page.Items[len(page.Items)-1].Conversation.LastMessageID - 1
		if next <= 0 || (start > 0 && next >= start) {
			break
		}
		start = next
		params["start_message_id"] = strconv.FormatInt(start, 10)
	}
	return out, nil
}
