package vkapi

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Totktonada/vk-messages-backup/internal/record"
	vkerrors "github.com/Totktonada/vk-messages-backup/internal/vkapi/errors"
)

const methodUsersGet = "users.get"

// Users resolves ids to user profiles, asking for at most usersChunkSize
// ids per request.
func (c *Client) Users(ctx context.Context, ids []int64) ([]*record.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	log.Info().Int("users", len(ids)).Msg("downloading chat participants")

	chunks := (len(ids) + c.usersChunkSize - 1) / c.usersChunkSize
	var out []*record.User
	for i := 0; i < chunks; i++ {
		lo := i * c.usersChunkSize
		hi := min(lo+c.usersChunkSize, len(ids))
		log.Debug().Int("chunk", i+1).Int("chunks", chunks).Msg("downloading users chunk")

		strIDs := make([]string, 0, hi-lo)
		for _, id := range ids[lo:hi] {
			strIDs = append(strIDs, strconv.FormatInt(id, 10))
		}
		raw, err := c.call(ctx, methodUsersGet, map[string]string{
			"user_ids":  strings.Join(strIDs, ","),
			"name_case": "nom",
		})
		if err != nil {
			return nil, err
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, vkerrors.NewDecodeError(methodUsersGet, err)
		}
		for _, item := range items {
			var r record.Raw
			if err := record.Unmarshal(item, &r); err != nil {
				return nil, vkerrors.NewDecodeError(methodUsersGet, err)
			}
			out = append(out, record.NewUser(r))
		}
	}
	return out, nil
}
