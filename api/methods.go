package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SendMessage sends a message and returns its id
func (c *Client) SendMessage(ctx context.Context, msg OutgoingMessage) (int64, error) {
	if msg.PeerID == 0 && msg.ChatID == 0 {
		return 0, &Error{Kind: KindUnknown, Message: ErrNoRecipient.Error(), Err: ErrNoRecipient}
	}

	params := url.Values{}
	if msg.PeerID != 0 {
		params.Set("peer_id", strconv.FormatInt(msg.PeerID, 10))
	} else {
		params.Set("chat_id", strconv.FormatInt(msg.ChatID, 10))
	}
	params.Set("message", msg.Text)
	if len(msg.ForwardIDs) > 0 {
		ids := make([]string, len(msg.ForwardIDs))
		for i, id := range msg.ForwardIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		params.Set("forward_messages", strings.Join(ids, ","))
	}
	if msg.RandomID != 0 {
		params.Set("random_id", strconv.FormatInt(msg.RandomID, 10))
	}
	if len(msg.Attachments) > 0 {
		params.Set("attachment", strings.Join(msg.Attachments, ","))
	}

	return invoke[int64](ctx, c, "messages.send", params)
}

// GetSelfID returns the id of the user the token belongs to
func (c *Client) GetSelfID(ctx context.Context) (int64, error) {
	return Do(ctx, c.retrier, func(ctx context.Context) (int64, error) {
		var users []user
		raw, err := c.Call(ctx, "users.get", nil)
		if err != nil {
			return 0, err
		}
		if err := json.Unmarshal(raw, &users); err != nil {
			return 0, fmt.Errorf("failed to decode users.get response: %w", err)
		}
		if len(users) == 0 {
			return 0, fmt.Errorf("users.get returned no users")
		}
		return users[0].ID, nil
	})
}

// GetLongPollServer returns the long-poll parameters including pts
func (c *Client) GetLongPollServer(ctx context.Context) (LongPollServer, error) {
	return invoke[LongPollServer](ctx, c, "messages.getLongPollServer", url.Values{"need_pts": {"1"}})
}

// GetLongPollHistory returns the events and messages since ts/pts
func (c *Client) GetLongPollHistory(ctx context.Context, ts, pts int64) (LongPollHistory, error) {
	return invoke[LongPollHistory](ctx, c, "messages.getLongPollHistory", url.Values{
		"ts":  {strconv.FormatInt(ts, 10)},
		"pts": {strconv.FormatInt(pts, 10)},
	})
}

// GetStatus returns the current user's status
func (c *Client) GetStatus(ctx context.Context) (Status, error) {
	return invoke[Status](ctx, c, "status.get", nil)
}

// SetStatus replaces the current user's status
func (c *Client) SetStatus(ctx context.Context, text string) error {
	_, err := invoke[int](ctx, c, "status.set", url.Values{"text": {text}})
	return err
}

// TrackVisitor records the app visit in VK statistics
func (c *Client) TrackVisitor(ctx context.Context) error {
	_, err := invoke[int](ctx, c, "stats.trackVisitor", nil)
	return err
}
