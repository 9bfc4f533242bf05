package api

import "encoding/json"

// chatPeerOffset turns a chat id into a peer id.
const chatPeerOffset = 2000000000

// OutgoingMessage is a message to send. Either PeerID or ChatID must be set.
type OutgoingMessage struct {
	PeerID      int64
	ChatID      int64
	Text        string
	ForwardIDs  []int64
	RandomID    int64
	Attachments []string
}

// Message is an incoming or outgoing message as returned by long-poll history.
type Message struct {
	ID     int64  `json:"id"`
	Date   int64  `json:"date"`
	Out    int    `json:"out"`
	UserID int64  `json:"user_id"`
	FromID int64  `json:"from_id"`
	ChatID int64  `json:"chat_id"`
	PeerID int64  `json:"peer_id"`
	Body   string `json:"body"`
	Text   string `json:"text"`
}

// Content returns the message text regardless of API version
func (m Message) Content() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Body
}

// IsOutgoing reports whether the message was sent by the current user
func (m Message) IsOutgoing() bool {
	return m.Out == 1
}

// Sender returns the author of the message
func (m Message) Sender() int64 {
	if m.FromID != 0 {
		return m.FromID
	}
	return m.UserID
}

// ReplyPeer returns the peer id a reply to this message should go to
func (m Message) ReplyPeer() int64 {
	if m.PeerID != 0 {
		return m.PeerID
	}
	if m.ChatID != 0 {
		return chatPeerOffset + m.ChatID
	}
	return m.UserID
}

// LongPollServer holds the long-poll connection parameters.
type LongPollServer struct {
	Key    string `json:"key"`
	Server string `json:"server"`
	TS     int64  `json:"ts"`
	PTS    int64  `json:"pts"`
}

// LongPollHistory is the result of messages.getLongPollHistory.
type LongPollHistory struct {
	History  []json.RawMessage `json:"history"`
	NewPTS   int64             `json:"new_pts"`
	Messages struct {
		Count int       `json:"count"`
		Items []Message `json:"items"`
	} `json:"messages"`
}

// Status is the current user's status line.
type Status struct {
	Text string `json:"text"`
}

type user struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
