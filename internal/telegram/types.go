package telegram

import "encoding/json"

// The types below give every provider payload the service touches an
// explicit schema, so malformed feed entries fail closed at the decode
// boundary instead of propagating dynamic shapes into the rest of the app.

// User is a Telegram user as it appears inside updates and getMe results.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// Chat is the chat envelope carried by every message. Title is set for
// groups and channels, FirstName for private chats.
type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

// Sticker carries the provider file reference of a sticker payload.
type Sticker struct {
	FileID string `json:"file_id"`
}

// Animation carries the provider file reference of an animation (GIF)
// payload.
type Animation struct {
	FileID string `json:"file_id"`
}

// IncomingMessage is the raw message object inside an update. Only the
// fields this service consumes are declared; everything else is discarded
// at decode time.
type IncomingMessage struct {
	MessageID      int64            `json:"message_id"`
	From           *User            `json:"from,omitempty"`
	Chat           *Chat            `json:"chat,omitempty"`
	Date           int64            `json:"date"`
	Text           string           `json:"text,omitempty"`
	Caption        string           `json:"caption,omitempty"`
	Sticker        *Sticker         `json:"sticker,omitempty"`
	Animation      *Animation       `json:"animation,omitempty"`
	ReplyToMessage *IncomingMessage `json:"reply_to_message,omitempty"`
}

// Update is one inbound event from getUpdates. The feed is heterogeneous;
// updates carrying neither a new nor an edited message are not
// representable in the CRM model and are dropped by ParseUpdate.
type Update struct {
	UpdateID      int64            `json:"update_id"`
	Message       *IncomingMessage `json:"message,omitempty"`
	EditedMessage *IncomingMessage `json:"edited_message,omitempty"`
}

// APIResponse is the uniform Bot API envelope. Result stays raw so callers
// can decode it per method, or hand it to the front-end untouched.
type APIResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}
