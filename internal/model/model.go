// Package model defines the normalized CRM entities shared by the poller,
// the store, and the HTTP API.
package model

// MessageKind classifies a normalized message payload.
type MessageKind string

const (
	KindText    MessageKind = "text"
	KindSticker MessageKind = "sticker"
	KindGIF     MessageKind = "gif"
)

// Sender identifies the originating Telegram user of a message.
type Sender struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle,omitempty"`
}

// Message is one chat message, normalized from the provider representation.
// Timestamp is milliseconds since epoch. For sticker and gif messages Text
// holds a placeholder and MediaRef carries the provider file reference.
type Message struct {
	ID        string      `json:"id"`
	ChatID    int64       `json:"chat_id"`
	Sender    Sender      `json:"sender"`
	Text      string      `json:"text"`
	Timestamp int64       `json:"timestamp"`
	ReplyToID string      `json:"reply_to_id,omitempty"`
	Kind      MessageKind `json:"kind"`
	MediaRef  string      `json:"media_ref,omitempty"`
}

// ChatGroup is one conversation: group, channel, or direct chat.
// IDs follow the provider convention (negative for groups and channels).
type ChatGroup struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ChatType    string `json:"chat_type"`
	LastMessage string `json:"last_message,omitempty"`
}

// Role is a CRM account role. The hierarchy is SUPERADMIN > ADMIN >
// DISPATCHER; each role may create accounts one level below itself.
type Role string

const (
	RoleSuperAdmin Role = "SUPERADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleDispatcher Role = "DISPATCHER"
)

// Creates reports whether accounts of role r may create accounts of role
// target.
func (r Role) Creates(target Role) bool {
	switch r {
	case RoleSuperAdmin:
		return target == RoleAdmin
	case RoleAdmin:
		return target == RoleDispatcher
	default:
		return false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleDispatcher:
		return true
	}
	return false
}

// CRMUser is an operator account of the CRM itself, not a Telegram user.
// PasswordHash is never serialized to API clients.
type CRMUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
	ParentID *int64 `json:"parent_id,omitempty"`

	PasswordHash string `json:"-"`
}
