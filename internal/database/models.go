package database

import (
	"database/sql"
	"time"

	"tgcrm/internal/model"
)

// messageRow is the messages table representation of a normalized message.
// TimestampMS keeps the provider-derived millisecond timestamp exact.
type messageRow struct {
	ID           int64     `db:"id"`
	ChatID       int64     `db:"chat_id"`
	MessageID    string    `db:"message_id"`
	SenderID     int64     `db:"sender_id"`
	SenderName   string    `db:"sender_name"`
	SenderHandle string    `db:"sender_handle"`
	Text         string    `db:"text"`
	Kind         string    `db:"kind"`
	MediaRef     string    `db:"media_ref"`
	ReplyToID    string    `db:"reply_to_id"`
	TimestampMS  int64     `db:"timestamp_ms"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r messageRow) toModel() model.Message {
	return model.Message{
		ID:     r.MessageID,
		ChatID: r.ChatID,
		Sender: model.Sender{
			ID:          r.SenderID,
			DisplayName: r.SenderName,
			Handle:      r.SenderHandle,
		},
		Text:      r.Text,
		Timestamp: r.TimestampMS,
		ReplyToID: r.ReplyToID,
		Kind:      model.MessageKind(r.Kind),
		MediaRef:  r.MediaRef,
	}
}

// chatRow is the chats table representation of a ChatGroup.
type chatRow struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	ChatType    string    `db:"chat_type"`
	LastMessage string    `db:"last_message"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r chatRow) toModel() model.ChatGroup {
	return model.ChatGroup{
		ID:          r.ID,
		Title:       r.Title,
		ChatType:    r.ChatType,
		LastMessage: r.LastMessage,
	}
}

// crmUserRow is the crm_users table representation of an operator account.
type crmUserRow struct {
	ID           int64         `db:"id"`
	Username     string        `db:"username"`
	FullName     string        `db:"full_name"`
	Role         string        `db:"role"`
	ParentID     sql.NullInt64 `db:"parent_id"`
	PasswordHash string        `db:"password_hash"`
	CreatedAt    time.Time     `db:"created_at"`
}

func (r crmUserRow) toModel() model.CRMUser {
	u := model.CRMUser{
		ID:           r.ID,
		Username:     r.Username,
		FullName:     r.FullName,
		Role:         model.Role(r.Role),
		PasswordHash: r.PasswordHash,
	}
	if r.ParentID.Valid {
		parent := r.ParentID.Int64
		u.ParentID = &parent
	}
	return u
}
