package telegram

import (
	"strconv"

	"tgcrm/internal/model"
)

const (
	stickerPlaceholder = "[Sticker]"
	gifPlaceholder     = "[GIF]"

	// UnknownChatTitle is the display fallback for chats that report
	// neither a title nor a first name.
	UnknownChatTitle = "Unknown Chat"
)

// ParsedUpdate pairs the normalized message with the (upserted) chat it
// belongs to.
type ParsedUpdate struct {
	Message model.Message
	Chat    model.ChatGroup
}

// ParseUpdate converts one raw update into the normalized CRM records.
// It returns nil when the update carries neither a new nor an edited
// message, or when the envelope lacks a chat or sender reference; such
// updates are expected in a heterogeneous feed and are simply not
// representable, so they are dropped rather than treated as errors.
//
// Classification is first match wins: sticker, then animation, then text.
// A payload carrying both a sticker and an animation is not expected from
// the provider; if one ever arrives, the sticker wins.
//
// ParseUpdate performs no I/O.
func ParseUpdate(u Update) *ParsedUpdate {
	msg := u.Message
	if msg == nil {
		msg = u.EditedMessage
	}
	if msg == nil || msg.Chat == nil || msg.From == nil {
		return nil
	}

	kind := model.KindText
	mediaRef := ""
	text := msg.Text

	switch {
	case msg.Sticker != nil:
		kind = model.KindSticker
		mediaRef = msg.Sticker.FileID
		text = stickerPlaceholder
	case msg.Animation != nil:
		kind = model.KindGIF
		mediaRef = msg.Animation.FileID
		text = msg.Caption
		if text == "" {
			text = gifPlaceholder
		}
	}

	title := msg.Chat.Title
	if title == "" {
		title = msg.Chat.FirstName
	}
	if title == "" {
		title = UnknownChatTitle
	}

	chat := model.ChatGroup{
		ID:          msg.Chat.ID,
		Title:       title,
		ChatType:    msg.Chat.Type,
		LastMessage: text,
	}

	message := model.Message{
		ID:     strconv.FormatInt(msg.MessageID, 10),
		ChatID: msg.Chat.ID,
		Sender: model.Sender{
			ID:          msg.From.ID,
			DisplayName: msg.From.FirstName,
			Handle:      msg.From.Username,
		},
		Text:      text,
		Timestamp: msg.Date * 1000, // provider reports whole seconds
		Kind:      kind,
		MediaRef:  mediaRef,
	}
	if msg.ReplyToMessage != nil {
		message.ReplyToID = strconv.FormatInt(msg.ReplyToMessage.MessageID, 10)
	}

	return &ParsedUpdate{Message: message, Chat: chat}
}
