package telegram

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

type sendMessageRequest struct {
	ChatID           int64  `json:"chat_id"`
	Text             string `json:"text"`
	ReplyToMessageID *int64 `json:"reply_to_message_id,omitempty"`
}

type sendStickerRequest struct {
	ChatID           int64  `json:"chat_id"`
	Sticker          string `json:"sticker"`
	ReplyToMessageID *int64 `json:"reply_to_message_id,omitempty"`
}

type sendAnimationRequest struct {
	ChatID           int64  `json:"chat_id"`
	Animation        string `json:"animation"`
	Caption          string `json:"caption,omitempty"`
	ReplyToMessageID *int64 `json:"reply_to_message_id,omitempty"`
}

// SendReply sends a text message to a chat. replyToID, when set, is the
// string form of the message being replied to; invalid or empty values
// send a root-level message.
func (c *Client) SendReply(ctx context.Context, chatID int64, text, replyToID string) *APIResponse {
	return c.postJSON(ctx, "sendMessage", sendMessageRequest{
		ChatID:           chatID,
		Text:             text,
		ReplyToMessageID: parseReplyTo(replyToID),
	})
}

// SendSticker sends a sticker by URL or provider file reference. No local
// upload or transcoding happens; the reference is passed through as-is.
func (c *Client) SendSticker(ctx context.Context, chatID int64, sticker, replyToID string) *APIResponse {
	return c.postJSON(ctx, "sendSticker", sendStickerRequest{
		ChatID:           chatID,
		Sticker:          sticker,
		ReplyToMessageID: parseReplyTo(replyToID),
	})
}

// SendAnimation sends an animation (GIF) by URL or provider file
// reference, with an optional caption.
func (c *Client) SendAnimation(ctx context.Context, chatID int64, animation, caption, replyToID string) *APIResponse {
	return c.postJSON(ctx, "sendAnimation", sendAnimationRequest{
		ChatID:           chatID,
		Animation:        animation,
		Caption:          caption,
		ReplyToMessageID: parseReplyTo(replyToID),
	})
}

// GetChat looks up chat metadata by numeric id, @handle, or bare username.
func (c *Client) GetChat(ctx context.Context, chatIDOrHandle string) *APIResponse {
	query := url.Values{"chat_id": {NormalizeChatIdentifier(chatIDOrHandle)}}
	return c.getJSON(ctx, "getChat", query.Encode())
}

// GetMe fetches the bot's own identity; used to validate the credential
// token at startup.
func (c *Client) GetMe(ctx context.Context) *APIResponse {
	return c.getJSON(ctx, "getMe", "")
}

// NormalizeChatIdentifier accepts bare usernames interchangeably with
// numeric ids and explicit handles: a value that is not numeric and does
// not already start with the group marker "-" or the handle marker "@"
// gets "@" prepended.
func NormalizeChatIdentifier(identifier string) string {
	if identifier == "" {
		return identifier
	}
	if strings.HasPrefix(identifier, "-") || strings.HasPrefix(identifier, "@") {
		return identifier
	}
	if _, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		return identifier
	}
	return "@" + identifier
}
