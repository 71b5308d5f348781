package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tgcrm/internal/observability"
	"tgcrm/internal/telegram"
)

func (s *Server) handleListChats(c *gin.Context) {
	chats, err := s.store.ListChats(c.Request.Context())
	if err != nil {
		s.log.ErrorContext(c.Request.Context(), "Failed to list chats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

func (s *Server) handleListMessages(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))
	messages, err := s.store.ListMessages(c.Request.Context(), chatID, limit)
	if err != nil {
		s.log.ErrorContext(c.Request.Context(), "Failed to list messages", "chat_id", chatID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (s *Server) handleSearchMessages(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	messages, err := s.store.SearchMessages(c.Request.Context(), query, limit)
	if err != nil {
		s.log.ErrorContext(c.Request.Context(), "Message search failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// respondDispatch translates the dispatcher's resolve-to-nil error policy
// into HTTP: nil means the provider was unreachable, while a provider
// rejection (ok=false) still carries the provider's stated reason back to
// the front-end.
func (s *Server) respondDispatch(c *gin.Context, operation string, resp *telegram.APIResponse) {
	if resp == nil {
		observability.IncSend(operation, "failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "provider unreachable"})
		return
	}
	if !resp.OK {
		observability.IncSend(operation, "rejected")
	} else {
		observability.IncSend(operation, "ok")
	}
	c.JSON(http.StatusOK, resp)
}

type replyRequest struct {
	Text      string `json:"text" binding:"required"`
	ReplyToID string `json:"reply_to_id"`
}

func (s *Server) handleSendReply(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := s.tg.SendReply(c.Request.Context(), chatID, req.Text, req.ReplyToID)
	s.respondDispatch(c, "sendMessage", resp)
}

type stickerRequest struct {
	Sticker   string `json:"sticker" binding:"required"`
	ReplyToID string `json:"reply_to_id"`
}

func (s *Server) handleSendSticker(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req stickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := s.tg.SendSticker(c.Request.Context(), chatID, req.Sticker, req.ReplyToID)
	s.respondDispatch(c, "sendSticker", resp)
}

type animationRequest struct {
	Animation string `json:"animation" binding:"required"`
	Caption   string `json:"caption"`
	ReplyToID string `json:"reply_to_id"`
}

func (s *Server) handleSendAnimation(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req animationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := s.tg.SendAnimation(c.Request.Context(), chatID, req.Animation, req.Caption, req.ReplyToID)
	s.respondDispatch(c, "sendAnimation", resp)
}

type broadcastRequest struct {
	ChatIDs []int64 `json:"chat_ids" binding:"required,min=1"`
	Text    string  `json:"text" binding:"required"`
}

type broadcastResult struct {
	ChatID      int64  `json:"chat_id"`
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// handleBroadcast fans one text out to the selected groups sequentially.
// Per-chat failures are collected, not retried.
func (s *Server) handleBroadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := make([]broadcastResult, 0, len(req.ChatIDs))
	for _, chatID := range req.ChatIDs {
		resp := s.tg.SendReply(c.Request.Context(), chatID, req.Text, "")
		switch {
		case resp == nil:
			observability.IncSend("sendMessage", "failed")
			results = append(results, broadcastResult{ChatID: chatID, Description: "provider unreachable"})
		case !resp.OK:
			observability.IncSend("sendMessage", "rejected")
			results = append(results, broadcastResult{ChatID: chatID, Description: resp.Description})
		default:
			observability.IncSend("sendMessage", "ok")
			results = append(results, broadcastResult{ChatID: chatID, OK: true})
		}
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) handleLookupChat(c *gin.Context) {
	identifier := c.Query("chat")
	if identifier == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing chat identifier"})
		return
	}

	resp := s.tg.GetChat(c.Request.Context(), identifier)
	if resp == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "provider unreachable"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleBotInfo(c *gin.Context) {
	resp := s.tg.GetMe(c.Request.Context())
	if resp == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "provider unreachable"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

type suggestRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) handleSuggest(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggestion, err := s.ai.SmartReply(c.Request.Context(), req.Text)
	if err != nil {
		s.log.ErrorContext(c.Request.Context(), "Smart reply failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "suggestion unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestion": suggestion})
}

type speakRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) handleSpeak(c *gin.Context) {
	var req speakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	audio, err := s.ai.Synthesize(c.Request.Context(), req.Text)
	if err != nil {
		s.log.ErrorContext(c.Request.Context(), "TTS failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "speech unavailable"})
		return
	}

	// Raw 16-bit PCM at 24 kHz; the browser decodes and plays it.
	c.Data(http.StatusOK, "audio/L16;rate=24000", audio)
}
