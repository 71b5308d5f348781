// Package gemini implements the generative-AI integration of the CRM:
// reply suggestions for incoming group messages and text-to-speech
// synthesis for the browser front-end.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"tgcrm/internal/config"
)

// smartReplyPrompt frames one group message for a short reply suggestion.
const smartReplyPrompt = `User message: %q
Context: this is a message from a Telegram group. I am the bot manager.
Task: suggest a professional and helpful reply.
Constraints: keep it short (max 100 characters).`

// defaultSuggestion is returned when the model produces no usable text.
const defaultSuggestion = "Message received."

// Client defines the AI operations used by the HTTP API.
type Client interface {
	// SmartReply suggests a short reply to one incoming message text.
	SmartReply(ctx context.Context, messageText string) (string, error)

	// Synthesize converts text to speech and returns raw 24 kHz 16-bit
	// PCM for the browser to decode and play.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type sdkClient struct {
	genaiClient *genai.Client
	log         *slog.Logger
	cfg         config.GeminiConfig
}

// NewClient creates a Gemini client from the provided configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized", "model", cfg.Model, "tts_model", cfg.TTSModel)
	return &sdkClient{
		genaiClient: gi,
		log:         logger,
		cfg:         cfg,
	}, nil
}

func (c *sdkClient) SmartReply(ctx context.Context, messageText string) (string, error) {
	c.log.DebugContext(ctx, "Generating reply suggestion")

	temperature := c.cfg.Temperature
	contents := []*genai.Content{
		genai.NewContentFromText(fmt.Sprintf(smartReplyPrompt, messageText), genai.RoleUser),
	}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.cfg.Model, contents, &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini suggestion failed", "error", err)
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return defaultSuggestion, nil
	}
	return text, nil
}

func (c *sdkClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("nothing to synthesize")
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.cfg.TTSVoice},
			},
		},
	}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.cfg.TTSModel, contents, cfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini TTS failed", "error", err)
		return nil, fmt.Errorf("gemini TTS call failed: %w", err)
	}

	audio := extractAudio(resp)
	if len(audio) == 0 {
		return nil, errors.New("gemini TTS returned no audio data")
	}
	return audio, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String()
}

func extractAudio(resp *genai.GenerateContentResponse) []byte {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}
