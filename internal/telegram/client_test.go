package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBotAPI records the last request and answers with a fixed envelope.
type fakeBotAPI struct {
	lastPath string
	lastBody map[string]any
	respond  string
}

func (f *fakeBotAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.lastPath = r.URL.Path + "?" + r.URL.RawQuery
		f.lastBody = nil
		if r.Body != nil {
			body, _ := io.ReadAll(r.Body)
			if len(body) > 0 {
				_ = json.Unmarshal(body, &f.lastBody)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(f.respond))
	}
}

func TestSendReplyWireFormat(t *testing.T) {
	t.Parallel()

	api := &fakeBotAPI{respond: `{"ok":true,"result":{"message_id":99}}`}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c := NewClient(srv.URL, "TOKEN", discardLogger())
	resp := c.SendReply(context.Background(), -100, "hi", "55")

	require.NotNil(t, resp)
	assert.True(t, resp.OK)
	assert.Contains(t, api.lastPath, "/botTOKEN/sendMessage")

	// reply_to_message_id must be sent as an integer parsed from "55"
	require.Contains(t, api.lastBody, "reply_to_message_id")
	assert.Equal(t, float64(55), api.lastBody["reply_to_message_id"])
	assert.Equal(t, float64(-100), api.lastBody["chat_id"])
	assert.Equal(t, "hi", api.lastBody["text"])
}

func TestSendReplyOmitsReplyLinkage(t *testing.T) {
	t.Parallel()

	api := &fakeBotAPI{respond: `{"ok":true}`}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c := NewClient(srv.URL, "TOKEN", discardLogger())

	for _, replyTo := range []string{"", "not-a-number"} {
		resp := c.SendReply(context.Background(), -100, "hi", replyTo)
		require.NotNil(t, resp)
		assert.NotContains(t, api.lastBody, "reply_to_message_id", "replyTo=%q", replyTo)
	}
}

func TestSendStickerAndAnimationBodies(t *testing.T) {
	t.Parallel()

	api := &fakeBotAPI{respond: `{"ok":true}`}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c := NewClient(srv.URL, "TOKEN", discardLogger())

	resp := c.SendSticker(context.Background(), -100, "https://cdn.example/stk.webp", "12")
	require.NotNil(t, resp)
	assert.Contains(t, api.lastPath, "/sendSticker")
	assert.Equal(t, "https://cdn.example/stk.webp", api.lastBody["sticker"])
	assert.Equal(t, float64(12), api.lastBody["reply_to_message_id"])

	resp = c.SendAnimation(context.Background(), -100, "https://cdn.example/fun.gif", "enjoy", "")
	require.NotNil(t, resp)
	assert.Contains(t, api.lastPath, "/sendAnimation")
	assert.Equal(t, "https://cdn.example/fun.gif", api.lastBody["animation"])
	assert.Equal(t, "enjoy", api.lastBody["caption"])
	assert.NotContains(t, api.lastBody, "reply_to_message_id")

	resp = c.SendAnimation(context.Background(), -100, "https://cdn.example/fun.gif", "", "")
	require.NotNil(t, resp)
	assert.NotContains(t, api.lastBody, "caption")
}

func TestDispatcherResolvesNilOnNetworkFailure(t *testing.T) {
	t.Parallel()

	// Point the client at a server that is already closed.
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(srv.URL, "TOKEN", discardLogger())
	ctx := context.Background()

	assert.Nil(t, c.SendReply(ctx, -100, "hi", "55"))
	assert.Nil(t, c.SendSticker(ctx, -100, "ref", ""))
	assert.Nil(t, c.SendAnimation(ctx, -100, "ref", "", ""))
	assert.Nil(t, c.GetChat(ctx, "mychannel"))
	assert.Nil(t, c.GetMe(ctx))
}

func TestProviderRejectionStillReturned(t *testing.T) {
	t.Parallel()

	api := &fakeBotAPI{respond: `{"ok":false,"error_code":401,"description":"Unauthorized"}`}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c := NewClient(srv.URL, "BADTOKEN", discardLogger())
	resp := c.SendReply(context.Background(), -100, "hi", "")

	require.NotNil(t, resp)
	assert.False(t, resp.OK)
	assert.Equal(t, 401, resp.ErrorCode)
	assert.Equal(t, "Unauthorized", resp.Description)
}

func TestGetChatIdentifierNormalization(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input string
		want  string
	}{
		{"42", "42"},
		{"mychannel", "@mychannel"},
		{"-10012345", "-10012345"},
		{"@already", "@already"},
		{"", ""},
	}

	for _, tc := range testCases {
		if got := NormalizeChatIdentifier(tc.input); got != tc.want {
			t.Errorf("NormalizeChatIdentifier(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}

	api := &fakeBotAPI{respond: `{"ok":true,"result":{"id":-10012345}}`}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c := NewClient(srv.URL, "TOKEN", discardLogger())
	resp := c.GetChat(context.Background(), "mychannel")
	require.NotNil(t, resp)
	assert.Contains(t, api.lastPath, "chat_id=%40mychannel")
}

func TestGetUpdatesReturnsBatch(t *testing.T) {
	t.Parallel()

	api := &fakeBotAPI{respond: `{"ok":true,"result":[
		{"update_id":7,"message":{"message_id":1,"date":1000,"chat":{"id":-1,"type":"group","title":"t"},"from":{"id":2,"first_name":"a"},"text":"x"}},
		{"update_id":9,"message":{"message_id":2,"date":1001,"chat":{"id":-1,"type":"group","title":"t"},"from":{"id":2,"first_name":"a"},"text":"y"}}
	]}`}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c := NewClient(srv.URL, "TOKEN", discardLogger())
	batch := c.GetUpdates(context.Background(), 5)

	require.Len(t, batch, 2)
	assert.Contains(t, api.lastPath, "offset=5")
	assert.Contains(t, api.lastPath, "timeout=15")
	assert.Equal(t, int64(7), batch[0].UpdateID)
	assert.Equal(t, int64(9), batch[1].UpdateID)
}

func TestGetUpdatesEmptyOnTimeout(t *testing.T) {
	t.Parallel()

	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	c := NewClient(srv.URL, "TOKEN", discardLogger())
	c.pollTimeout = 50 * time.Millisecond

	batch := c.GetUpdates(context.Background(), 0)
	assert.Empty(t, batch)
}

func TestGetUpdatesEmptyOnProviderRejection(t *testing.T) {
	t.Parallel()

	api := &fakeBotAPI{respond: `{"ok":false,"error_code":401,"description":"Unauthorized"}`}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c := NewClient(srv.URL, "TOKEN", discardLogger())
	assert.Empty(t, c.GetUpdates(context.Background(), 0))
}

func TestNextOffset(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		batch   []Update
		current int64
		want    int64
	}{
		{"empty batch keeps cursor", nil, 40, 40},
		{"advances past max id", []Update{{UpdateID: 41}, {UpdateID: 44}, {UpdateID: 43}}, 40, 45},
		{"never moves backwards", []Update{{UpdateID: 10}}, 40, 40},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NextOffset(tc.batch, tc.current); got != tc.want {
				t.Errorf("NextOffset = %d, want %d", got, tc.want)
			}
		})
	}
}
