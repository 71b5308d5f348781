package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgcrm/internal/database"
	"tgcrm/internal/model"
	"tgcrm/internal/telegram"
)

type fakeSource struct {
	batch []telegram.Update
	seen  []int64
}

func (f *fakeSource) GetUpdates(_ context.Context, offset int64) []telegram.Update {
	f.seen = append(f.seen, offset)
	return f.batch
}

type fakeHub struct {
	events []model.Message
}

func (f *fakeHub) BroadcastMessage(msg model.Message, _ model.ChatGroup) {
	f.events = append(f.events, msg)
}

// fakeStore implements database.Store in memory.
type fakeStore struct {
	database.Store

	offset     int64
	offsetErr  error
	chats      map[int64]model.ChatGroup
	messages   []model.Message
	messageErr error
	failOnText string
}

func newFakeStore() *fakeStore {
	return &fakeStore{chats: make(map[int64]model.ChatGroup)}
}

func (s *fakeStore) GetOffset(context.Context) (int64, error) { return s.offset, s.offsetErr }

func (s *fakeStore) SetOffset(_ context.Context, offset int64) error {
	s.offset = offset
	return nil
}

func (s *fakeStore) UpsertChat(_ context.Context, chat model.ChatGroup) error {
	s.chats[chat.ID] = chat
	return nil
}

func (s *fakeStore) SaveMessage(_ context.Context, msg model.Message) error {
	if s.messageErr != nil {
		return s.messageErr
	}
	if s.failOnText != "" && msg.Text == s.failOnText {
		return errors.New("constraint violated")
	}
	s.messages = append(s.messages, msg)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawTextUpdate(updateID, messageID int64, text string) telegram.Update {
	return telegram.Update{UpdateID: updateID, Message: &telegram.IncomingMessage{
		MessageID: messageID,
		Chat:      &telegram.Chat{ID: -100, Type: "group", Title: "Ops"},
		From:      &telegram.User{ID: 7, FirstName: "Ali"},
		Text:      text,
		Date:      1000,
	}}
}

func TestRunPersistsAndBroadcastsBatch(t *testing.T) {
	source := &fakeSource{batch: []telegram.Update{
		rawTextUpdate(40, 1, "first"),
		rawTextUpdate(41, 2, "second"),
	}}
	store := newFakeStore()
	store.offset = 40
	hub := &fakeHub{}

	p := New(testLogger(), source, store, hub)
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, []int64{40}, source.seen)
	require.Len(t, store.messages, 2)
	assert.Equal(t, "first", store.messages[0].Text)
	assert.Len(t, hub.events, 2)
	assert.Contains(t, store.chats, int64(-100))
	assert.Equal(t, int64(42), store.offset, "cursor advances to max(update_id)+1")
}

func TestRunSkipsUnrepresentableButAdvancesCursor(t *testing.T) {
	source := &fakeSource{batch: []telegram.Update{
		{UpdateID: 50}, // no message envelope at all
		rawTextUpdate(51, 3, "kept"),
	}}
	store := newFakeStore()
	hub := &fakeHub{}

	p := New(testLogger(), source, store, hub)
	require.NoError(t, p.Run(context.Background()))

	require.Len(t, store.messages, 1)
	assert.Equal(t, "kept", store.messages[0].Text)
	assert.Equal(t, int64(52), store.offset)
}

func TestRunEmptyBatchKeepsCursor(t *testing.T) {
	source := &fakeSource{}
	store := newFakeStore()
	store.offset = 9

	p := New(testLogger(), source, store, &fakeHub{})
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, int64(9), store.offset)
}

func TestRunCursorLoadFailure(t *testing.T) {
	store := newFakeStore()
	store.offsetErr = errors.New("db locked")

	p := New(testLogger(), &fakeSource{}, store, &fakeHub{})
	assert.Error(t, p.Run(context.Background()))
}

func TestRunSaveFailureKeepsCursorForRedelivery(t *testing.T) {
	source := &fakeSource{batch: []telegram.Update{rawTextUpdate(60, 4, "pending")}}
	store := newFakeStore()
	store.offset = 60
	store.messageErr = errors.New("disk full")
	hub := &fakeHub{}

	p := New(testLogger(), source, store, hub)
	require.Error(t, p.Run(context.Background()))

	assert.Empty(t, hub.events)
	assert.Equal(t, int64(60), store.offset, "cursor must not move past an unpersisted update")

	// The next cycle re-delivers the same update once the store recovers.
	store.messageErr = nil
	require.NoError(t, p.Run(context.Background()))

	require.Len(t, store.messages, 1)
	assert.Equal(t, "pending", store.messages[0].Text)
	assert.Len(t, hub.events, 1)
	assert.Equal(t, int64(61), store.offset)
}

func TestRunSaveFailurePersistsConsumedPrefix(t *testing.T) {
	source := &fakeSource{batch: []telegram.Update{
		rawTextUpdate(70, 5, "saved"),
		rawTextUpdate(71, 6, "fails"),
		rawTextUpdate(72, 7, "never reached"),
	}}
	store := newFakeStore()
	store.offset = 70
	store.failOnText = "fails"
	hub := &fakeHub{}

	p := New(testLogger(), source, store, hub)
	require.Error(t, p.Run(context.Background()))

	require.Len(t, store.messages, 1)
	assert.Equal(t, "saved", store.messages[0].Text)
	assert.Len(t, hub.events, 1)
	assert.Equal(t, int64(71), store.offset, "cursor covers only the persisted prefix")
}
