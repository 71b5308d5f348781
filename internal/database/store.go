package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"tgcrm/internal/model"
)

// Store defines the data access operations of the CRM. Methods accept
// context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertChat creates the chat if absent or refreshes its title, type,
	// and last-message preview if present.
	UpsertChat(ctx context.Context, chat model.ChatGroup) error

	// SaveMessage inserts a normalized message. Re-delivery of the same
	// (chat, message id) pair updates content in place, which also covers
	// edited-message envelopes.
	SaveMessage(ctx context.Context, message model.Message) error

	// ListChats returns all known chats, most recently active first.
	ListChats(ctx context.Context) ([]model.ChatGroup, error)

	// ListMessages returns up to limit messages of one chat in
	// chronological order.
	ListMessages(ctx context.Context, chatID int64, limit int) ([]model.Message, error)

	// SearchMessages returns up to limit messages whose text contains
	// query, newest first.
	SearchMessages(ctx context.Context, query string, limit int) ([]model.Message, error)

	// GetOffset returns the persisted poll cursor.
	GetOffset(ctx context.Context) (int64, error)

	// SetOffset persists the poll cursor.
	SetOffset(ctx context.Context, offset int64) error

	// GetAllUsers returns all CRM operator accounts.
	GetAllUsers(ctx context.Context) ([]model.CRMUser, error)

	// GetUserByUsername returns the account or nil, nil when absent.
	GetUserByUsername(ctx context.Context, username string) (*model.CRMUser, error)

	// CountUsersByRole counts accounts holding the given role.
	CountUsersByRole(ctx context.Context, role model.Role) (int, error)

	// SaveUser inserts a new account and fills in its assigned ID.
	SaveUser(ctx context.Context, user *model.CRMUser) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore implements Store using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx. It requires a connected
// sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) UpsertChat(ctx context.Context, chat model.ChatGroup) error {
	if chat.ID == 0 {
		return errors.New("chat must have a non-zero id")
	}
	if chat.Title == "" {
		return errors.New("chat must have a non-empty title")
	}

	const query = `
		INSERT INTO chats (id, title, chat_type, last_message, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			chat_type = excluded.chat_type,
			last_message = excluded.last_message,
			updated_at = CURRENT_TIMESTAMP`

	if _, err := s.db.ExecContext(ctx, query, chat.ID, chat.Title, chat.ChatType, chat.LastMessage); err != nil {
		s.logger.ErrorContext(ctx, "Failed to upsert chat", "chat_id", chat.ID, "error", err)
		return fmt.Errorf("failed to upsert chat: %w", err)
	}
	return nil
}

func (s *sqlxStore) SaveMessage(ctx context.Context, message model.Message) error {
	if message.ID == "" {
		return errors.New("message must have a non-empty id")
	}
	if message.ChatID == 0 {
		return errors.New("message must have a non-zero chat_id")
	}

	const query = `
		INSERT INTO messages
			(chat_id, message_id, sender_id, sender_name, sender_handle,
			 text, kind, media_ref, reply_to_id, timestamp_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id, message_id) DO UPDATE SET
			text = excluded.text,
			kind = excluded.kind,
			media_ref = excluded.media_ref,
			reply_to_id = excluded.reply_to_id`

	_, err := s.db.ExecContext(ctx, query,
		message.ChatID, message.ID,
		message.Sender.ID, message.Sender.DisplayName, message.Sender.Handle,
		message.Text, string(message.Kind), message.MediaRef, message.ReplyToID,
		message.Timestamp,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save message",
			"chat_id", message.ChatID, "message_id", message.ID, "error", err)
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (s *sqlxStore) ListChats(ctx context.Context) ([]model.ChatGroup, error) {
	var rows []chatRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM chats ORDER BY updated_at DESC`); err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	chats := make([]model.ChatGroup, 0, len(rows))
	for _, r := range rows {
		chats = append(chats, r.toModel())
	}
	return chats, nil
}

func (s *sqlxStore) ListMessages(ctx context.Context, chatID int64, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 200
	}

	// Newest window first, then flipped to chronological order.
	const query = `
		SELECT * FROM (
			SELECT * FROM messages WHERE chat_id = ?
			ORDER BY timestamp_ms DESC, id DESC LIMIT ?
		) ORDER BY timestamp_ms ASC, id ASC`

	var rows []messageRow
	if err := s.db.SelectContext(ctx, &rows, query, chatID, limit); err != nil {
		return nil, fmt.Errorf("failed to list messages for chat %d: %w", chatID, err)
	}

	messages := make([]model.Message, 0, len(rows))
	for _, r := range rows {
		messages = append(messages, r.toModel())
	}
	return messages, nil
}

func (s *sqlxStore) SearchMessages(ctx context.Context, query string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM messages WHERE text LIKE ? ORDER BY timestamp_ms DESC LIMIT ?`,
		"%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}

	messages := make([]model.Message, 0, len(rows))
	for _, r := range rows {
		messages = append(messages, r.toModel())
	}
	return messages, nil
}

func (s *sqlxStore) GetOffset(ctx context.Context) (int64, error) {
	var offset int64
	err := s.db.GetContext(ctx, &offset, `SELECT offset_cursor FROM poll_state WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read poll cursor: %w", err)
	}
	return offset, nil
}

func (s *sqlxStore) SetOffset(ctx context.Context, offset int64) error {
	const query = `
		INSERT INTO poll_state (id, offset_cursor, updated_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			offset_cursor = excluded.offset_cursor,
			updated_at = CURRENT_TIMESTAMP`

	if _, err := s.db.ExecContext(ctx, query, offset); err != nil {
		return fmt.Errorf("failed to persist poll cursor: %w", err)
	}
	return nil
}

func (s *sqlxStore) GetAllUsers(ctx context.Context) ([]model.CRMUser, error) {
	var rows []crmUserRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM crm_users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list CRM users: %w", err)
	}

	users := make([]model.CRMUser, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toModel())
	}
	return users, nil
}

func (s *sqlxStore) GetUserByUsername(ctx context.Context, username string) (*model.CRMUser, error) {
	var row crmUserRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM crm_users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load CRM user %q: %w", username, err)
	}

	user := row.toModel()
	return &user, nil
}

func (s *sqlxStore) CountUsersByRole(ctx context.Context, role model.Role) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM crm_users WHERE role = ?`, string(role)); err != nil {
		return 0, fmt.Errorf("failed to count CRM users: %w", err)
	}
	return count, nil
}

func (s *sqlxStore) SaveUser(ctx context.Context, user *model.CRMUser) error {
	if user == nil {
		return errors.New("cannot save nil user")
	}
	if user.Username == "" || user.PasswordHash == "" {
		return errors.New("user must have a username and password hash")
	}
	if !user.Role.Valid() {
		return fmt.Errorf("unknown role %q", user.Role)
	}

	var parentID sql.NullInt64
	if user.ParentID != nil {
		parentID = sql.NullInt64{Int64: *user.ParentID, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO crm_users (username, full_name, role, parent_id, password_hash)
		 VALUES (?, ?, ?, ?, ?)`,
		user.Username, user.FullName, string(user.Role), parentID, user.PasswordHash)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save CRM user", "username", user.Username, "error", err)
		return fmt.Errorf("failed to save CRM user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted user id: %w", err)
	}
	user.ID = id
	return nil
}

func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	for _, stmt := range []string{"VACUUM", "ANALYZE"} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("maintenance statement %s failed: %w", stmt, err)
		}
	}
	s.logger.InfoContext(ctx, "SQL maintenance completed")
	return nil
}
