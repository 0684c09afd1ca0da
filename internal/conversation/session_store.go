package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/wellbot/wellbot-api/internal/database"
)

const (
	// DefaultSessionTitle names a session until its first user message arrives.
	DefaultSessionTitle = "Cuộc trò chuyện mới"
	sessionTitleRunes   = 50
)

// Stored message roles.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

var (
	ErrSessionNotFound = errors.New("conversation: session not found")
	ErrInvalidRole     = errors.New("conversation: invalid message role")
)

// Session is a user's chat thread.
type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	MessageCount int       `json:"messageCount"`
}

// Message is one stored turn of a session.
type Message struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"sessionId"`
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryMessage is the role and text of a message used for prompt history.
type HistoryMessage struct {
	Role    string
	Message string
}

// SessionStore persists chat sessions and messages in MySQL.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	if db == nil {
		panic("conversation: session store requires a database")
	}
	return &SessionStore{db: db}
}

// ListSessions returns a user's sessions, most recently active first.
func (s *SessionStore) ListSessions(ctx context.Context, userID int64) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.user_id, s.title, s.created_at, s.updated_at, COUNT(m.id)
		FROM chat_sessions s
		LEFT JOIN chat_messages m ON m.session_id = s.id
		WHERE s.user_id = ?
		GROUP BY s.id, s.user_id, s.title, s.created_at, s.updated_at
		ORDER BY s.updated_at DESC, s.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("conversation: list sessions: %w", err)
	}
	defer rows.Close()

	out := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.Title, &sess.CreatedAt, &sess.UpdatedAt, &sess.MessageCount); err != nil {
			return nil, fmt.Errorf("conversation: scan session: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: iterate sessions: %w", err)
	}
	return out, nil
}

// CreateSession starts a session. An empty title uses DefaultSessionTitle.
func (s *SessionStore) CreateSession(ctx context.Context, userID int64, title string) (*Session, error) {
	if title == "" {
		title = DefaultSessionTitle
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO chat_sessions (user_id, title) VALUES (?, ?)`, userID, title)
	if err != nil {
		return nil, fmt.Errorf("conversation: insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("conversation: session insert id: %w", err)
	}

	sess := &Session{}
	err = s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, created_at, updated_at FROM chat_sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.UserID, &sess.Title, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("conversation: load session: %w", err)
	}
	return sess, nil
}

// Messages returns a session's messages oldest first. Sessions owned by
// another user are reported as ErrSessionNotFound.
func (s *SessionStore) Messages(ctx context.Context, userID, sessionID int64) ([]Message, error) {
	var owned bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM chat_sessions WHERE id = ? AND user_id = ?)`, sessionID, userID).Scan(&owned); err != nil {
		return nil, fmt.Errorf("conversation: check session owner: %w", err)
	}
	if !owned {
		return nil, ErrSessionNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, message, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("conversation: list messages: %w", err)
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("conversation: scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: iterate messages: %w", err)
	}
	return out, nil
}

// AppendMessage stores a message and bumps the session's activity time in one
// transaction. The first user message of a session also becomes its title.
func (s *SessionStore) AppendMessage(ctx context.Context, userID, sessionID int64, role, message string) (int64, error) {
	if role != RoleUser && role != RoleBot {
		return 0, ErrInvalidRole
	}

	var messageID int64
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM chat_sessions WHERE id = ? AND user_id = ? FOR UPDATE`, sessionID, userID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("conversation: lock session: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO chat_messages (session_id, role, message) VALUES (?, ?, ?)`, sessionID, role, message)
		if err != nil {
			return fmt.Errorf("conversation: insert message: %w", err)
		}
		if messageID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("conversation: message insert id: %w", err)
		}

		firstUser := false
		if role == RoleUser {
			var count int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM chat_messages WHERE session_id = ? AND role = 'user'`, sessionID).Scan(&count); err != nil {
				return fmt.Errorf("conversation: count user messages: %w", err)
			}
			firstUser = count == 1
		}

		if firstUser {
			_, err = tx.ExecContext(ctx,
				`UPDATE chat_sessions SET title = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				SessionTitle(message), sessionID)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE chat_sessions SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, sessionID)
		}
		if err != nil {
			return fmt.Errorf("conversation: touch session: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return messageID, nil
}

// DeleteSession removes a user's session and, by cascade, its messages.
func (s *SessionStore) DeleteSession(ctx context.Context, userID, sessionID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ? AND user_id = ?`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("conversation: delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("conversation: delete rows affected: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RecentMessages returns up to limit of the user's newest messages across all
// sessions except excludeSession, in chronological order.
func (s *SessionStore) RecentMessages(ctx context.Context, userID int64, excludeSession *int64, limit int) ([]HistoryMessage, error) {
	query := `SELECT cm.role, cm.message
		FROM chat_messages cm
		JOIN chat_sessions cs ON cm.session_id = cs.id
		WHERE cs.user_id = ?`
	args := []any{userID}
	if excludeSession != nil {
		query += ` AND cs.id <> ?`
		args = append(args, *excludeSession)
	}
	query += ` ORDER BY cm.created_at DESC, cm.id DESC LIMIT ?`
	args = append(args, limit)
	return s.history(ctx, "prior", query, args...)
}

// RecentSessionMessages returns up to limit of the newest messages of one of
// the user's sessions, in chronological order.
func (s *SessionStore) RecentSessionMessages(ctx context.Context, userID, sessionID int64, limit int) ([]HistoryMessage, error) {
	return s.history(ctx, "current", `SELECT cm.role, cm.message
		FROM chat_messages cm
		JOIN chat_sessions cs ON cm.session_id = cs.id
		WHERE cm.session_id = ? AND cs.user_id = ?
		ORDER BY cm.created_at DESC, cm.id DESC LIMIT ?`, sessionID, userID, limit)
}

func (s *SessionStore) history(ctx context.Context, label, query string, args ...any) ([]HistoryMessage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("conversation: %s history: %w", label, err)
	}
	defer rows.Close()

	var out []HistoryMessage
	for rows.Next() {
		var m HistoryMessage
		if err := rows.Scan(&m.Role, &m.Message); err != nil {
			return nil, fmt.Errorf("conversation: scan %s history: %w", label, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: iterate %s history: %w", label, err)
	}
	slices.Reverse(out)
	return out, nil
}

// SessionTitle derives a session title from a message: its first 50 runes,
// with "..." appended when it was cut.
func SessionTitle(message string) string {
	if utf8.RuneCountInString(message) <= sessionTitleRunes {
		return message
	}
	runes := []rune(message)
	return string(runes[:sessionTitleRunes]) + "..."
}
