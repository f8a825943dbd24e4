package ledger

import (
	"fmt"
	"strings"
	"time"
)

// ActionEntry is one row of the audit log.
type ActionEntry struct {
	ID            int64     `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	AdminUsername *string   `json:"admin_username"`
	ActionType    string    `json:"action_type"`
	Title         string    `json:"title"`
	Details       string    `json:"details"`
}

// LogAction appends to the audit log. Failures here must not break the
// operation being logged, so callers typically log the returned error and
// move on.
func (s *Store) LogAction(adminUsername *string, actionType, title, details string) error {
	if strings.TrimSpace(details) == "" {
		details = "-"
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO actions (created_at, admin_username, action_type, title, details) VALUES (?, ?, ?, ?, ?)`,
		nowStamp(), nullable(adminUsername), actionType, title, details)
	if err != nil {
		return fmt.Errorf("log action: %w", err)
	}
	return nil
}

// ListActions returns audit entries newest-first, optionally filtered by
// action type, with limit/offset paging.
func (s *Store) ListActions(actionType string, limit, offset int) ([]ActionEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, created_at, admin_username, action_type, title, details FROM actions`
	var args []any
	if actionType != "" {
		query += ` WHERE action_type = ?`
		args = append(args, actionType)
	}
	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var out []ActionEntry
	for rows.Next() {
		var (
			e         ActionEntry
			createdAt string
			user      []byte
		)
		if err := rows.Scan(&e.ID, &createdAt, &user, &e.ActionType, &e.Title, &e.Details); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		e.CreatedAt = parseStamp(createdAt)
		if user != nil {
			v := string(user)
			e.AdminUsername = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountActions reports the number of audit entries, optionally for one type.
func (s *Store) CountActions(actionType string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		count int
		err   error
	)
	if actionType == "" {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM actions`).Scan(&count)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM actions WHERE action_type = ?`, actionType).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count actions: %w", err)
	}
	return count, nil
}
