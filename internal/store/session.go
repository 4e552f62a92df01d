package store

import (
	"context"

	"rentnerd/internal/logging"
	"rentnerd/internal/types"
)

// =============================================================================
// SESSION HISTORY (Append-Only Transcript Persistence)
// =============================================================================

// StoreSessionTurn records one transcript turn.
// Uses INSERT OR IGNORE for idempotent syncing (duplicate turn numbers are
// silently skipped).
func (s *LocalStore) StoreSessionTurn(ctx context.Context, sessionID string, turnNumber int, role types.Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.StoreDebug("storing session turn: session=%s turn=%d role=%s", sessionID, turnNumber, role)

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO session_history (session_id, turn_number, role, content) VALUES (?, ?, ?, ?)`,
		sessionID, turnNumber, string(role), content,
	)
	if err != nil {
		return types.NewFault(types.FaultStorage, "failed to store session turn", err)
	}
	return nil
}

// SessionHistory retrieves a session's transcript in turn order.
func (s *LocalStore) SessionHistory(ctx context.Context, sessionID string, limit int) ([]types.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM session_history
		 WHERE session_id = ? ORDER BY turn_number LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, types.NewFault(types.FaultStorage, "failed to query session history", err)
	}
	defer rows.Close()

	var turns []types.Turn
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			continue
		}
		turns = append(turns, types.Turn{Role: types.Role(role), Content: content})
	}

	logging.StoreDebug("retrieved %d transcript turns for session=%s", len(turns), sessionID)
	return turns, nil
}
