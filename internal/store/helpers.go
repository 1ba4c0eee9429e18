package store

import (
	"database/sql"
	"fmt"

	"github.com/cocoro-lab/cocorochat/internal/models"
)

// scanTurn scans a Turn from sql.Rows.
func scanTurn(rows *sql.Rows) (models.Turn, error) {
	var t models.Turn
	var phase sql.NullString
	err := rows.Scan(&t.ID, &t.UserID, &t.ChatDate, &t.UserMessage, &t.BotMessage, &phase, &t.MessageTime)
	if err != nil {
		return t, fmt.Errorf("scan turn failed: %w", err)
	}
	t.Phase = phase.String
	return t, nil
}
