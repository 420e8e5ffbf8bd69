package entities

import "time"

// AgendaItem is a single votable proposition. Session is resolved by the
// repository on read so admission can check the voting window.
type AgendaItem struct {
	AgendaItemID string
	Title        string
	Description  string
	SessionID    string
	Session      Session
	CreatedAt    time.Time
}
