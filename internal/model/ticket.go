package model

import "time"

// TicketStatus はヘルプデスクチケットの状態を表す。
type TicketStatus string

const (
	// TicketStatusOpen は未対応のチケット状態。
	TicketStatusOpen TicketStatus = "open"
	// TicketStatusInProgress は対応中のチケット状態。
	TicketStatusInProgress TicketStatus = "in_progress"
	// TicketStatusResolved は解決済みのチケット状態。
	TicketStatusResolved TicketStatus = "resolved"
)

// Ticket はヘルプデスクチケットを表す。
// AuthorIDは起票者、AssigneeIDは担当者。両者ともチケットコメントの
// 通知先候補として扱われる。AssigneeIDは未割り当ての場合は空文字列。
type Ticket struct {
	ID         string
	ClientID   string
	AuthorID   string
	AssigneeID string
	Subject    string
	Status     TicketStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
