package model

import "time"

// Client は取引先企業を表す。
type Client struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Project はプロジェクトを表す。
// OwnerIDはプロジェクトの作成者で、プロジェクトコメントの
// 通知先候補（エンティティ作成者）として扱われる。
type Project struct {
	ID        string
	ClientID  string
	OwnerID   string
	Name      string
	Status    ProjectStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectStatus はプロジェクトの進行状態を表す。
type ProjectStatus string

const (
	// ProjectStatusOpen は進行中のプロジェクト状態。
	ProjectStatusOpen ProjectStatus = "open"
	// ProjectStatusClosed は完了したプロジェクト状態。
	ProjectStatusClosed ProjectStatus = "closed"
)
