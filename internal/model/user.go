// Package model はドメインモデルを定義する。
package model

import "time"

// UserStatus はユーザーの在籍状態を表す。
type UserStatus string

const (
	// UserStatusActive は在籍中のユーザー状態。
	UserStatusActive UserStatus = "active"
	// UserStatusInactive は退職・無効化されたユーザー状態。
	// inactiveのユーザーはメンション解決の候補にならない。
	UserStatusInactive UserStatus = "inactive"
	// UserStatusSuspended は一時停止中のユーザー状態。
	// inactiveではないため、メンション解決の候補には含まれる。
	UserStatusSuspended UserStatus = "suspended"
)

// User はサービス利用ユーザーを表す。
type User struct {
	ID        string
	Email     string
	Name      string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity は外部IdPとの紐付け情報を表す。
// 将来的に複数のIdP（Google, GitHub等）に対応可能な構造。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
