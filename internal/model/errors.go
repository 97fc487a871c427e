// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, business, notify, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeClientNotFound  = "CLIENT_NOT_FOUND"
	ErrCodeProjectNotFound = "PROJECT_NOT_FOUND"
	ErrCodeTicketNotFound  = "TICKET_NOT_FOUND"
	ErrCodeCommentEmpty    = "COMMENT_EMPTY"
	ErrCodeInvalidThread   = "INVALID_THREAD"
	ErrCodeUserNotFound    = "USER_NOT_FOUND"
)

// NewClientNotFoundError は取引先未検出エラーを生成する。
func NewClientNotFoundError(clientID string) *APIError {
	return &APIError{
		Code:     ErrCodeClientNotFound,
		Message:  fmt.Sprintf("指定された取引先が見つかりません: %s", clientID),
		Category: "business",
		Action:   "取引先IDを確認してください。",
	}
}

// NewProjectNotFoundError はプロジェクト未検出エラーを生成する。
func NewProjectNotFoundError(projectID string) *APIError {
	return &APIError{
		Code:     ErrCodeProjectNotFound,
		Message:  fmt.Sprintf("指定されたプロジェクトが見つかりません: %s", projectID),
		Category: "business",
		Action:   "プロジェクトIDを確認してください。",
	}
}

// NewTicketNotFoundError はチケット未検出エラーを生成する。
func NewTicketNotFoundError(ticketID string) *APIError {
	return &APIError{
		Code:     ErrCodeTicketNotFound,
		Message:  fmt.Sprintf("指定されたチケットが見つかりません: %s", ticketID),
		Category: "business",
		Action:   "チケットIDを確認してください。",
	}
}

// NewCommentEmptyError は空コメントエラーを生成する。
func NewCommentEmptyError() *APIError {
	return &APIError{
		Code:     ErrCodeCommentEmpty,
		Message:  "コメント本文が空です。",
		Category: "validation",
		Action:   "本文を入力してから投稿してください。",
	}
}

// NewInvalidThreadError は無効なスレッド指定エラーを生成する。
func NewInvalidThreadError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidThread,
		Message:  fmt.Sprintf("無効なスレッド指定です: %s", reason),
		Category: "validation",
		Action:   "スレッド種別と識別子を確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
