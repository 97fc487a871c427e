package model

import "time"

// NotificationKind は通知の種別を表す。
// 受信者側の通知設定（「コメント時に通知する」等）のフィルタに使われる。
type NotificationKind string

const (
	// NotificationKindComment はコメント追加による通知。
	NotificationKindComment NotificationKind = "comment"
)

// Notification はユーザー1名に対する通知1件を表す。
// 作成はNotificationRepository.Createを通じて行われ、
// 通知パイプラインからは作成プリミティブとしてのみ見える。
type Notification struct {
	ID          string
	RecipientID string
	Kind        NotificationKind
	Title       string
	Message     string
	Link        string
	Metadata    map[string]string
	CreatedAt   time.Time
}
