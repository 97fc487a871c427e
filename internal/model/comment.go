package model

import "time"

// Comment はコメントスレッドに属する1件のコメントを表す。
// ThreadTypeとThreadIDの組がスレッドを識別する。ThreadIDは
// notify.ThreadRefが生成する正規化済みキー文字列で、本体は
// 不透明な文字列として扱う。
type Comment struct {
	ID         string
	ThreadType string
	ThreadID   string
	AuthorID   string
	Body       string // サニタイズ済みHTML
	CreatedAt  time.Time
}

// ThreadSubscription はスレッドの購読者1名を表す。
// (ThreadType, ThreadID, UserID)で一意。作成のみで削除はされない。
type ThreadSubscription struct {
	ID         string
	ThreadType string
	ThreadID   string
	UserID     string
	CreatedAt  time.Time
}
