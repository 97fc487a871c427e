package notify

import "strings"

// ThreadRef はコメントスレッドの識別子を表す。
// スレッド種別（Type）と、種別ごとの正規化済みキー（Key）の組で
// comments / thread_subscriptions テーブルの (thread_type, thread_id) に対応する。
//
// キーは必ずコンストラクタを通じて構築すること。手書きのキー文字列は
// 要素の順序や省略の揺れにより同一スレッドが別スレッドとして扱われる
// 事故のもとになる。
type ThreadRef struct {
	Type string
	Key  string
}

// スレッド種別。
const (
	ThreadTypeHelpdesk = "helpdesk"
	ThreadTypeProject  = "project"
)

// projectKeyEmpty はProjectThreadのキーで省略された識別子の位置を示すマーカー。
// 空文字列同士の連結によるキー衝突（例: section省略とdocument省略の区別）を防ぐ。
const projectKeyEmpty = "-"

// TicketThread はヘルプデスクチケットのコメントスレッド参照を返す。
func TicketThread(ticketID string) ThreadRef {
	return ThreadRef{Type: ThreadTypeHelpdesk, Key: ticketID}
}

// ProjectThread はプロジェクトのコメントスレッド参照を返す。
// プロジェクト内のスレッドはセクション・ドキュメント・対象年月の
// 任意の組み合わせで細分化される。キーは固定順
// (projectID, sectionID, documentID, month, year) で構築し、
// 省略された要素はマーカーで埋める。同じ組み合わせは常に同じキーになる。
func ProjectThread(projectID, sectionID, documentID, month, year string) ThreadRef {
	parts := []string{projectID, sectionID, documentID, month, year}
	for i, p := range parts {
		if p == "" {
			parts[i] = projectKeyEmpty
		}
	}
	return ThreadRef{Type: ThreadTypeProject, Key: strings.Join(parts, ":")}
}

// TrackerThread は任意の業務エンティティのコメントスレッド参照を返す。
// kindがそのままスレッド種別になる（例: "client", "invoice"）。
func TrackerThread(kind, id string) ThreadRef {
	return ThreadRef{Type: kind, Key: id}
}

// IsZero はスレッド参照が未設定かどうかを返す。
func (r ThreadRef) IsZero() bool {
	return r.Type == "" && r.Key == ""
}
