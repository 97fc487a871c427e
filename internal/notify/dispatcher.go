package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bizman/internal/model"
)

// NotificationCreator は通知作成プリミティブのインターフェース。
// repository.NotificationRepositoryがこれを満たす。
type NotificationCreator interface {
	Create(ctx context.Context, n *model.Notification) error
}

// DispatchMetrics は配送メトリクスの記録インターフェース。
// metrics.Collectorがこれを満たす。
type DispatchMetrics interface {
	RecordDispatchSuccess()
	RecordDispatchFailure()
	RecordDispatchLatency(duration time.Duration)
}

// Template は通知1バッチ分の表示内容。
type Template struct {
	// AuthorName はコメント投稿者の表示名。
	AuthorName string
	// ContextTitle はスレッドが属するエンティティの表示名
	// （チケットの件名、プロジェクト名など）。
	ContextTitle string
	// CommentText はコメント本文。HTMLの場合はプレビュー生成時に
	// プレーンテキストへ変換される。
	CommentText string
	// Link は通知の遷移先。空の場合は通知一覧ページになる。
	Link string
	// Metadata は呼び出し側が付与する追加メタデータ。
	Metadata map[string]string
}

// previewMaxRunes は通知メッセージに含めるコメントプレビューの最大文字数。
const previewMaxRunes = 100

// defaultNotificationLink はLink未指定時の遷移先。
const defaultNotificationLink = "/notifications"

// Dispatcher は受信者集合への通知の並行配送を行う。
// 個々の受信者への作成失敗はログに記録するだけで、
// バッチ全体を失敗させることはない。
type Dispatcher struct {
	creator       NotificationCreator
	metrics       DispatchMetrics
	logger        *slog.Logger
	maxConcurrent int
}

// NewDispatcher はDispatcherを生成する。
// maxConcurrentは通知作成の最大並列数。0以下の場合は1として扱う。
func NewDispatcher(creator NotificationCreator, metrics DispatchMetrics, logger *slog.Logger, maxConcurrent int) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Dispatcher{
		creator:       creator,
		metrics:       metrics,
		logger:        logger,
		maxConcurrent: maxConcurrent,
	}
}

// Dispatch は各受信者への通知を並行作成し、全件の完了を待つ。
// 受信者が空の場合は何もしない。
// 作成に失敗した受信者はIDとエラーをログに記録して先へ進む。
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []string, tpl Template) {
	if len(recipients) == 0 {
		return
	}

	start := time.Now()
	title, message := renderNotification(tpl)
	metadata := buildMetadata(tpl)
	link := tpl.Link
	if link == "" {
		link = defaultNotificationLink
	}

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, d.maxConcurrent)
	var wg sync.WaitGroup

	for _, recipientID := range recipients {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）
		go func(recipientID string) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			n := &model.Notification{
				ID:          uuid.NewString(),
				RecipientID: recipientID,
				Kind:        model.NotificationKindComment,
				Title:       title,
				Message:     message,
				Link:        link,
				Metadata:    metadata,
				CreatedAt:   time.Now(),
			}
			if err := d.creator.Create(ctx, n); err != nil {
				d.metrics.RecordDispatchFailure()
				d.logger.Error("通知の作成に失敗しました",
					slog.String("recipient_id", recipientID),
					slog.String("error", err.Error()),
				)
				return
			}
			d.metrics.RecordDispatchSuccess()
		}(recipientID)
	}

	wg.Wait()
	d.metrics.RecordDispatchLatency(time.Since(start))
}

// renderNotification は通知のタイトルと本文を組み立てる。
// 本文のプレビューはプレーンテキスト化したコメントの先頭100文字で、
// 超過分は省略記号に置き換える。
func renderNotification(tpl Template) (title, message string) {
	title = fmt.Sprintf("%sが%sにコメントしました", tpl.AuthorName, tpl.ContextTitle)

	preview := FlattenHTML(tpl.CommentText)
	if runes := []rune(preview); len(runes) > previewMaxRunes {
		preview = string(runes[:previewMaxRunes]) + "…"
	}
	message = fmt.Sprintf("%s: 「%s」", tpl.AuthorName, preview)
	return title, message
}

// buildMetadata は呼び出し側のメタデータにコメント全文を合成して返す。
// comment_textとfull_commentはどちらも全文で、呼び出し側の同名キーを上書きする。
func buildMetadata(tpl Template) map[string]string {
	metadata := make(map[string]string, len(tpl.Metadata)+2)
	for k, v := range tpl.Metadata {
		metadata[k] = v
	}
	metadata["comment_text"] = tpl.CommentText
	metadata["full_comment"] = tpl.CommentText
	return metadata
}
