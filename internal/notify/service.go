package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/bizman/internal/model"
)

// CommentLister はスレッドの過去コメント取得のインターフェース。
// repository.CommentRepositoryがこれを満たす。
type CommentLister interface {
	ListByThread(ctx context.Context, threadType, threadID string) ([]*model.Comment, error)
}

// SubscriptionStore はスレッド購読レジストリのインターフェース。
// repository.ThreadSubscriptionRepositoryがこれを満たす。
type SubscriptionStore interface {
	Upsert(ctx context.Context, threadType, threadID, userID string) error
	ListSubscribers(ctx context.Context, threadType, threadID string) ([]string, error)
}

// PipelineMetrics はパイプライン全体のメトリクス記録インターフェース。
// metrics.Collectorがこれを満たす。
type PipelineMetrics interface {
	RecordMentionsResolved(count int)
	RecordSubscriptionUpserted()
}

// Service は通知パイプラインの入口となるサービス。
// コメント書き込み後の購読登録・受信者決定・配送を一括して実行する。
type Service struct {
	resolver   *MentionResolver
	builder    *SubscriberSetBuilder
	dispatcher *Dispatcher
	comments   CommentLister
	subs       SubscriptionStore
	metrics    PipelineMetrics
	logger     *slog.Logger
}

// NewService はServiceを生成する。
func NewService(
	resolver *MentionResolver,
	builder *SubscriberSetBuilder,
	dispatcher *Dispatcher,
	comments CommentLister,
	subs SubscriptionStore,
	metrics PipelineMetrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		resolver:   resolver,
		builder:    builder,
		dispatcher: dispatcher,
		comments:   comments,
		subs:       subs,
		metrics:    metrics,
		logger:     logger,
	}
}

// ResolveMentionedUserIDs はテキスト中の@メンションをユーザーIDに解決する。
// HTMLが渡された場合はプレーンテキスト化してから走査する。
func (s *Service) ResolveMentionedUserIDs(ctx context.Context, text string) ([]string, error) {
	resolved, err := s.resolver.ResolveMentions(ctx, FlattenHTML(text))
	if err != nil {
		return nil, err
	}
	s.metrics.RecordMentionsResolved(len(resolved))
	return resolved, nil
}

// CommentNotificationInput はNotifyCommentParticipantsへの入力。
type CommentNotificationInput struct {
	// Thread は対象のコメントスレッド。
	Thread ThreadRef
	// CommentID は書き込み済みコメントのID。
	// 過去コメントの走査時に自分自身を除外するために使う。
	CommentID string
	// CommentAuthorID はコメント投稿者のユーザーID。
	CommentAuthorID string
	// CommentText はコメント本文（保存されたサニタイズ済みHTML）。
	CommentText string
	// AuthorName は投稿者の表示名。
	AuthorName string
	// ContextTitle はスレッドが属するエンティティの表示名。
	ContextTitle string
	// EntityAuthorID はエンティティの作成者・担当者のユーザーID。
	// 該当者がいない場合は空文字列。
	EntityAuthorID string
	// Link は通知の遷移先。空の場合は通知一覧ページになる。
	Link string
	// Metadata は通知に付与する追加メタデータ。
	Metadata map[string]string
}

// NotifyCommentParticipants はコメント書き込み後の通知パイプラインを実行する。
//
//  1. 過去コメントと既存購読者を読み出す。
//  2. 受信者集合（参加者∪メンション、投稿者を除く）を構築する。
//  3. 投稿者と全受信者をスレッド購読として登録する。
//  4. 各受信者へ通知を並行配送する。
//
// 個々の受信者への配送失敗では戻り値はエラーにならない。
// ストア・ディレクトリの読み書き失敗はエラーとして返すので、
// 呼び出し側でログに記録すること（コメント書き込みの応答には影響させない）。
func (s *Service) NotifyCommentParticipants(ctx context.Context, input CommentNotificationInput) error {
	if input.Thread.IsZero() {
		return fmt.Errorf("スレッド参照が指定されていません")
	}
	if input.CommentAuthorID == "" {
		return fmt.Errorf("コメント投稿者IDが指定されていません")
	}

	prior, err := s.comments.ListByThread(ctx, input.Thread.Type, input.Thread.Key)
	if err != nil {
		return fmt.Errorf("過去コメントの取得に失敗しました: %w", err)
	}

	subscribers, err := s.subs.ListSubscribers(ctx, input.Thread.Type, input.Thread.Key)
	if err != nil {
		return fmt.Errorf("スレッド購読者の取得に失敗しました: %w", err)
	}

	// 過去コメントの投稿者と既存購読者をまとめて参加者として扱う。
	// 今回書き込んだコメント自身は過去分から除外する。
	var priorAuthorIDs []string
	var priorTexts []string
	for _, c := range prior {
		if c.ID == input.CommentID {
			continue
		}
		priorAuthorIDs = append(priorAuthorIDs, c.AuthorID)
		priorTexts = append(priorTexts, FlattenHTML(c.Body))
	}
	priorAuthorIDs = append(priorAuthorIDs, subscribers...)

	recipients, err := s.builder.BuildRecipients(ctx, CommentEvent{
		CommentAuthorID:       input.CommentAuthorID,
		CommentText:           FlattenHTML(input.CommentText),
		EntityAuthorID:        input.EntityAuthorID,
		PriorCommentAuthorIDs: priorAuthorIDs,
		PriorCommentTexts:     priorTexts,
	})
	if err != nil {
		return err
	}

	// 投稿者自身と全受信者を購読登録する。Upsertは冪等なので
	// 既存の購読者が含まれていても問題ない。
	for _, userID := range append([]string{input.CommentAuthorID}, recipients...) {
		if err := s.subs.Upsert(ctx, input.Thread.Type, input.Thread.Key, userID); err != nil {
			return fmt.Errorf("スレッド購読の登録に失敗しました: %w", err)
		}
		s.metrics.RecordSubscriptionUpserted()
	}

	if len(recipients) == 0 {
		s.logger.Debug("通知の受信者がいないため配送をスキップします",
			slog.String("thread_type", input.Thread.Type),
			slog.String("thread_id", input.Thread.Key),
		)
		return nil
	}

	s.dispatcher.Dispatch(ctx, recipients, Template{
		AuthorName:   input.AuthorName,
		ContextTitle: input.ContextTitle,
		CommentText:  input.CommentText,
		Link:         input.Link,
		Metadata:     input.Metadata,
	})
	return nil
}
