// Package comment はコメントスレッドのドメインロジックを提供する。
//
// コメントの書き込みが成功した後に通知パイプラインを起動する統合点で、
// パイプラインの失敗はログに記録するだけでコメント書き込みの結果には
// 影響させない。
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bizman/internal/model"
	"github.com/hitoshi/bizman/internal/notify"
	"github.com/hitoshi/bizman/internal/repository"
	"github.com/hitoshi/bizman/internal/security"
)

// ParticipantNotifier はコメント参加者への通知パイプラインのインターフェース。
// notify.Serviceがこれを満たす。
type ParticipantNotifier interface {
	NotifyCommentParticipants(ctx context.Context, input notify.CommentNotificationInput) error
}

// Service はコメントのサービス層。
type Service struct {
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	sanitizer   security.ContentSanitizerService
	notifier    ParticipantNotifier
	logger      *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	sanitizer security.ContentSanitizerService,
	notifier ParticipantNotifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		commentRepo: commentRepo,
		userRepo:    userRepo,
		sanitizer:   sanitizer,
		notifier:    notifier,
		logger:      logger,
	}
}

// AddCommentInput はAddCommentへの入力。
// スレッドの属するエンティティの情報は呼び出し側のサービス
// （チケット・プロジェクト）が解決して渡す。
type AddCommentInput struct {
	// Thread は対象のコメントスレッド。
	Thread notify.ThreadRef
	// AuthorID はコメント投稿者のユーザーID。
	AuthorID string
	// Body はコメント本文（HTML可）。保存前にサニタイズされる。
	Body string
	// ContextTitle は通知に表示するエンティティ名。
	ContextTitle string
	// EntityAuthorID はエンティティの作成者・担当者。該当者なしは空文字列。
	EntityAuthorID string
	// Link は通知の遷移先。
	Link string
	// Metadata は通知に付与する追加メタデータ。
	Metadata map[string]string
}

// AddComment はコメントを書き込み、参加者への通知パイプラインを起動する。
// 本文はサニタイズ後に保存され、タグを除いた本文が空の場合はエラーになる。
// 通知パイプラインの失敗はログに記録され、戻り値には影響しない。
func (s *Service) AddComment(ctx context.Context, input AddCommentInput) (*model.Comment, error) {
	if input.Thread.IsZero() {
		return nil, model.NewInvalidThreadError("スレッド種別と識別子は必須です")
	}

	author, err := s.userRepo.FindByID(ctx, input.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("投稿者の取得に失敗しました: %w", err)
	}
	if author == nil {
		return nil, model.NewUserNotFoundError()
	}

	body := s.sanitizer.Sanitize(input.Body)
	if strings.TrimSpace(notify.FlattenHTML(body)) == "" {
		return nil, model.NewCommentEmptyError()
	}

	comment := &model.Comment{
		ID:         uuid.NewString(),
		ThreadType: input.Thread.Type,
		ThreadID:   input.Thread.Key,
		AuthorID:   input.AuthorID,
		Body:       body,
		CreatedAt:  time.Now(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}

	// 通知パイプラインの失敗はコメント書き込みの応答に影響させない。
	if err := s.notifier.NotifyCommentParticipants(ctx, notify.CommentNotificationInput{
		Thread:          input.Thread,
		CommentID:       comment.ID,
		CommentAuthorID: input.AuthorID,
		CommentText:     body,
		AuthorName:      author.Name,
		ContextTitle:    input.ContextTitle,
		EntityAuthorID:  input.EntityAuthorID,
		Link:            input.Link,
		Metadata:        input.Metadata,
	}); err != nil {
		s.logger.Error("コメント通知パイプラインの実行に失敗しました",
			slog.String("comment_id", comment.ID),
			slog.String("thread_type", input.Thread.Type),
			slog.String("thread_id", input.Thread.Key),
			slog.String("error", err.Error()),
		)
	}

	return comment, nil
}

// ListComments はスレッドのコメント一覧を作成日時昇順で返す。
func (s *Service) ListComments(ctx context.Context, thread notify.ThreadRef) ([]*model.Comment, error) {
	if thread.IsZero() {
		return nil, model.NewInvalidThreadError("スレッド種別と識別子は必須です")
	}
	comments, err := s.commentRepo.ListByThread(ctx, thread.Type, thread.Key)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return comments, nil
}
