// Package notification は通知一覧のドメインロジックを提供する。
package notification

import (
	"context"
	"fmt"

	"github.com/hitoshi/bizman/internal/model"
	"github.com/hitoshi/bizman/internal/repository"
)

// defaultListLimit は通知一覧のデフォルト取得件数。
const defaultListLimit = 50

// maxListLimit は通知一覧の最大取得件数。
const maxListLimit = 200

// Service は通知参照のサービス層。
// 通知の作成はnotifyパッケージのパイプラインからのみ行われ、
// このサービスは受信者向けの読み出しだけを提供する。
type Service struct {
	notificationRepo repository.NotificationRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(notificationRepo repository.NotificationRepository) *Service {
	return &Service{notificationRepo: notificationRepo}
}

// List は受信者の通知一覧を新しい順で返す。
func (s *Service) List(ctx context.Context, recipientID string, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	notifications, err := s.notificationRepo.ListByRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗しました: %w", err)
	}
	return notifications, nil
}
