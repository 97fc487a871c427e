// Package cleanup は通知データの自動削除ジョブを提供する。
// 保持期間（デフォルト90日）を超過した通知を日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NotificationDeleter は保持期限切れ通知の削除インターフェース。
// repository.NotificationRepositoryがこれを満たす。
type NotificationDeleter interface {
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// DeletionRecorder は削除件数のメトリクス記録インターフェース。
// metrics.Collectorがこれを満たす。
type DeletionRecorder interface {
	RecordNotificationsDeleted(count int64)
}

// CleanupJob は保持期間を超過した通知の自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	deleter       NotificationDeleter
	metrics       DeletionRecorder
	logger        *slog.Logger
	RetentionDays int // 通知の保持日数（デフォルト: 90）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は90日。
func NewCleanupJob(deleter NotificationDeleter, metrics DeletionRecorder, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		deleter:       deleter,
		metrics:       metrics,
		logger:        logger,
		RetentionDays: 90,
	}
}

// Run は保持期間を超過した通知を削除する。
// created_atがRetentionDays日前より古い通知をDELETEする。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.deleter.DeleteOlderThan(ctx, j.RetentionDays)
	if err != nil {
		j.logger.Error("通知クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("通知クリーンアップの実行に失敗: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordNotificationsDeleted(deletedCount)
	}

	duration := time.Since(start)
	j.logger.Info("通知クリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
