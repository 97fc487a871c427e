package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/bizman/internal/model"
)

// PostgresNotificationRepo はPostgreSQLを使用した通知リポジトリ。
type PostgresNotificationRepo struct {
	db *sql.DB
}

// NewPostgresNotificationRepo はPostgresNotificationRepoを生成する。
func NewPostgresNotificationRepo(db *sql.DB) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{db: db}
}

// Create は通知を1件作成する。
func (r *PostgresNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	metadata := n.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("通知メタデータのシリアライズに失敗しました: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, recipient_id, kind, title, message, link, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.RecipientID, n.Kind, n.Title, n.Message, n.Link, metadataJSON, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("通知の作成に失敗しました: %w", err)
	}
	return nil
}

// ListByRecipient は受信者の通知一覧を作成日時降順で返す。
func (r *PostgresNotificationRepo) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recipient_id, kind, title, message, link, metadata, created_at
		 FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC LIMIT $2`,
		recipientID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var notifications []*model.Notification
	for rows.Next() {
		n := &model.Notification{}
		var metadataJSON []byte
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Kind, &n.Title, &n.Message, &n.Link, &metadataJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("通知行の読み取りに失敗しました: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &n.Metadata); err != nil {
			return nil, fmt.Errorf("通知メタデータのデシリアライズに失敗しました: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("通知一覧の走査に失敗しました: %w", err)
	}
	return notifications, nil
}

// DeleteOlderThan は指定日数より古い通知を削除し、削除件数を返す。
// クリーンアップワーカーから定期的に呼ばれる。
func (r *PostgresNotificationRepo) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE created_at < now() - ($1 || ' days')::interval`,
		days,
	)
	if err != nil {
		return 0, fmt.Errorf("古い通知の削除に失敗しました: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ NotificationRepository = (*PostgresNotificationRepo)(nil)
