package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresThreadSubscriptionRepo はPostgreSQLを使用したスレッド購読リポジトリ。
type PostgresThreadSubscriptionRepo struct {
	db *sql.DB
}

// NewPostgresThreadSubscriptionRepo はPostgresThreadSubscriptionRepoを生成する。
func NewPostgresThreadSubscriptionRepo(db *sql.DB) *PostgresThreadSubscriptionRepo {
	return &PostgresThreadSubscriptionRepo{db: db}
}

// Upsert はスレッド購読を作成する。既に存在する場合は何もせず成功する。
// UNIQUE制約への競合をON CONFLICT DO NOTHINGで吸収するため、
// 同一キーへの同時呼び出しでも一方が失敗することはない。
func (r *PostgresThreadSubscriptionRepo) Upsert(ctx context.Context, threadType, threadID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO thread_subscriptions (thread_type, thread_id, user_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (thread_type, thread_id, user_id) DO NOTHING`,
		threadType, threadID, userID,
	)
	if err != nil {
		return fmt.Errorf("スレッド購読の登録に失敗しました: %w", err)
	}
	return nil
}

// ListSubscribers はスレッドの購読者のユーザーID一覧を購読順で返す。
func (r *PostgresThreadSubscriptionRepo) ListSubscribers(ctx context.Context, threadType, threadID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM thread_subscriptions
		 WHERE thread_type = $1 AND thread_id = $2 ORDER BY created_at ASC`,
		threadType, threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("スレッド購読者の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("購読者行の読み取りに失敗しました: %w", err)
		}
		userIDs = append(userIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("スレッド購読者の走査に失敗しました: %w", err)
	}
	return userIDs, nil
}

// compile-time interface check
var _ ThreadSubscriptionRepository = (*PostgresThreadSubscriptionRepo)(nil)
