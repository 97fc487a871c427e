package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bizman/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, thread_type, thread_id, author_id, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.ThreadType, comment.ThreadID, comment.AuthorID, comment.Body, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	return nil
}

// ListByThread はスレッドのコメント一覧を作成日時昇順で返す。
func (r *PostgresCommentRepo) ListByThread(ctx context.Context, threadType, threadID string) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, thread_type, thread_id, author_id, body, created_at
		 FROM comments WHERE thread_type = $1 AND thread_id = $2 ORDER BY created_at ASC`,
		threadType, threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		comment := &model.Comment{}
		if err := rows.Scan(&comment.ID, &comment.ThreadType, &comment.ThreadID, &comment.AuthorID, &comment.Body, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("コメント行の読み取りに失敗しました: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("コメント一覧の走査に失敗しました: %w", err)
	}
	return comments, nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
