package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bizman/internal/model"
)

// PostgresClientRepo はPostgreSQLを使用した取引先リポジトリ。
type PostgresClientRepo struct {
	db *sql.DB
}

// NewPostgresClientRepo はPostgresClientRepoを生成する。
func NewPostgresClientRepo(db *sql.DB) *PostgresClientRepo {
	return &PostgresClientRepo{db: db}
}

// FindByID は指定IDの取引先を取得する。見つからない場合はnilを返す。
func (r *PostgresClientRepo) FindByID(ctx context.Context, id string) (*model.Client, error) {
	client := &model.Client{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, note, created_at, updated_at FROM clients WHERE id = $1`,
		id,
	).Scan(&client.ID, &client.Name, &client.Email, &client.Phone, &client.Note, &client.CreatedAt, &client.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("取引先の取得に失敗しました: %w", err)
	}

	return client, nil
}

// Create は取引先を作成する。
func (r *PostgresClientRepo) Create(ctx context.Context, client *model.Client) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, email, phone, note, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		client.ID, client.Name, client.Email, client.Phone, client.Note, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("取引先の作成に失敗しました: %w", err)
	}
	return nil
}

// List は取引先一覧を作成日時昇順で返す。
func (r *PostgresClientRepo) List(ctx context.Context) ([]*model.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, phone, note, created_at, updated_at
		 FROM clients ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("取引先一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var clients []*model.Client
	for rows.Next() {
		client := &model.Client{}
		if err := rows.Scan(&client.ID, &client.Name, &client.Email, &client.Phone, &client.Note, &client.CreatedAt, &client.UpdatedAt); err != nil {
			return nil, fmt.Errorf("取引先行の読み取りに失敗しました: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("取引先一覧の走査に失敗しました: %w", err)
	}
	return clients, nil
}

// compile-time interface check
var _ ClientRepository = (*PostgresClientRepo)(nil)
