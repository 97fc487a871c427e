package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bizman/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	project := &model.Project{}
	var clientID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, client_id, owner_id, name, status, created_at, updated_at FROM projects WHERE id = $1`,
		id,
	).Scan(&project.ID, &clientID, &project.OwnerID, &project.Name, &project.Status, &project.CreatedAt, &project.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}

	if clientID.Valid {
		project.ClientID = clientID.String
	}

	return project, nil
}

// Create はプロジェクトを作成する。
func (r *PostgresProjectRepo) Create(ctx context.Context, project *model.Project) error {
	var clientID interface{}
	if project.ClientID != "" {
		clientID = project.ClientID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, client_id, owner_id, name, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		project.ID, clientID, project.OwnerID, project.Name, project.Status, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}
	return nil
}

// List はプロジェクト一覧を作成日時昇順で返す。
func (r *PostgresProjectRepo) List(ctx context.Context) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, client_id, owner_id, name, status, created_at, updated_at
		 FROM projects ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		project := &model.Project{}
		var clientID sql.NullString
		if err := rows.Scan(&project.ID, &clientID, &project.OwnerID, &project.Name, &project.Status, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return nil, fmt.Errorf("プロジェクト行の読み取りに失敗しました: %w", err)
		}
		if clientID.Valid {
			project.ClientID = clientID.String
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の走査に失敗しました: %w", err)
	}
	return projects, nil
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
