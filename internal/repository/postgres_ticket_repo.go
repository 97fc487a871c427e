package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bizman/internal/model"
)

// PostgresTicketRepo はPostgreSQLを使用したチケットリポジトリ。
type PostgresTicketRepo struct {
	db *sql.DB
}

// NewPostgresTicketRepo はPostgresTicketRepoを生成する。
func NewPostgresTicketRepo(db *sql.DB) *PostgresTicketRepo {
	return &PostgresTicketRepo{db: db}
}

func scanTicket(scan func(dest ...any) error) (*model.Ticket, error) {
	ticket := &model.Ticket{}
	var clientID, assigneeID sql.NullString
	if err := scan(&ticket.ID, &clientID, &ticket.AuthorID, &assigneeID, &ticket.Subject, &ticket.Status, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		return nil, err
	}
	if clientID.Valid {
		ticket.ClientID = clientID.String
	}
	if assigneeID.Valid {
		ticket.AssigneeID = assigneeID.String
	}
	return ticket, nil
}

// FindByID は指定IDのチケットを取得する。見つからない場合はnilを返す。
func (r *PostgresTicketRepo) FindByID(ctx context.Context, id string) (*model.Ticket, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, client_id, author_id, assignee_id, subject, status, created_at, updated_at
		 FROM tickets WHERE id = $1`,
		id,
	)
	ticket, err := scanTicket(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("チケットの取得に失敗しました: %w", err)
	}
	return ticket, nil
}

// Create はチケットを作成する。
func (r *PostgresTicketRepo) Create(ctx context.Context, ticket *model.Ticket) error {
	var clientID, assigneeID interface{}
	if ticket.ClientID != "" {
		clientID = ticket.ClientID
	}
	if ticket.AssigneeID != "" {
		assigneeID = ticket.AssigneeID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tickets (id, client_id, author_id, assignee_id, subject, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ticket.ID, clientID, ticket.AuthorID, assigneeID, ticket.Subject, ticket.Status, ticket.CreatedAt, ticket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("チケットの作成に失敗しました: %w", err)
	}
	return nil
}

// List はチケット一覧を作成日時降順で返す。
func (r *PostgresTicketRepo) List(ctx context.Context, limit int) ([]*model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, client_id, author_id, assignee_id, subject, status, created_at, updated_at
		 FROM tickets ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("チケット一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var tickets []*model.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("チケット行の読み取りに失敗しました: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("チケット一覧の走査に失敗しました: %w", err)
	}
	return tickets, nil
}

// UpdateStatus はチケットの状態を更新する。
func (r *PostgresTicketRepo) UpdateStatus(ctx context.Context, id string, status model.TicketStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("チケット状態の更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("チケットが見つかりません: id=%s", id)
	}
	return nil
}

// compile-time interface check
var _ TicketRepository = (*PostgresTicketRepo)(nil)
