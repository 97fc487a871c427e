// Package ticket はヘルプデスクチケットのドメインロジックを提供する。
package ticket

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bizman/internal/comment"
	"github.com/hitoshi/bizman/internal/model"
	"github.com/hitoshi/bizman/internal/notify"
	"github.com/hitoshi/bizman/internal/repository"
)

// defaultListLimit はチケット一覧のデフォルト取得件数。
const defaultListLimit = 50

// Service はチケット管理のサービス層。
type Service struct {
	ticketRepo repository.TicketRepository
	comments   *comment.Service
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(ticketRepo repository.TicketRepository, comments *comment.Service) *Service {
	return &Service{
		ticketRepo: ticketRepo,
		comments:   comments,
	}
}

// CreateTicketInput はCreateへの入力。
type CreateTicketInput struct {
	ClientID   string
	AuthorID   string
	AssigneeID string
	Subject    string
}

// Create はチケットを作成する。
func (s *Service) Create(ctx context.Context, input CreateTicketInput) (*model.Ticket, error) {
	if input.Subject == "" {
		return nil, fmt.Errorf("件名は必須です")
	}

	now := time.Now()
	ticket := &model.Ticket{
		ID:         uuid.NewString(),
		ClientID:   input.ClientID,
		AuthorID:   input.AuthorID,
		AssigneeID: input.AssigneeID,
		Subject:    input.Subject,
		Status:     model.TicketStatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("チケットの作成に失敗しました: %w", err)
	}
	return ticket, nil
}

// Get は指定IDのチケットを返す。
func (s *Service) Get(ctx context.Context, ticketID string) (*model.Ticket, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("チケットの取得に失敗しました: %w", err)
	}
	if ticket == nil {
		return nil, model.NewTicketNotFoundError(ticketID)
	}
	return ticket, nil
}

// List はチケット一覧を作成日時降順で返す。
func (s *Service) List(ctx context.Context, limit int) ([]*model.Ticket, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	tickets, err := s.ticketRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("チケット一覧の取得に失敗しました: %w", err)
	}
	return tickets, nil
}

// UpdateStatus はチケットの状態を更新する。
func (s *Service) UpdateStatus(ctx context.Context, ticketID string, status model.TicketStatus) (*model.Ticket, error) {
	switch status {
	case model.TicketStatusOpen, model.TicketStatusInProgress, model.TicketStatusResolved:
	default:
		return nil, fmt.Errorf("不正なチケット状態です: %s", status)
	}

	ticket, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.ticketRepo.UpdateStatus(ctx, ticketID, status); err != nil {
		return nil, fmt.Errorf("チケット状態の更新に失敗しました: %w", err)
	}
	ticket.Status = status
	return ticket, nil
}

// AddComment はチケットにコメントを追加する。
// 通知のエンティティ関係者は担当者、未割り当ての場合は起票者になる。
func (s *Service) AddComment(ctx context.Context, ticketID, authorID, body string) (*model.Comment, error) {
	ticket, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	entityAuthorID := ticket.AssigneeID
	if entityAuthorID == "" {
		entityAuthorID = ticket.AuthorID
	}

	return s.comments.AddComment(ctx, comment.AddCommentInput{
		Thread:         notify.TicketThread(ticket.ID),
		AuthorID:       authorID,
		Body:           body,
		ContextTitle:   ticket.Subject,
		EntityAuthorID: entityAuthorID,
		Link:           "/tickets/" + ticket.ID,
		Metadata:       map[string]string{"ticket_id": ticket.ID},
	})
}

// ListComments はチケットのコメント一覧を返す。
func (s *Service) ListComments(ctx context.Context, ticketID string) ([]*model.Comment, error) {
	ticket, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.comments.ListComments(ctx, notify.TicketThread(ticket.ID))
}
