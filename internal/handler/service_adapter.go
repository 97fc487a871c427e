package handler

import (
	"context"

	"github.com/hitoshi/bizman/internal/client"
	"github.com/hitoshi/bizman/internal/model"
	"github.com/hitoshi/bizman/internal/project"
	"github.com/hitoshi/bizman/internal/ticket"
)

// TicketServiceAdapter は ticket.Service を TicketServiceInterface に適合させるアダプタ。
type TicketServiceAdapter struct {
	svc *ticket.Service
}

// NewTicketServiceAdapter はTicketServiceAdapterを生成する。
func NewTicketServiceAdapter(svc *ticket.Service) *TicketServiceAdapter {
	return &TicketServiceAdapter{svc: svc}
}

// Create はチケットを作成する。
func (a *TicketServiceAdapter) Create(ctx context.Context, input ticketCreateInput) (*model.Ticket, error) {
	return a.svc.Create(ctx, ticket.CreateTicketInput{
		ClientID:   input.ClientID,
		AuthorID:   input.AuthorID,
		AssigneeID: input.AssigneeID,
		Subject:    input.Subject,
	})
}

// Get はチケットを取得する。
func (a *TicketServiceAdapter) Get(ctx context.Context, ticketID string) (*model.Ticket, error) {
	return a.svc.Get(ctx, ticketID)
}

// List はチケット一覧を返す。
func (a *TicketServiceAdapter) List(ctx context.Context, limit int) ([]*model.Ticket, error) {
	return a.svc.List(ctx, limit)
}

// UpdateStatus はチケットの状態を更新する。
func (a *TicketServiceAdapter) UpdateStatus(ctx context.Context, ticketID string, status model.TicketStatus) (*model.Ticket, error) {
	return a.svc.UpdateStatus(ctx, ticketID, status)
}

// AddComment はチケットスレッドにコメントを追加する。
func (a *TicketServiceAdapter) AddComment(ctx context.Context, ticketID, authorID, body string) (*model.Comment, error) {
	return a.svc.AddComment(ctx, ticketID, authorID, body)
}

// ListComments はチケットスレッドのコメント一覧を返す。
func (a *TicketServiceAdapter) ListComments(ctx context.Context, ticketID string) ([]*model.Comment, error) {
	return a.svc.ListComments(ctx, ticketID)
}

// ProjectServiceAdapter は project.Service を ProjectServiceInterface に適合させるアダプタ。
type ProjectServiceAdapter struct {
	svc *project.Service
}

// NewProjectServiceAdapter はProjectServiceAdapterを生成する。
func NewProjectServiceAdapter(svc *project.Service) *ProjectServiceAdapter {
	return &ProjectServiceAdapter{svc: svc}
}

// Create はプロジェクトを作成する。
func (a *ProjectServiceAdapter) Create(ctx context.Context, input projectCreateInput) (*model.Project, error) {
	return a.svc.Create(ctx, project.CreateProjectInput{
		ClientID: input.ClientID,
		OwnerID:  input.OwnerID,
		Name:     input.Name,
	})
}

// Get はプロジェクトを取得する。
func (a *ProjectServiceAdapter) Get(ctx context.Context, projectID string) (*model.Project, error) {
	return a.svc.Get(ctx, projectID)
}

// List はプロジェクト一覧を返す。
func (a *ProjectServiceAdapter) List(ctx context.Context) ([]*model.Project, error) {
	return a.svc.List(ctx)
}

// AddComment はプロジェクトスレッドにコメントを追加する。
func (a *ProjectServiceAdapter) AddComment(ctx context.Context, projectID string, loc projectThreadLocator, authorID, body string) (*model.Comment, error) {
	return a.svc.AddComment(ctx, projectID, toDomainThreadLocator(loc), authorID, body)
}

// ListComments はプロジェクトスレッドのコメント一覧を返す。
func (a *ProjectServiceAdapter) ListComments(ctx context.Context, projectID string, loc projectThreadLocator) ([]*model.Comment, error) {
	return a.svc.ListComments(ctx, projectID, toDomainThreadLocator(loc))
}

// toDomainThreadLocator はhandlerのスレッド座標をドメインの座標型に変換する。
func toDomainThreadLocator(loc projectThreadLocator) project.ThreadLocator {
	return project.ThreadLocator{
		SectionID:  loc.SectionID,
		DocumentID: loc.DocumentID,
		Month:      loc.Month,
		Year:       loc.Year,
	}
}

// ClientServiceAdapter は client.Service を ClientServiceInterface に適合させるアダプタ。
type ClientServiceAdapter struct {
	svc *client.Service
}

// NewClientServiceAdapter はClientServiceAdapterを生成する。
func NewClientServiceAdapter(svc *client.Service) *ClientServiceAdapter {
	return &ClientServiceAdapter{svc: svc}
}

// Create は取引先を作成する。
func (a *ClientServiceAdapter) Create(ctx context.Context, input clientCreateInput) (*model.Client, error) {
	return a.svc.Create(ctx, client.CreateClientInput{
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
		Note:  input.Note,
	})
}

// Get は取引先を取得する。
func (a *ClientServiceAdapter) Get(ctx context.Context, clientID string) (*model.Client, error) {
	return a.svc.Get(ctx, clientID)
}

// List は取引先一覧を返す。
func (a *ClientServiceAdapter) List(ctx context.Context) ([]*model.Client, error) {
	return a.svc.List(ctx)
}

// コンパイル時のインターフェース適合チェック
var (
	_ TicketServiceInterface  = (*TicketServiceAdapter)(nil)
	_ ProjectServiceInterface = (*ProjectServiceAdapter)(nil)
	_ ClientServiceInterface  = (*ClientServiceAdapter)(nil)
)
