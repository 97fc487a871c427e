// Package project はプロジェクト管理のドメインロジックを提供する。
package project

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

// Service はプロジェクト管理のサービス層。
type Service struct {
	projectRepo repository.ProjectRepository
	comments    *comment.Service
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(projectRepo repository.ProjectRepository, comments *comment.Service) *Service {
	return &Service{
		projectRepo: projectRepo,
		comments:    comments,
	}
}

// CreateProjectInput はCreateへの入力。
type CreateProjectInput struct {
	ClientID string
	OwnerID  string
	Name     string
}

// Create はプロジェクトを作成する。
func (s *Service) Create(ctx context.Context, input CreateProjectInput) (*model.Project, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("プロジェクト名は必須です")
	}

	now := time.Now()
	project := &model.Project{
		ID:        uuid.NewString(),
		ClientID:  input.ClientID,
		OwnerID:   input.OwnerID,
		Name:      input.Name,
		Status:    model.ProjectStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}
	return project, nil
}

// Get は指定IDのプロジェクトを返す。
func (s *Service) Get(ctx context.Context, projectID string) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(projectID)
	}
	return project, nil
}

// List はプロジェクト一覧を返す。
func (s *Service) List(ctx context.Context) ([]*model.Project, error) {
	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	return projects, nil
}

// ThreadLocator はプロジェクト内のコメントスレッドの位置指定。
// 全て省略するとプロジェクト全体のスレッドになる。
type ThreadLocator struct {
	SectionID  string
	DocumentID string
	Month      string
	Year       string
}

// AddComment はプロジェクトのスレッドにコメントを追加する。
// 通知のエンティティ関係者はプロジェクトのオーナーになる。
func (s *Service) AddComment(ctx context.Context, projectID string, loc ThreadLocator, authorID, body string) (*model.Comment, error) {
	project, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return s.comments.AddComment(ctx, comment.AddCommentInput{
		Thread:         notify.ProjectThread(project.ID, loc.SectionID, loc.DocumentID, loc.Month, loc.Year),
		AuthorID:       authorID,
		Body:           body,
		ContextTitle:   project.Name,
		EntityAuthorID: project.OwnerID,
		Link:           "/projects/" + project.ID,
		Metadata:       map[string]string{"project_id": project.ID},
	})
}

// ListComments はプロジェクトのスレッドのコメント一覧を返す。
func (s *Service) ListComments(ctx context.Context, projectID string, loc ThreadLocator) ([]*model.Comment, error) {
	project, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.comments.ListComments(ctx, notify.ProjectThread(project.ID, loc.SectionID, loc.DocumentID, loc.Month, loc.Year))
}
