// Package client は取引先管理のドメインロジックを提供する。
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bizman/internal/model"
	"github.com/hitoshi/bizman/internal/repository"
)

// Service は取引先管理のサービス層。
type Service struct {
	clientRepo repository.ClientRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(clientRepo repository.ClientRepository) *Service {
	return &Service{clientRepo: clientRepo}
}

// CreateClientInput はCreateへの入力。
type CreateClientInput struct {
	Name  string
	Email string
	Phone string
	Note  string
}

// Create は取引先を作成する。
func (s *Service) Create(ctx context.Context, input CreateClientInput) (*model.Client, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("取引先名は必須です")
	}

	now := time.Now()
	client := &model.Client{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Note:      input.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("取引先の作成に失敗しました: %w", err)
	}
	return client, nil
}

// Get は指定IDの取引先を返す。
func (s *Service) Get(ctx context.Context, clientID string) (*model.Client, error) {
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("取引先の取得に失敗しました: %w", err)
	}
	if client == nil {
		return nil, model.NewClientNotFoundError(clientID)
	}
	return client, nil
}

// List は取引先一覧を返す。
func (s *Service) List(ctx context.Context) ([]*model.Client, error) {
	clients, err := s.clientRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("取引先一覧の取得に失敗しました: %w", err)
	}
	return clients, nil
}
