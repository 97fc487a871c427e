package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bizman/internal/middleware"
	"github.com/hitoshi/bizman/internal/model"
)

// ClientServiceInterface は取引先ハンドラーが必要とするサービスインターフェース。
type ClientServiceInterface interface {
	// Create は取引先を作成する。
	Create(ctx context.Context, input clientCreateInput) (*model.Client, error)
	// Get は取引先を取得する。
	Get(ctx context.Context, clientID string) (*model.Client, error)
	// List は取引先一覧を名前順に返す。
	List(ctx context.Context) ([]*model.Client, error)
}

// clientCreateInput はハンドラーからサービスへ渡す取引先作成入力。
type clientCreateInput struct {
	Name  string
	Email string
	Phone string
	Note  string
}

// ClientHandler は取引先管理のHTTPハンドラー。
type ClientHandler struct {
	service ClientServiceInterface
}

// NewClientHandler はClientHandlerを生成する。
func NewClientHandler(service ClientServiceInterface) *ClientHandler {
	return &ClientHandler{
		service: service,
	}
}

// createClientRequest は取引先作成リクエストのボディ。
type createClientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Note  string `json:"note"`
}

// clientResponse は取引先情報のAPIレスポンス。
type clientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Create は取引先登録を処理する。
// POST /api/clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBodyResponse(w)
		return
	}

	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "取引先名は必須です。",
			Category: "validation",
			Action:   "nameを指定してください。",
		})
		return
	}

	client, err := h.service.Create(r.Context(), clientCreateInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Note:  req.Note,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toClientResponse(client))
}

// Get は取引先詳細を取得する。
// GET /api/clients/{id}
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	clientID := chi.URLParam(r, "id")
	client, err := h.service.Get(r.Context(), clientID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toClientResponse(client))
}

// List は取引先一覧を取得する。
// GET /api/clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	clients, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]clientResponse, len(clients))
	for i, c := range clients {
		results[i] = toClientResponse(c)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// toClientResponse はドメインのClientをAPIレスポンス型に変換する。
func toClientResponse(c *model.Client) clientResponse {
	return clientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Note:      c.Note,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
