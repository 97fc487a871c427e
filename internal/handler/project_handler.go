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

// ProjectServiceInterface はプロジェクトハンドラーが必要とするサービスインターフェース。
type ProjectServiceInterface interface {
	// Create はプロジェクトを作成する。
	Create(ctx context.Context, input projectCreateInput) (*model.Project, error)
	// Get はプロジェクトを取得する。
	Get(ctx context.Context, projectID string) (*model.Project, error)
	// List はプロジェクト一覧を新しい順に返す。
	List(ctx context.Context) ([]*model.Project, error)
	// AddComment はプロジェクトスレッドにコメントを追加し、通知パイプラインを起動する。
	AddComment(ctx context.Context, projectID string, loc projectThreadLocator, authorID, body string) (*model.Comment, error)
	// ListComments はプロジェクトスレッドのコメントを古い順に返す。
	ListComments(ctx context.Context, projectID string, loc projectThreadLocator) ([]*model.Comment, error)
}

// projectCreateInput はハンドラーからサービスへ渡すプロジェクト作成入力。
type projectCreateInput struct {
	ClientID string
	OwnerID  string
	Name     string
}

// projectThreadLocator はプロジェクト内のコメントスレッドを特定する座標。
// すべて省略可能で、省略された軸はスレッドキー上で区別される。
type projectThreadLocator struct {
	SectionID  string
	DocumentID string
	Month      string
	Year       string
}

// ProjectHandler はプロジェクト管理のHTTPハンドラー。
type ProjectHandler struct {
	service ProjectServiceInterface
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(service ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{
		service: service,
	}
}

// createProjectRequest はプロジェクト作成リクエストのボディ。
type createProjectRequest struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
}

// addProjectCommentRequest はプロジェクトコメント追加リクエストのボディ。
// section_id以下はスレッド座標で、省略可能。
type addProjectCommentRequest struct {
	Body       string `json:"body"`
	SectionID  string `json:"section_id"`
	DocumentID string `json:"document_id"`
	Month      string `json:"month"`
	Year       string `json:"year"`
}

// projectResponse はプロジェクト情報のAPIレスポンス。
type projectResponse struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id,omitempty"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Create はプロジェクト作成を処理する。作成者がオーナーになる。
// POST /api/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBodyResponse(w)
		return
	}

	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "プロジェクト名は必須です。",
			Category: "validation",
			Action:   "nameを指定してください。",
		})
		return
	}

	project, err := h.service.Create(r.Context(), projectCreateInput{
		ClientID: req.ClientID,
		OwnerID:  userID,
		Name:     req.Name,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toProjectResponse(project))
}

// Get はプロジェクト詳細を取得する。
// GET /api/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	projectID := chi.URLParam(r, "id")
	project, err := h.service.Get(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProjectResponse(project))
}

// List はプロジェクト一覧を取得する。
// GET /api/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	projects, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]projectResponse, len(projects))
	for i, p := range projects {
		results[i] = toProjectResponse(p)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// AddComment はプロジェクトスレッドへのコメント追加を処理する。
// スレッド座標（section_id/document_id/month/year）ごとに独立したスレッドになる。
// POST /api/projects/{id}/comments
func (h *ProjectHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	projectID := chi.URLParam(r, "id")

	var req addProjectCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBodyResponse(w)
		return
	}

	loc := projectThreadLocator{
		SectionID:  req.SectionID,
		DocumentID: req.DocumentID,
		Month:      req.Month,
		Year:       req.Year,
	}

	comment, err := h.service.AddComment(r.Context(), projectID, loc, userID, req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toCommentResponse(comment))
}

// ListComments はプロジェクトスレッドのコメント一覧を取得する。
// スレッド座標はクエリパラメータで指定する。
// GET /api/projects/{id}/comments?section_id=...&document_id=...&month=...&year=...
func (h *ProjectHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	projectID := chi.URLParam(r, "id")
	q := r.URL.Query()
	loc := projectThreadLocator{
		SectionID:  q.Get("section_id"),
		DocumentID: q.Get("document_id"),
		Month:      q.Get("month"),
		Year:       q.Get("year"),
	}

	comments, err := h.service.ListComments(r.Context(), projectID, loc)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]commentResponse, len(comments))
	for i, c := range comments {
		results[i] = toCommentResponse(c)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// toProjectResponse はドメインのProjectをAPIレスポンス型に変換する。
func toProjectResponse(p *model.Project) projectResponse {
	return projectResponse{
		ID:        p.ID,
		ClientID:  p.ClientID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
