package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bizman/internal/middleware"
	"github.com/hitoshi/bizman/internal/model"
)

// TicketServiceInterface はチケットハンドラーが必要とするサービスインターフェース。
type TicketServiceInterface interface {
	// Create はチケットを作成する。
	Create(ctx context.Context, input ticketCreateInput) (*model.Ticket, error)
	// Get はチケットを取得する。
	Get(ctx context.Context, ticketID string) (*model.Ticket, error)
	// List はチケット一覧を新しい順に返す。
	List(ctx context.Context, limit int) ([]*model.Ticket, error)
	// UpdateStatus はチケットの状態を更新する。
	UpdateStatus(ctx context.Context, ticketID string, status model.TicketStatus) (*model.Ticket, error)
	// AddComment はチケットスレッドにコメントを追加し、通知パイプラインを起動する。
	AddComment(ctx context.Context, ticketID, authorID, body string) (*model.Comment, error)
	// ListComments はチケットスレッドのコメントを古い順に返す。
	ListComments(ctx context.Context, ticketID string) ([]*model.Comment, error)
}

// ticketCreateInput はハンドラーからサービスへ渡すチケット作成入力。
type ticketCreateInput struct {
	ClientID   string
	AuthorID   string
	AssigneeID string
	Subject    string
}

// TicketHandler はヘルプデスクチケットのHTTPハンドラー。
type TicketHandler struct {
	service TicketServiceInterface
}

// NewTicketHandler はTicketHandlerを生成する。
func NewTicketHandler(service TicketServiceInterface) *TicketHandler {
	return &TicketHandler{
		service: service,
	}
}

// createTicketRequest はチケット作成リクエストのボディ。
type createTicketRequest struct {
	ClientID   string `json:"client_id"`
	AssigneeID string `json:"assignee_id"`
	Subject    string `json:"subject"`
}

// updateTicketStatusRequest はチケット状態更新リクエストのボディ。
type updateTicketStatusRequest struct {
	Status string `json:"status"`
}

// addCommentRequest はコメント追加リクエストのボディ。
// チケット・プロジェクト共通。
type addCommentRequest struct {
	Body string `json:"body"`
}

// ticketResponse はチケット情報のAPIレスポンス。
type ticketResponse struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id,omitempty"`
	AuthorID   string    `json:"author_id"`
	AssigneeID string    `json:"assignee_id,omitempty"`
	Subject    string    `json:"subject"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// commentResponse はコメント情報のAPIレスポンス。
// チケット・プロジェクト共通。
type commentResponse struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// Create はチケット起票を処理する。
// POST /api/tickets
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req createTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBodyResponse(w)
		return
	}

	if req.Subject == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "件名は必須です。",
			Category: "validation",
			Action:   "subjectを指定してください。",
		})
		return
	}

	ticket, err := h.service.Create(r.Context(), ticketCreateInput{
		ClientID:   req.ClientID,
		AuthorID:   userID,
		AssigneeID: req.AssigneeID,
		Subject:    req.Subject,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toTicketResponse(ticket))
}

// Get はチケット詳細を取得する。
// GET /api/tickets/{id}
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	ticketID := chi.URLParam(r, "id")
	ticket, err := h.service.Get(r.Context(), ticketID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTicketResponse(ticket))
}

// List はチケット一覧を取得する。
// GET /api/tickets?limit=50
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	limit := parseLimitQuery(r, 0)
	tickets, err := h.service.List(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]ticketResponse, len(tickets))
	for i, t := range tickets {
		results[i] = toTicketResponse(t)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// UpdateStatus はチケットの状態を更新する。
// PATCH /api/tickets/{id}/status
func (h *TicketHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	ticketID := chi.URLParam(r, "id")

	var req updateTicketStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBodyResponse(w)
		return
	}

	ticket, err := h.service.UpdateStatus(r.Context(), ticketID, model.TicketStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTicketResponse(ticket))
}

// AddComment はチケットスレッドへのコメント追加を処理する。
// コメントの永続化後、参加者・メンション先への通知が非同期に配送される。
// POST /api/tickets/{id}/comments
func (h *TicketHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	ticketID := chi.URLParam(r, "id")

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBodyResponse(w)
		return
	}

	comment, err := h.service.AddComment(r.Context(), ticketID, userID, req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toCommentResponse(comment))
}

// ListComments はチケットスレッドのコメント一覧を取得する。
// GET /api/tickets/{id}/comments
func (h *TicketHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	ticketID := chi.URLParam(r, "id")
	comments, err := h.service.ListComments(r.Context(), ticketID)
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

// toTicketResponse はドメインのTicketをAPIレスポンス型に変換する。
func toTicketResponse(t *model.Ticket) ticketResponse {
	return ticketResponse{
		ID:         t.ID,
		ClientID:   t.ClientID,
		AuthorID:   t.AuthorID,
		AssigneeID: t.AssigneeID,
		Subject:    t.Subject,
		Status:     string(t.Status),
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

// toCommentResponse はドメインのCommentをAPIレスポンス型に変換する。
func toCommentResponse(c *model.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		ThreadID:  c.ThreadID,
		AuthorID:  c.AuthorID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
}

// parseLimitQuery はlimitクエリパラメータを解析する。
// 未指定・不正値の場合はdefaultLimitを返す（0はサービス層のデフォルトに委ねる）。
func parseLimitQuery(r *http.Request, defaultLimit int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return defaultLimit
	}
	return limit
}

// writeUnauthorizedResponse は認証エラーレスポンスを書き込む。
func writeUnauthorizedResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// writeInvalidRequestBodyResponse はリクエストボディ解析エラーレスポンスを書き込む。
func writeInvalidRequestBodyResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeClientNotFound,
		model.ErrCodeProjectNotFound,
		model.ErrCodeTicketNotFound,
		model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeCommentEmpty, model.ErrCodeInvalidThread:
		return http.StatusBadRequest
	case "RATE_LIMITED":
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
