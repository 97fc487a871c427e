package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/bizman/internal/middleware"
	"github.com/hitoshi/bizman/internal/model"
)

// NotificationServiceInterface は通知ハンドラーが必要とするサービスインターフェース。
type NotificationServiceInterface interface {
	// List は受信者の通知一覧を新しい順に返す。
	List(ctx context.Context, recipientID string, limit int) ([]*model.Notification, error)
}

// NotificationHandler は通知閲覧のHTTPハンドラー。
// 通知の作成は配送パイプライン経由でのみ行われるため、読み取り専用。
type NotificationHandler struct {
	service NotificationServiceInterface
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{
		service: service,
	}
}

// notificationResponse は通知情報のAPIレスポンス。
type notificationResponse struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Link      string            `json:"link"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// List はログイン中ユーザーの通知一覧を取得する。
// GET /api/notifications?limit=50
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	limit := parseLimitQuery(r, 0)
	notifications, err := h.service.List(r.Context(), userID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]notificationResponse, len(notifications))
	for i, n := range notifications {
		results[i] = notificationResponse{
			ID:        n.ID,
			Kind:      string(n.Kind),
			Title:     n.Title,
			Message:   n.Message,
			Link:      n.Link,
			Metadata:  n.Metadata,
			CreatedAt: n.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}
