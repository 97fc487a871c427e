package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/bizman/internal/middleware"
	"github.com/hitoshi/bizman/internal/model"
	"github.com/hitoshi/bizman/internal/notify"
)

// NotifyServiceInterface は通知パイプラインハンドラーが必要とするサービスインターフェース。
type NotifyServiceInterface interface {
	// ResolveMentionedUserIDs は本文中の@メンションをユーザーIDに解決する。
	ResolveMentionedUserIDs(ctx context.Context, text string) ([]string, error)
	// NotifyCommentParticipants はコメント参加者への通知パイプラインを実行する。
	NotifyCommentParticipants(ctx context.Context, input notify.CommentNotificationInput) error
}

// NotifyHandler はメンション解決と通知配送のHTTPハンドラー。
// チケット・プロジェクトのコメントAPIは内部でこのパイプラインを呼ぶため、
// このハンドラーは入力プレビューや外部連携向けの直接入口として機能する。
type NotifyHandler struct {
	service NotifyServiceInterface
}

// NewNotifyHandler はNotifyHandlerを生成する。
func NewNotifyHandler(service NotifyServiceInterface) *NotifyHandler {
	return &NotifyHandler{
		service: service,
	}
}

// resolveMentionsRequest はメンション解決リクエストのボディ。
type resolveMentionsRequest struct {
	Text string `json:"text"`
}

// resolveMentionsResponse はメンション解決結果のレスポンス。
type resolveMentionsResponse struct {
	UserIDs []string `json:"user_ids"`
}

// notifyCommentRequest はコメント通知配送リクエストのボディ。
type notifyCommentRequest struct {
	ThreadType      string            `json:"thread_type"`
	ThreadID        string            `json:"thread_id"`
	CommentID       string            `json:"comment_id"`
	CommentAuthorID string            `json:"comment_author_id"`
	CommentText     string            `json:"comment_text"`
	AuthorName      string            `json:"author_name"`
	ContextTitle    string            `json:"context_title"`
	EntityAuthorID  string            `json:"entity_author_id"`
	Link            string            `json:"link"`
	Metadata        map[string]string `json:"metadata"`
}

// ResolveMentions は本文中の@メンションをユーザーIDに解決する。
// コメント投稿前のプレビュー用途を想定している。
// POST /api/mentions/resolve
func (h *NotifyHandler) ResolveMentions(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req resolveMentionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBodyResponse(w)
		return
	}

	userIDs, err := h.service.ResolveMentionedUserIDs(r.Context(), req.Text)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resolveMentionsResponse{UserIDs: userIDs})
}

// NotifyComment はコメント通知パイプラインを直接起動する。
// 既に永続化済みのコメントについて、購読登録と参加者への配送のみを行う。
// POST /api/notify/comment
func (h *NotifyHandler) NotifyComment(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req notifyCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBodyResponse(w)
		return
	}

	if missing := firstMissingNotifyField(req); missing != "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  missing + "は必須です。",
			Category: "validation",
			Action:   missing + "を指定してください。",
		})
		return
	}

	input := notify.CommentNotificationInput{
		Thread:          notify.TrackerThread(req.ThreadType, req.ThreadID),
		CommentID:       req.CommentID,
		CommentAuthorID: req.CommentAuthorID,
		CommentText:     req.CommentText,
		AuthorName:      req.AuthorName,
		ContextTitle:    req.ContextTitle,
		EntityAuthorID:  req.EntityAuthorID,
		Link:            req.Link,
		Metadata:        req.Metadata,
	}

	if err := h.service.NotifyCommentParticipants(r.Context(), input); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// firstMissingNotifyField は必須フィールドの欠落を検査し、
// 最初に見つかったフィールド名を返す。欠落がなければ空文字列。
func firstMissingNotifyField(req notifyCommentRequest) string {
	switch {
	case req.ThreadType == "":
		return "thread_type"
	case req.ThreadID == "":
		return "thread_id"
	case req.CommentAuthorID == "":
		return "comment_author_id"
	case req.CommentText == "":
		return "comment_text"
	case req.AuthorName == "":
		return "author_name"
	case req.ContextTitle == "":
		return "context_title"
	}
	return ""
}
