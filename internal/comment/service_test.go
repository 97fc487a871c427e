package comment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hitoshi/bizman/internal/model"
	"github.com/hitoshi/bizman/internal/notify"
)

// --- モック ---

type mockCommentRepo struct {
	createFn       func(ctx context.Context, c *model.Comment) error
	listByThreadFn func(ctx context.Context, threadType, threadID string) ([]*model.Comment, error)
}

func (m *mockCommentRepo) Create(ctx context.Context, c *model.Comment) error {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	return nil
}
func (m *mockCommentRepo) ListByThread(ctx context.Context, threadType, threadID string) ([]*model.Comment, error) {
	if m.listByThreadFn != nil {
		return m.listByThreadFn(ctx, threadType, threadID)
	}
	return nil, nil
}

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.User{ID: id, Name: "投稿者"}, nil
}
func (m *mockUserRepo) ListActive(ctx context.Context) ([]*model.User, error) { return nil, nil }
func (m *mockUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	return nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error { return nil }

type mockSanitizer struct{}

func (m *mockSanitizer) Sanitize(raw string) string {
	// scriptタグだけ落とす簡易サニタイズ
	if i := strings.Index(raw, "<script>"); i >= 0 {
		return raw[:i]
	}
	return raw
}

type mockNotifier struct {
	notifyFn func(ctx context.Context, input notify.CommentNotificationInput) error
	calls    []notify.CommentNotificationInput
}

func (m *mockNotifier) NotifyCommentParticipants(ctx context.Context, input notify.CommentNotificationInput) error {
	m.calls = append(m.calls, input)
	if m.notifyFn != nil {
		return m.notifyFn(ctx, input)
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestService(commentRepo *mockCommentRepo, notifier *mockNotifier) *Service {
	return NewService(commentRepo, &mockUserRepo{}, &mockSanitizer{}, notifier, testLogger())
}

// --- テスト ---

// TestAddComment_PersistsAndNotifies はコメントが保存され、
// 通知パイプラインが起動されることを検証する。
func TestAddComment_PersistsAndNotifies(t *testing.T) {
	var created *model.Comment
	commentRepo := &mockCommentRepo{
		createFn: func(ctx context.Context, c *model.Comment) error {
			created = c
			return nil
		},
	}
	notifier := &mockNotifier{}
	svc := newTestService(commentRepo, notifier)

	got, err := svc.AddComment(context.Background(), AddCommentInput{
		Thread:         notify.TicketThread("t1"),
		AuthorID:       "u1",
		Body:           "<p>対応しました</p>",
		ContextTitle:   "サーバー障害",
		EntityAuthorID: "u2",
		Link:           "/tickets/t1",
	})
	if err != nil {
		t.Fatalf("AddComment returned error: %v", err)
	}

	if created == nil {
		t.Fatal("コメントが保存されていない")
	}
	if created.ThreadType != "helpdesk" || created.ThreadID != "t1" {
		t.Errorf("保存されたスレッド = (%q, %q), want (helpdesk, t1)", created.ThreadType, created.ThreadID)
	}
	if got.ID != created.ID {
		t.Error("返却されたコメントが保存されたものと異なる")
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("通知パイプライン呼び出し回数 = %d, want 1", len(notifier.calls))
	}
	call := notifier.calls[0]
	if call.CommentID != created.ID || call.CommentAuthorID != "u1" {
		t.Errorf("通知入力が不正: %+v", call)
	}
	if call.AuthorName != "投稿者" || call.ContextTitle != "サーバー障害" {
		t.Errorf("通知の表示情報が不正: %+v", call)
	}
}

// TestAddComment_NotifyFailureDoesNotFailWrite は通知パイプラインの失敗が
// コメント書き込みの応答に影響しないことを検証する。
func TestAddComment_NotifyFailureDoesNotFailWrite(t *testing.T) {
	notifier := &mockNotifier{
		notifyFn: func(ctx context.Context, input notify.CommentNotificationInput) error {
			return errors.New("pipeline down")
		},
	}
	svc := newTestService(&mockCommentRepo{}, notifier)

	got, err := svc.AddComment(context.Background(), AddCommentInput{
		Thread:   notify.TicketThread("t1"),
		AuthorID: "u1",
		Body:     "本文",
	})
	if err != nil {
		t.Fatalf("通知失敗がコメント書き込みのエラーとして返った: %v", err)
	}
	if got == nil {
		t.Fatal("コメントが返却されていない")
	}
}

// TestAddComment_EmptyBodyRejected はタグ除去後に空となる本文が
// 拒否されることを検証する。
func TestAddComment_EmptyBodyRejected(t *testing.T) {
	notifier := &mockNotifier{}
	svc := newTestService(&mockCommentRepo{}, notifier)

	for _, body := range []string{"", "   ", "<script>alert(1)</script>"} {
		_, err := svc.AddComment(context.Background(), AddCommentInput{
			Thread:   notify.TicketThread("t1"),
			AuthorID: "u1",
			Body:     body,
		})
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCommentEmpty {
			t.Errorf("AddComment(body=%q) error = %v, want COMMENT_EMPTY", body, err)
		}
	}
	if len(notifier.calls) != 0 {
		t.Error("拒否された本文で通知パイプラインが起動された")
	}
}

// TestAddComment_InvalidThreadRejected はスレッド参照なしの投稿が
// 拒否されることを検証する。
func TestAddComment_InvalidThreadRejected(t *testing.T) {
	svc := newTestService(&mockCommentRepo{}, &mockNotifier{})

	_, err := svc.AddComment(context.Background(), AddCommentInput{
		AuthorID: "u1",
		Body:     "本文",
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidThread {
		t.Errorf("error = %v, want INVALID_THREAD", err)
	}
}

// TestAddComment_UnknownAuthorRejected は存在しない投稿者の投稿が
// 拒否されることを検証する。
func TestAddComment_UnknownAuthorRejected(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}
	svc := NewService(&mockCommentRepo{}, userRepo, &mockSanitizer{}, &mockNotifier{}, testLogger())

	_, err := svc.AddComment(context.Background(), AddCommentInput{
		Thread:   notify.TicketThread("t1"),
		AuthorID: "ghost",
		Body:     "本文",
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("error = %v, want USER_NOT_FOUND", err)
	}
}

// TestAddComment_CreateFailureReturned はコメント保存の失敗が
// エラーとして返り、通知が起動されないことを検証する。
func TestAddComment_CreateFailureReturned(t *testing.T) {
	wantErr := errors.New("insert failed")
	commentRepo := &mockCommentRepo{
		createFn: func(ctx context.Context, c *model.Comment) error {
			return wantErr
		},
	}
	notifier := &mockNotifier{}
	svc := newTestService(commentRepo, notifier)

	_, err := svc.AddComment(context.Background(), AddCommentInput{
		Thread:   notify.TicketThread("t1"),
		AuthorID: "u1",
		Body:     "本文",
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want wrapping %v", err, wantErr)
	}
	if len(notifier.calls) != 0 {
		t.Error("保存失敗後に通知パイプラインが起動された")
	}
}

// TestListComments_ReturnsThreadComments はスレッドのコメント一覧取得を検証する。
func TestListComments_ReturnsThreadComments(t *testing.T) {
	commentRepo := &mockCommentRepo{
		listByThreadFn: func(ctx context.Context, threadType, threadID string) ([]*model.Comment, error) {
			if threadType != "project" {
				t.Errorf("threadType = %q, want project", threadType)
			}
			return []*model.Comment{{ID: "c1"}, {ID: "c2"}}, nil
		},
	}
	svc := newTestService(commentRepo, &mockNotifier{})

	got, err := svc.ListComments(context.Background(), notify.ProjectThread("p1", "", "", "", ""))
	if err != nil {
		t.Fatalf("ListComments returned error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len(comments) = %d, want 2", len(got))
	}
}
