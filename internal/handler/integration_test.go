package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/bizman/internal/client"
	"github.com/hitoshi/bizman/internal/comment"
	"github.com/hitoshi/bizman/internal/metrics"
	"github.com/hitoshi/bizman/internal/middleware"
	"github.com/hitoshi/bizman/internal/model"
	"github.com/hitoshi/bizman/internal/notification"
	"github.com/hitoshi/bizman/internal/notify"
	"github.com/hitoshi/bizman/internal/project"
	"github.com/hitoshi/bizman/internal/security"
	"github.com/hitoshi/bizman/internal/ticket"
)

// --- インメモリリポジトリ ---
// 実サービスをそのまま配線し、永続化層だけをメモリ実装に差し替える。

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func (r *memUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *memUserRepo) ListActive(ctx context.Context) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.User
	for _, u := range r.users {
		if u.Status != model.UserStatusInactive {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

type memTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*model.Ticket
}

func (r *memTicketRepo) FindByID(ctx context.Context, id string) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickets[id], nil
}

func (r *memTicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[t.ID] = t
	return nil
}

func (r *memTicketRepo) List(ctx context.Context, limit int) ([]*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Ticket
	for _, t := range r.tickets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memTicketRepo) UpdateStatus(ctx context.Context, id string, status model.TicketStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tickets[id]; ok {
		t.Status = status
		t.UpdatedAt = time.Now()
	}
	return nil
}

type memClientRepo struct {
	mu      sync.Mutex
	clients map[string]*model.Client
}

func (r *memClientRepo) FindByID(ctx context.Context, id string) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clients[id], nil
}

func (r *memClientRepo) Create(ctx context.Context, c *model.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
	return nil
}

func (r *memClientRepo) List(ctx context.Context) ([]*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Client
	for _, c := range r.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*model.Project
}

func (r *memProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.projects[id], nil
}

func (r *memProjectRepo) Create(ctx context.Context, p *model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p
	return nil
}

func (r *memProjectRepo) List(ctx context.Context) ([]*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Project
	for _, p := range r.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memCommentRepo struct {
	mu       sync.Mutex
	comments []*model.Comment
}

func (r *memCommentRepo) Create(ctx context.Context, c *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments = append(r.comments, c)
	return nil
}

func (r *memCommentRepo) ListByThread(ctx context.Context, threadType, threadID string) ([]*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Comment
	for _, c := range r.comments {
		if c.ThreadType == threadType && c.ThreadID == threadID {
			out = append(out, c)
		}
	}
	return out, nil
}

type memSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string][]string // threadType+"/"+threadID -> []userID（登録順）
}

func (r *memSubscriptionRepo) Upsert(ctx context.Context, threadType, threadID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := threadType + "/" + threadID
	for _, id := range r.subs[key] {
		if id == userID {
			return nil
		}
	}
	r.subs[key] = append(r.subs[key], userID)
	return nil
}

func (r *memSubscriptionRepo) ListSubscribers(ctx context.Context, threadType, threadID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.subs[threadType+"/"+threadID]...), nil
}

type memNotificationRepo struct {
	mu            sync.Mutex
	notifications []*model.Notification
}

func (r *memNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *memNotificationRepo) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memNotificationRepo) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	return 0, nil
}

// --- 統合テスト用のアプリケーション組み立て ---

type integrationApp struct {
	router   http.Handler
	users    *memUserRepo
	subs     *memSubscriptionRepo
	notifies *memNotificationRepo
}

// setupIntegrationApp は実サービス一式をインメモリリポジトリの上に組み立てる。
func setupIntegrationApp(t *testing.T) *integrationApp {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	userRepo := &memUserRepo{users: map[string]*model.User{
		"user-a": {ID: "user-a", Email: "alice@example.com", Name: "Alice Tanaka", Status: model.UserStatusActive},
		"user-b": {ID: "user-b", Email: "bob@example.com", Name: "Bob Suzuki", Status: model.UserStatusActive},
		"user-c": {ID: "user-c", Email: "carol@example.com", Name: "Carol Sato", Status: model.UserStatusActive},
	}}
	ticketRepo := &memTicketRepo{tickets: map[string]*model.Ticket{}}
	clientRepo := &memClientRepo{clients: map[string]*model.Client{}}
	projectRepo := &memProjectRepo{projects: map[string]*model.Project{}}
	commentRepo := &memCommentRepo{}
	subRepo := &memSubscriptionRepo{subs: map[string][]string{}}
	notificationRepo := &memNotificationRepo{}

	collector := metrics.NewCollector(prometheus.NewRegistry())
	resolver := notify.NewMentionResolver(userRepo)
	builder := notify.NewSubscriberSetBuilder(resolver, 4)
	dispatcher := notify.NewDispatcher(notificationRepo, collector, logger, 4)
	notifySvc := notify.NewService(resolver, builder, dispatcher, commentRepo, subRepo, collector, logger)

	commentSvc := comment.NewService(commentRepo, userRepo, security.NewContentSanitizer(), notifySvc, logger)
	ticketSvc := ticket.NewService(ticketRepo, commentSvc)
	projectSvc := project.NewService(projectRepo, commentSvc)
	clientSvc := client.NewService(clientRepo)
	notificationSvc := notification.NewService(notificationRepo)

	sessionFinder := &mockSessionFinderForRouter{
		sessions: map[string]*model.Session{
			"session-a": {ID: "session-a", UserID: "user-a", ExpiresAt: time.Now().Add(time.Hour)},
			"session-b": {ID: "session-b", UserID: "user-b", ExpiresAt: time.Now().Add(time.Hour)},
			"session-c": {ID: "session-c", UserID: "user-c", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}

	deps := &RouterDeps{
		SessionFinder:       sessionFinder,
		CORSAllowedOrigin:   "http://localhost:3000",
		RateLimiter:         middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig()),
		AuthService:         &mockAuthService{},
		AuthConfig:          AuthHandlerConfig{BaseURL: "http://localhost:3000", SessionMaxAge: 86400},
		ClientService:       NewClientServiceAdapter(clientSvc),
		ProjectService:      NewProjectServiceAdapter(projectSvc),
		TicketService:       NewTicketServiceAdapter(ticketSvc),
		NotificationService: notificationSvc,
		NotifyService:       notifySvc,
		UserService:         &mockUserService{},
	}

	return &integrationApp{
		router:   NewRouter(deps),
		users:    userRepo,
		subs:     subRepo,
		notifies: notificationRepo,
	}
}

// doJSON はセッション付きJSONリクエストを実行するヘルパー。
func (app *integrationApp) doJSON(t *testing.T, method, path, sessionID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	if method != http.MethodGet {
		req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "integration-csrf"})
		req.Header.Set("X-CSRF-Token", "integration-csrf")
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

// TestIntegration_TicketCommentNotificationFlow はチケット起票から
// コメント投稿、通知配送、購読登録までの一連の流れをHTTP経由で検証する。
func TestIntegration_TicketCommentNotificationFlow(t *testing.T) {
	app := setupIntegrationApp(t)

	// 1. user-a がチケットを起票する
	w := app.doJSON(t, http.MethodPost, "/api/tickets", "session-a", `{"subject":"サーバー移行"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("チケット作成 status = %d, body = %s", w.Code, w.Body.String())
	}
	var createdTicket ticketResponse
	if err := json.NewDecoder(w.Body).Decode(&createdTicket); err != nil {
		t.Fatalf("failed to decode ticket: %v", err)
	}

	// 2. user-b が @Carol Sato をメンションしてコメントする
	w = app.doJSON(t, http.MethodPost, "/api/tickets/"+createdTicket.ID+"/comments", "session-b",
		`{"body":"<p>@Carol Sato 確認お願いします</p>"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("コメント投稿 status = %d, body = %s", w.Code, w.Body.String())
	}

	// 3. 起票者 user-a に通知が届く
	w = app.doJSON(t, http.MethodGet, "/api/notifications", "session-a", "")
	if w.Code != http.StatusOK {
		t.Fatalf("通知一覧 status = %d", w.Code)
	}
	var aNotifications []notificationResponse
	if err := json.NewDecoder(w.Body).Decode(&aNotifications); err != nil {
		t.Fatalf("failed to decode notifications: %v", err)
	}
	if len(aNotifications) != 1 {
		t.Fatalf("user-a の通知数 = %d, want 1", len(aNotifications))
	}
	if aNotifications[0].Title != "Bob Suzukiがサーバー移行にコメントしました" {
		t.Errorf("Title = %q", aNotifications[0].Title)
	}
	if aNotifications[0].Link != "/tickets/"+createdTicket.ID {
		t.Errorf("Link = %q", aNotifications[0].Link)
	}

	// 4. メンションされた user-c にも通知が届く
	w = app.doJSON(t, http.MethodGet, "/api/notifications", "session-c", "")
	var cNotifications []notificationResponse
	if err := json.NewDecoder(w.Body).Decode(&cNotifications); err != nil {
		t.Fatalf("failed to decode notifications: %v", err)
	}
	if len(cNotifications) != 1 {
		t.Fatalf("user-c の通知数 = %d, want 1", len(cNotifications))
	}

	// 5. 投稿者 user-b 自身には通知が届かない
	w = app.doJSON(t, http.MethodGet, "/api/notifications", "session-b", "")
	var bNotifications []notificationResponse
	if err := json.NewDecoder(w.Body).Decode(&bNotifications); err != nil {
		t.Fatalf("failed to decode notifications: %v", err)
	}
	if len(bNotifications) != 0 {
		t.Errorf("user-b の通知数 = %d, want 0", len(bNotifications))
	}

	// 6. 投稿者と受信者全員がスレッド購読として登録される
	subs, _ := app.subs.ListSubscribers(context.Background(), "helpdesk", createdTicket.ID)
	wantSubs := map[string]bool{"user-a": true, "user-b": true, "user-c": true}
	if len(subs) != len(wantSubs) {
		t.Fatalf("購読者 = %v, want 3名", subs)
	}
	for _, id := range subs {
		if !wantSubs[id] {
			t.Errorf("予期しない購読者: %s", id)
		}
	}
}

// TestIntegration_PriorParticipantsReceiveFollowupComments は過去の
// コメント参加者が後続コメントの通知を受け取ることを検証する。
func TestIntegration_PriorParticipantsReceiveFollowupComments(t *testing.T) {
	app := setupIntegrationApp(t)

	w := app.doJSON(t, http.MethodPost, "/api/tickets", "session-a", `{"subject":"障害対応"}`)
	var createdTicket ticketResponse
	if err := json.NewDecoder(w.Body).Decode(&createdTicket); err != nil {
		t.Fatalf("failed to decode ticket: %v", err)
	}

	// user-b がコメント → user-c がコメント
	app.doJSON(t, http.MethodPost, "/api/tickets/"+createdTicket.ID+"/comments", "session-b", `{"body":"<p>一次調査中</p>"}`)
	w = app.doJSON(t, http.MethodPost, "/api/tickets/"+createdTicket.ID+"/comments", "session-c", `{"body":"<p>ログ確認しました</p>"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("2件目のコメント status = %d", w.Code)
	}

	// user-b は過去コメントの投稿者として2件目の通知を受け取る
	w = app.doJSON(t, http.MethodGet, "/api/notifications", "session-b", "")
	var bNotifications []notificationResponse
	if err := json.NewDecoder(w.Body).Decode(&bNotifications); err != nil {
		t.Fatalf("failed to decode notifications: %v", err)
	}
	if len(bNotifications) != 1 {
		t.Fatalf("user-b の通知数 = %d, want 1", len(bNotifications))
	}
	if !strings.Contains(bNotifications[0].Message, "ログ確認しました") {
		t.Errorf("Message = %q", bNotifications[0].Message)
	}

	// 起票者 user-a は両方のコメントの通知を受け取る
	w = app.doJSON(t, http.MethodGet, "/api/notifications", "session-a", "")
	var aNotifications []notificationResponse
	if err := json.NewDecoder(w.Body).Decode(&aNotifications); err != nil {
		t.Fatalf("failed to decode notifications: %v", err)
	}
	if len(aNotifications) != 2 {
		t.Errorf("user-a の通知数 = %d, want 2", len(aNotifications))
	}
}

// TestIntegration_ProjectThreadsAreIsolated はプロジェクトのスレッド座標が
// 異なればコメントが混ざらないことを検証する。
func TestIntegration_ProjectThreadsAreIsolated(t *testing.T) {
	app := setupIntegrationApp(t)

	w := app.doJSON(t, http.MethodPost, "/api/projects", "session-a", `{"name":"基幹システム刷新"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("プロジェクト作成 status = %d", w.Code)
	}
	var createdProject projectResponse
	if err := json.NewDecoder(w.Body).Decode(&createdProject); err != nil {
		t.Fatalf("failed to decode project: %v", err)
	}

	// 設計セクションと月次レポートに別々のコメントを投稿する
	app.doJSON(t, http.MethodPost, "/api/projects/"+createdProject.ID+"/comments", "session-b",
		`{"body":"<p>設計についての指摘</p>","section_id":"design"}`)
	app.doJSON(t, http.MethodPost, "/api/projects/"+createdProject.ID+"/comments", "session-b",
		`{"body":"<p>4月の報告です</p>","month":"04","year":"2026"}`)

	// 設計スレッドには設計コメントだけが見える
	w = app.doJSON(t, http.MethodGet, "/api/projects/"+createdProject.ID+"/comments?section_id=design", "session-a", "")
	var designComments []commentResponse
	if err := json.NewDecoder(w.Body).Decode(&designComments); err != nil {
		t.Fatalf("failed to decode comments: %v", err)
	}
	if len(designComments) != 1 || !strings.Contains(designComments[0].Body, "設計についての指摘") {
		t.Errorf("設計スレッドのコメント = %+v", designComments)
	}

	// 月次スレッドには月次コメントだけが見える
	w = app.doJSON(t, http.MethodGet, "/api/projects/"+createdProject.ID+"/comments?month=04&year=2026", "session-a", "")
	var monthlyComments []commentResponse
	if err := json.NewDecoder(w.Body).Decode(&monthlyComments); err != nil {
		t.Fatalf("failed to decode comments: %v", err)
	}
	if len(monthlyComments) != 1 || !strings.Contains(monthlyComments[0].Body, "4月の報告です") {
		t.Errorf("月次スレッドのコメント = %+v", monthlyComments)
	}
}

// TestIntegration_CommentBodyIsSanitized は投稿されたHTMLが
// サニタイズされて保存・返却されることを検証する。
func TestIntegration_CommentBodyIsSanitized(t *testing.T) {
	app := setupIntegrationApp(t)

	w := app.doJSON(t, http.MethodPost, "/api/tickets", "session-a", `{"subject":"XSSチェック"}`)
	var createdTicket ticketResponse
	if err := json.NewDecoder(w.Body).Decode(&createdTicket); err != nil {
		t.Fatalf("failed to decode ticket: %v", err)
	}

	w = app.doJSON(t, http.MethodPost, "/api/tickets/"+createdTicket.ID+"/comments", "session-b",
		`{"body":"<p>本文<script>alert(1)</script></p>"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("コメント投稿 status = %d", w.Code)
	}

	var created commentResponse
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode comment: %v", err)
	}
	if strings.Contains(created.Body, "<script>") {
		t.Errorf("scriptタグが除去されていない: %q", created.Body)
	}
	if !strings.Contains(created.Body, "本文") {
		t.Errorf("本文テキストが失われている: %q", created.Body)
	}

	// タグだけのコメントは拒否される
	w = app.doJSON(t, http.MethodPost, "/api/tickets/"+createdTicket.ID+"/comments", "session-b",
		`{"body":"<script>alert(1)</script>"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("空コメント status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// TestIntegration_ClientCRUD は取引先の作成・取得・一覧をHTTP経由で検証する。
func TestIntegration_ClientCRUD(t *testing.T) {
	app := setupIntegrationApp(t)

	w := app.doJSON(t, http.MethodPost, "/api/clients", "session-a", `{"name":"株式会社Example","email":"info@example.co.jp"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("取引先作成 status = %d", w.Code)
	}
	var created clientResponse
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode client: %v", err)
	}

	w = app.doJSON(t, http.MethodGet, "/api/clients/"+created.ID, "session-b", "")
	if w.Code != http.StatusOK {
		t.Errorf("取引先取得 status = %d", w.Code)
	}

	w = app.doJSON(t, http.MethodGet, "/api/clients", "session-b", "")
	var clients []clientResponse
	if err := json.NewDecoder(w.Body).Decode(&clients); err != nil {
		t.Fatalf("failed to decode clients: %v", err)
	}
	if len(clients) != 1 || clients[0].Name != "株式会社Example" {
		t.Errorf("clients = %+v", clients)
	}

	// 存在しない取引先は404
	w = app.doJSON(t, http.MethodGet, "/api/clients/missing", "session-a", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("存在しない取引先 status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// TestIntegration_MentionResolveEndpoint はメンション解決APIを検証する。
func TestIntegration_MentionResolveEndpoint(t *testing.T) {
	app := setupIntegrationApp(t)

	w := app.doJSON(t, http.MethodPost, "/api/mentions/resolve", "session-a", `{"text":"@Bob Suzuki と @carol に連絡"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var got resolveMentionsResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	want := []string{"user-b", "user-c"}
	if len(got.UserIDs) != 2 || got.UserIDs[0] != want[0] || got.UserIDs[1] != want[1] {
		t.Errorf("user_ids = %v, want %v", got.UserIDs, want)
	}
}
