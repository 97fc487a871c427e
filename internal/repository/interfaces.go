// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/bizman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// ListActive はinactive以外の全ユーザーを返す。
	// メンション解決のディレクトリとして使用される。
	ListActive(ctx context.Context) ([]*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するidentities、sessions、thread_subscriptions、notificationsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// ClientRepository は取引先データの永続化インターフェース。
type ClientRepository interface {
	// FindByID は指定IDの取引先を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Client, error)

	// Create は取引先を作成する。
	Create(ctx context.Context, client *model.Client) error

	// List は取引先一覧を作成日時昇順で返す。
	List(ctx context.Context) ([]*model.Client, error)
}

// ProjectRepository はプロジェクトデータの永続化インターフェース。
type ProjectRepository interface {
	// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Project, error)

	// Create はプロジェクトを作成する。
	Create(ctx context.Context, project *model.Project) error

	// List はプロジェクト一覧を作成日時昇順で返す。
	List(ctx context.Context) ([]*model.Project, error)
}

// TicketRepository はヘルプデスクチケットの永続化インターフェース。
type TicketRepository interface {
	// FindByID は指定IDのチケットを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Ticket, error)

	// Create はチケットを作成する。
	Create(ctx context.Context, ticket *model.Ticket) error

	// List はチケット一覧を作成日時降順で返す。
	List(ctx context.Context, limit int) ([]*model.Ticket, error)

	// UpdateStatus はチケットの状態を更新する。
	UpdateStatus(ctx context.Context, id string, status model.TicketStatus) error
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// ListByThread はスレッドのコメント一覧を作成日時昇順で返す。
	ListByThread(ctx context.Context, threadType, threadID string) ([]*model.Comment, error)
}

// ThreadSubscriptionRepository はスレッド購読の永続化インターフェース。
// 購読は追記専用で、削除操作は提供しない。
type ThreadSubscriptionRepository interface {
	// Upsert はスレッド購読を作成する。既に存在する場合は何もせず成功する。
	// UNIQUE(thread_type, thread_id, user_id)制約とON CONFLICT DO NOTHINGにより、
	// 同一キーへの同時・重複呼び出しに対して冪等である。
	Upsert(ctx context.Context, threadType, threadID, userID string) error

	// ListSubscribers はスレッドの購読者のユーザーID一覧を返す。
	ListSubscribers(ctx context.Context, threadType, threadID string) ([]string, error)
}

// NotificationRepository は通知データの永続化インターフェース。
// Createが通知パイプラインの「通知作成プリミティブ」に相当する。
type NotificationRepository interface {
	// Create は通知を1件作成する。
	Create(ctx context.Context, n *model.Notification) error

	// ListByRecipient は受信者の通知一覧を作成日時降順で返す。
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*model.Notification, error)

	// DeleteOlderThan は指定日数より古い通知を削除し、削除件数を返す。
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}
