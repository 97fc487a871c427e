package notify

import (
	"context"
	"fmt"
	"sync"
)

// CommentEvent は受信者集合の構築に必要なコメント投稿イベントの情報。
type CommentEvent struct {
	// CommentAuthorID は今回のコメントの投稿者。受信者からは必ず除外される。
	CommentAuthorID string
	// CommentText は今回のコメント本文（プレーンテキスト）。
	CommentText string
	// EntityAuthorID はスレッドが属するエンティティの作成者・担当者。
	// 未割り当ての場合は空文字列。
	EntityAuthorID string
	// PriorCommentAuthorIDs は過去コメントの投稿者ID一覧。
	PriorCommentAuthorIDs []string
	// PriorCommentTexts は過去コメントの本文一覧（プレーンテキスト）。
	PriorCommentTexts []string
}

// SubscriberSetBuilder はコメントイベントから通知の受信者集合を構築する。
// ストアへの読み書きは一切行わない純粋な集合演算で、
// メンション解決のみMentionResolverに委譲する。
type SubscriberSetBuilder struct {
	resolver      *MentionResolver
	maxConcurrent int
}

// NewSubscriberSetBuilder はSubscriberSetBuilderを生成する。
// maxConcurrentは過去コメント本文のメンション解決の最大並列数。
// 0以下の場合は1として扱う。
func NewSubscriberSetBuilder(resolver *MentionResolver, maxConcurrent int) *SubscriberSetBuilder {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &SubscriberSetBuilder{
		resolver:      resolver,
		maxConcurrent: maxConcurrent,
	}
}

// BuildRecipients は通知の受信者となるユーザーID集合を返す。
//
// 集合は {エンティティ作成者} ∪ {過去コメント投稿者} ∪
// {今回本文のメンション} ∪ {過去本文のメンション} から
// 空文字列を捨て、最後に投稿者自身を無条件に除いたもの。
// 結果が空の場合は空のスライスを返し、呼び出し側は配送をスキップする。
//
// 過去本文のメンション解決はsemaphoreパターンで並列数を制御しながら
// 並行実行し、全件の完了を待つ。いずれかの解決が失敗した場合はエラーを返す。
func (b *SubscriberSetBuilder) BuildRecipients(ctx context.Context, event CommentEvent) ([]string, error) {
	mentions, err := b.resolver.ResolveMentions(ctx, event.CommentText)
	if err != nil {
		return nil, fmt.Errorf("コメント本文のメンション解決に失敗しました: %w", err)
	}

	priorMentions, err := b.resolvePriorMentions(ctx, event.PriorCommentTexts)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var recipients []string
	add := func(userID string) {
		if userID == "" || userID == event.CommentAuthorID || seen[userID] {
			return
		}
		seen[userID] = true
		recipients = append(recipients, userID)
	}

	add(event.EntityAuthorID)
	for _, id := range event.PriorCommentAuthorIDs {
		add(id)
	}
	for _, id := range mentions {
		add(id)
	}
	for _, id := range priorMentions {
		add(id)
	}

	if recipients == nil {
		recipients = []string{}
	}
	return recipients, nil
}

// resolvePriorMentions は過去コメント本文のメンションを並行解決し、
// 入力順を保った結果を連結して返す。空のテキストはスキップする。
func (b *SubscriberSetBuilder) resolvePriorMentions(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]string, len(texts))
	errs := make([]error, len(texts))

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, b.maxConcurrent)
	var wg sync.WaitGroup

	for i, text := range texts {
		if text == "" {
			continue
		}
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）
		go func(i int, text string) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放
			results[i], errs[i] = b.resolver.ResolveMentions(ctx, text)
		}(i, text)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("過去コメントのメンション解決に失敗しました: %w", err)
		}
	}

	var merged []string
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged, nil
}
