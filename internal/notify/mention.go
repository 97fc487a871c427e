// Package notify はコメント投稿に伴う通知パイプラインを提供する。
//
// パイプラインは4つの段階からなる:
//  1. メンション解決（MentionResolver）: コメント本文の@メンションを
//     ユーザーIDに解決する。
//  2. 購読登録（ThreadSubscriptionRepository.Upsert）: スレッドの参加者を
//     追記専用の購読レジストリに登録する。
//  3. 受信者集合の構築（BuildRecipients）: 参加者とメンションの和集合から
//     投稿者自身を除いた受信者集合を決定する。
//  4. 配送（Dispatcher）: 受信者ごとに通知を並行作成する。
package notify

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hitoshi/bizman/internal/model"
)

// UserDirectory はメンション解決の候補となるユーザー一覧を提供する。
// repository.UserRepositoryのListActiveがこれを満たす。
type UserDirectory interface {
	// ListActive はinactive以外の全ユーザーをID昇順で返す。
	ListActive(ctx context.Context) ([]*model.User, error)
}

// mentionPattern は@メンショントークンを抽出する。
// トークンは@に続く英数字・ピリオド・アンダースコア・ハイフンの語の並びで、
// 語の区切りは半角スペース1つ。"@John Smith" のような複数語の表示名を許容する。
var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9._-]+(?: [A-Za-z0-9._-]+)*)`)

// maxMentionPhraseWords はメンション候補として試す語数の上限。
// 表示名は通常2〜3語なので、後続の本文を丸ごと候補にしないための抑え。
const maxMentionPhraseWords = 4

// MentionResolver はコメント本文の@メンションをユーザーIDに解決する。
type MentionResolver struct {
	directory UserDirectory
}

// NewMentionResolver はMentionResolverを生成する。
func NewMentionResolver(directory UserDirectory) *MentionResolver {
	return &MentionResolver{directory: directory}
}

// ResolveMentions はテキスト中の@メンションを解決し、
// 該当したユーザーIDを出現順・重複なしで返す。
// 空文字列・空白のみのテキストには空のスライスを返す。
// 解決できなかったトークンは黙って捨てる。
// ディレクトリの取得失敗はエラーとして返す。
func (r *MentionResolver) ResolveMentions(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}

	tokens := extractMentionTokens(text)
	if len(tokens) == 0 {
		return []string{}, nil
	}

	users, err := r.directory.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("メンション候補ユーザーの取得に失敗しました: %w", err)
	}

	resolved := []string{}
	seen := make(map[string]bool)
	for _, phrases := range tokens {
		userID := matchMentionToken(phrases, users)
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true
		resolved = append(resolved, userID)
	}
	return resolved, nil
}

// extractMentionTokens はテキストから@メンショントークンを出現順に抽出する。
// 各トークンについて、先頭語からの語数違いの候補フレーズ一覧を返す
// （"@John Smith check" → ["John Smith check", "John Smith", "John"]）。
func extractMentionTokens(text string) [][]string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	tokens := make([][]string, 0, len(matches))
	for _, m := range matches {
		words := strings.Split(m[1], " ")
		if len(words) > maxMentionPhraseWords {
			words = words[:maxMentionPhraseWords]
		}
		phrases := make([]string, 0, len(words))
		for n := len(words); n >= 1; n-- {
			phrases = append(phrases, strings.Join(words[:n], " "))
		}
		tokens = append(tokens, phrases)
	}
	return tokens
}

// normalizeMention はメンション照合用の正規化を行う。
// 小文字化したうえで英数字以外を全て取り除く。
// トークン・ユーザー名・メールローカル部の全てに同じ正規化を適用する。
func normalizeMention(s string) string {
	s = strings.ToLower(s)
	var sb strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// emailLocalPart はメールアドレスの@より前の部分を返す。
func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// 照合ランク。値が小さいほど優先される。
const (
	rankExactName = iota
	rankExactEmailLocal
	rankNameSubstring
	rankEmailSubstring
	rankNoMatch
)

// matchMentionToken は候補フレーズ群に最も合致するユーザーのIDを返す。
// 照合は正規化後の文字列同士で行い、
// 名前完全一致 > メールローカル部完全一致 > 名前部分一致 > メールローカル部部分一致
// の順で優先する。部分一致はどちらが部分文字列でも成立する。
// 同ランクの候補が複数ある場合はユーザーID昇順で最初の1名に決定する。
// 合致するユーザーがいない場合は空文字列を返す。
func matchMentionToken(phrases []string, users []*model.User) string {
	bestRank := rankNoMatch
	bestID := ""
	for _, phrase := range phrases {
		normToken := normalizeMention(phrase)
		if normToken == "" {
			continue
		}
		for _, u := range users {
			rank := mentionRank(normToken, u)
			if rank == rankNoMatch {
				continue
			}
			if rank < bestRank || (rank == bestRank && u.ID < bestID) {
				bestRank = rank
				bestID = u.ID
			}
		}
	}
	return bestID
}

// mentionRank はトークンとユーザーの照合ランクを返す。
func mentionRank(normToken string, u *model.User) int {
	normName := normalizeMention(u.Name)
	normEmail := normalizeMention(emailLocalPart(u.Email))

	switch {
	case normName != "" && normName == normToken:
		return rankExactName
	case normEmail != "" && normEmail == normToken:
		return rankExactEmailLocal
	case normName != "" && (strings.Contains(normName, normToken) || strings.Contains(normToken, normName)):
		return rankNameSubstring
	case normEmail != "" && (strings.Contains(normEmail, normToken) || strings.Contains(normToken, normEmail)):
		return rankEmailSubstring
	default:
		return rankNoMatch
	}
}
