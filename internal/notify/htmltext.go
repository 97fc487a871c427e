package notify

import (
	"strings"

	"golang.org/x/net/html"
)

// ブロック要素。テキスト化の際に前後へ空白を挿入し、
// 隣接ブロックのテキストが連結されないようにする。
var blockElements = map[string]bool{
	"p": true, "br": true, "div": true, "li": true, "ul": true, "ol": true,
	"blockquote": true, "pre": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "tr": true, "table": true,
}

// FlattenHTML はHTML文字列をプレーンテキストに変換する。
// メンション走査と通知プレビューの両方で使用される。
// タグは除去され、ブロック要素の境界は空白1つに正規化される。
// パースに失敗した場合は入力をそのまま返す（プレーンテキスト入力を想定）。
func FlattenHTML(raw string) string {
	if raw == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
		case html.ElementNode:
			// script/style内のテキストは本文ではない
			if n.Data == "script" || n.Data == "style" {
				return
			}
			if blockElements[n.Data] {
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			sb.WriteString(" ")
		}
	}
	walk(doc)

	// 連続する空白を1つにまとめる
	return strings.Join(strings.Fields(sb.String()), " ")
}
