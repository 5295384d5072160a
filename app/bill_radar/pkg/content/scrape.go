package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-shiori/dom"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// 议案详情页结构
const (
	sectionHeadingSelector = "div.subti01"
	sectionHeadingText     = "제안이유 및 주요내용"
	candidateSelectors     = ".textType02, .text, #summaryContentDiv"
)

// maxPageBytes 详情页读取上限，超出部分丢弃
const maxPageBytes = 8 << 20

// scrape 抓取详情页并提取正文
func (r *Resolver) scrape(ctx context.Context, link string) (string, error) {
	pageURL, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid detail link: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("create request failed: %w", err)
	}
	res, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read body failed: %w", err)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html failed: %w", err)
	}

	if text := ExtractSection(doc); text != "" {
		r.log.Debug("在提案理由及主要内容章节中找到正文")
		return text, nil
	}
	if text := ExtractCandidates(doc); text != "" {
		r.log.Debug("在备选章节中找到正文")
		return text, nil
	}

	if r.readability {
		article, err := readability.FromReader(bytes.NewReader(body), pageURL)
		if err == nil {
			if text := strings.TrimSpace(article.TextContent); text != "" {
				r.log.Debug("readability 提取到正文")
				return text, nil
			}
		}
	}

	return "", errNoContent
}

// ExtractSection 找到标题为“제안이유 및 주요내용”的章节，取其后第一个 div.text 的文本
func ExtractSection(doc *html.Node) string {
	for _, heading := range dom.QuerySelectorAll(doc, sectionHeadingSelector) {
		if strings.TrimSpace(dom.TextContent(heading)) != sectionHeadingText {
			continue
		}
		if next := findNext(doc, heading, isTextDiv); next != nil {
			return strings.TrimSpace(dom.TextContent(next))
		}
	}
	return ""
}

// ExtractCandidates 按文档顺序返回第一个非空备选章节的文本
func ExtractCandidates(doc *html.Node) string {
	for _, n := range dom.QuerySelectorAll(doc, candidateSelectors) {
		if text := strings.TrimSpace(dom.TextContent(n)); text != "" {
			return text
		}
	}
	return ""
}

func isTextDiv(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != "div" {
		return false
	}
	for _, c := range strings.Fields(dom.GetAttribute(n, "class")) {
		if c == "text" {
			return true
		}
	}
	return false
}

// findNext 按文档顺序返回 start 之后第一个满足 match 的节点
func findNext(doc, start *html.Node, match func(*html.Node) bool) *html.Node {
	var (
		passed bool
		found  *html.Node
		walk   func(*html.Node)
	)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n == start {
			passed = true
		} else if passed && match(n) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}
