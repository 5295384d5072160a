package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/model"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/source"
)

// errNoContent 数据源可用但没有正文
var errNoContent = errors.New("no content")

// Resolver 按顺序尝试结构化查询和网页抓取，获取议案正文
type Resolver struct {
	details     source.DetailFetcher
	client      *http.Client
	readability bool
	log         logrus.FieldLogger
}

// Option 配置 Resolver
type Option func(*Resolver)

// WithReadabilityFallback 固定选择器都失败后，用 readability 提取页面正文
func WithReadabilityFallback(on bool) Option {
	return func(r *Resolver) { r.readability = on }
}

// NewResolver 创建 Resolver。details 为 nil 时跳过结构化查询
func NewResolver(details source.DetailFetcher, client *http.Client, log logrus.FieldLogger, opts ...Option) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	r := &Resolver{details: details, client: client, log: log}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve 获取议案正文，任何失败都降级为空结果
func (r *Resolver) Resolve(ctx context.Context, ref model.BillReference) model.ContentFetchResult {
	if ref.DetailLink == "" {
		return model.EmptyContent()
	}
	log := r.log.WithField("bill_no", ref.BillNumber)

	if id := BillID(ref.DetailLink); id != "" && r.details != nil {
		text, err := r.structured(ctx, id)
		if err == nil {
			log.Infof("结构化查询获取议案内容 %d 字", len([]rune(text)))
			return model.ContentFetchResult{Text: text, Source: model.SourceStructured}
		}
		log.Infof("结构化查询未获取到议案内容，尝试网页抓取: %v", err)
	}

	text, err := r.scrape(ctx, ref.DetailLink)
	if err != nil {
		log.Warnf("网页抓取失败 [%s]: %v", ref.DetailLink, err)
		return model.EmptyContent()
	}
	log.Infof("网页抓取获取议案内容 %d 字", len([]rune(text)))
	return model.ContentFetchResult{Text: text, Source: model.SourceScrapedHTML}
}

// structured 依次取详细内容、提案说明、提出理由，第一个非空字段胜出
func (r *Resolver) structured(ctx context.Context, billID string) (string, error) {
	d, err := r.details.BillDetail(ctx, billID)
	if err != nil {
		return "", fmt.Errorf("bill detail %s: %w", billID, err)
	}
	for _, field := range []string{d.DetailContent, d.ProposerComment, d.SubmitReason} {
		if s := strings.TrimSpace(field); s != "" {
			return s, nil
		}
	}
	return "", errNoContent
}

// BillID 从详情链接中提取 BILL_ID 参数，没有时返回空
func BillID(link string) string {
	const token = "BILL_ID="
	i := strings.Index(link, token)
	if i < 0 {
		return ""
	}
	v := link[i+len(token):]
	if j := strings.IndexAny(v, "&#"); j >= 0 {
		v = v[:j]
	}
	if u, err := url.QueryUnescape(v); err == nil {
		v = u
	}
	return strings.TrimSpace(v)
}
