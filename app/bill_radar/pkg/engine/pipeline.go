package engine

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/detail"
	dm "github.com/iWorld-y/bill_radar/app/bill_radar/pkg/model"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/normalize"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/provider"
)

// ContentResolver 获取议案正文，不返回错误
type ContentResolver interface {
	Resolve(ctx context.Context, ref dm.BillReference) dm.ContentFetchResult
}

// Analyzer 分析服务
type Analyzer interface {
	Analyze(ctx context.Context, ref dm.BillReference, content dm.ContentFetchResult) (dm.RawPayload, error)
}

// Pipeline 单个议案的处理流程：正文 → 分析 → 规范化 → 影响条目解析。
// 降级策略只在这里决定
type Pipeline struct {
	resolver   ContentResolver
	analyzer   Analyzer
	normalizer *normalize.Normalizer
	log        logrus.FieldLogger
}

// NewPipeline 创建流水线
func NewPipeline(resolver ContentResolver, analyzer Analyzer, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		resolver:   resolver,
		analyzer:   analyzer,
		normalizer: normalize.New(log),
		log:        log,
	}
}

// Run 总是返回格式完整的分析结果
func (p *Pipeline) Run(ctx context.Context, ref dm.BillReference) dm.BillAnalysis {
	log := p.log.WithField("bill_no", ref.BillNumber)

	content := p.resolver.Resolve(ctx, ref)
	log.Debugf("议案正文来源: %s (%d 字节)", content.Source, len(content.Text))

	raw, err := p.analyzer.Analyze(ctx, ref, content)
	if err != nil {
		if errors.Is(err, provider.ErrNoCredential) {
			log.Warn("未配置分析服务密钥，使用模拟分析")
		} else {
			log.Warnf("分析服务不可用，使用模拟分析: %v", err)
		}
		raw = provider.Mock(ref.Title)
	}

	a := p.normalizer.Normalize(raw)
	return dm.BillAnalysis{
		Summary: a.Summary,
		Content: a.Content,
		Impact: dm.Impact{
			Level:   a.Level,
			Areas:   a.Areas,
			Details: detail.ParseAll(a.Details),
		},
	}
}
