package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/model"
)

// ErrNotFound 议案不存在或没有数据
var ErrNotFound = errors.New("bill not found")

// Query 议案列表查询条件
type Query struct {
	Keyword   string
	StartDate string // Format: YYYY-MM-DD
	EndDate   string // Format: YYYY-MM-DD
}

// Detail 议案详情中用于分析的文本字段
type Detail struct {
	BillID          string
	DetailContent   string
	ProposerComment string
	SubmitReason    string
}

// DetailFetcher 按议案 ID 查询结构化详情
type DetailFetcher interface {
	BillDetail(ctx context.Context, billID string) (*Detail, error)
}

// Lister 按关键词查询议案列表
type Lister interface {
	ListBills(ctx context.Context, q *Query) ([]model.Bill, error)
}

// Source 议案数据源
type Source interface {
	Lister
	DetailFetcher
}

// Collect 按关键词依次查询，过滤日期范围并按议案去重，保持首次出现的顺序。
// 所有关键词都失败时返回最后一个错误
func Collect(ctx context.Context, l Lister, keywords []string, startDate, endDate string, log logrus.FieldLogger) ([]model.Bill, error) {
	var (
		bills   []model.Bill
		seen    = make(map[string]bool)
		lastErr error
		okCount int
	)

	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		rows, err := l.ListBills(ctx, &Query{Keyword: kw, StartDate: startDate, EndDate: endDate})
		if err != nil {
			log.Errorf("查询议案失败 [%s]: %v", kw, err)
			lastErr = err
			continue
		}
		okCount++

		for _, b := range rows {
			if !InRange(b.ProposeDate, startDate, endDate) {
				continue
			}
			key := b.BillID
			if key == "" {
				key = b.BillNo
			}
			if key != "" && seen[key] {
				continue
			}
			seen[key] = true
			if b.Keyword == "" {
				b.Keyword = kw
			}
			bills = append(bills, b)
		}
		log.Infof("关键词 [%s] 命中 %d 条议案", kw, len(rows))
	}

	if okCount == 0 && lastErr != nil {
		return nil, fmt.Errorf("list bills: %w", lastErr)
	}
	return bills, nil
}

// InRange 判断 YYYY-MM-DD 日期是否落在闭区间内，空边界不限制
func InRange(date, start, end string) bool {
	if len(date) > 10 {
		date = date[:10]
	}
	if date == "" {
		return start == "" && end == ""
	}
	if start != "" && date < start {
		return false
	}
	if end != "" && date > end {
		return false
	}
	return true
}
