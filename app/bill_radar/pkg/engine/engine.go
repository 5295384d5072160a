package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	dm "github.com/iWorld-y/bill_radar/app/bill_radar/pkg/model"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/source"
)

// Archive 分析结果归档，可选
type Archive interface {
	CreateRun(ctx context.Context, keywords []string, startDate, endDate string) (int, error)
	SaveAnalysis(ctx context.Context, runID int, entry dm.DigestEntry) error
}

// Engine 核心处理引擎
type Engine struct {
	bills    source.Lister
	pipeline *Pipeline
	store    Archive
	workers  int
	log      logrus.FieldLogger
}

// NewEngine 创建引擎实例。store 为 nil 时不归档，workers 小于 1 时按 1 处理
func NewEngine(bills source.Lister, pipeline *Pipeline, store Archive, workers int, log logrus.FieldLogger) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		bills:    bills,
		pipeline: pipeline,
		store:    store,
		workers:  workers,
		log:      log,
	}
}

// RunOptions 运行选项。日期格式为 YYYY-MM-DD
type RunOptions struct {
	Keywords         []string
	StartDate        string
	EndDate          string
	ProgressCallback func(status string, progress int)
}

// Run 查询议案并逐个分析，结果顺序与查询顺序一致。
// 只有议案查询失败会导致整体失败
func (e *Engine) Run(ctx context.Context, opts RunOptions) ([]dm.DigestEntry, error) {
	if len(opts.Keywords) == 0 {
		return nil, errors.New("no keywords provided")
	}
	if opts.StartDate != "" && opts.EndDate != "" && opts.StartDate > opts.EndDate {
		return nil, fmt.Errorf("start date %s is after end date %s", opts.StartDate, opts.EndDate)
	}

	progress := func(status string, p int) {
		if opts.ProgressCallback != nil {
			opts.ProgressCallback(status, p)
		}
	}

	e.log.Infof("开始查询议案，关键词 %v，期间 %s ~ %s", opts.Keywords, opts.StartDate, opts.EndDate)
	progress("starting", 0)

	bills, err := source.Collect(ctx, e.bills, opts.Keywords, opts.StartDate, opts.EndDate, e.log)
	if err != nil {
		return nil, err
	}
	e.log.Infof("共找到 %d 条议案", len(bills))
	progress(fmt.Sprintf("found %d bills", len(bills)), 10)

	// 创建本次运行记录
	var runID int
	if e.store != nil {
		rid, err := e.store.CreateRun(ctx, opts.Keywords, opts.StartDate, opts.EndDate)
		if err != nil {
			e.log.Errorf("无法创建运行记录: %v", err)
		} else {
			runID = rid
		}
	}

	entries := make([]dm.DigestEntry, len(bills))
	var (
		g         errgroup.Group
		mu        sync.Mutex
		completed int
	)
	g.SetLimit(e.workers)

	for i, bill := range bills {
		g.Go(func() error {
			analysis := e.pipeline.Run(ctx, bill.Reference())
			entries[i] = dm.DigestEntry{Bill: bill, Analysis: analysis}

			if e.store != nil && runID > 0 {
				if err := e.store.SaveAnalysis(ctx, runID, entries[i]); err != nil {
					e.log.Errorf("保存分析结果失败 [%s]: %v", bill.BillNo, err)
				}
			}

			mu.Lock()
			completed++
			p := 10 + int(float64(completed)/float64(len(bills))*85) // 10% -> 95%
			progress(fmt.Sprintf("analyzed bill: %s", bill.BillNo), p)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	progress("completed", 100)
	return entries, nil
}

// DateRange 以 now 为结束日期，向前 days 天作为开始日期
func DateRange(now time.Time, days int) (string, string) {
	return now.AddDate(0, 0, -days).Format(time.DateOnly), now.Format(time.DateOnly)
}
