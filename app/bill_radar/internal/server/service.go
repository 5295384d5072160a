package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/model"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/storage"
)

const (
	OperationAnalyze      = "/bill_radar.v1.Bill/Analyze"
	OperationListAnalyses = "/bill_radar.v1.Bill/ListAnalyses"

	defaultListLimit = 20
	maxListLimit     = 200
)

// Analyzer 单个议案分析，总是返回结果
type Analyzer interface {
	Run(ctx context.Context, ref model.BillReference) model.BillAnalysis
}

// AnalysisLister 查询归档的分析结果
type AnalysisLister interface {
	ListAnalyses(ctx context.Context, limit int) ([]storage.Record, error)
}

// BillService 议案分析接口
type BillService struct {
	analyzer Analyzer
	store    AnalysisLister
	log      *log.Helper
}

// NewBillService store 为 nil 时归档查询返回 503
func NewBillService(analyzer Analyzer, store AnalysisLister, logger log.Logger) *BillService {
	return &BillService{
		analyzer: analyzer,
		store:    store,
		log:      log.NewHelper(logger),
	}
}

// ListAnalysesReq 归档查询条件
type ListAnalysesReq struct {
	Limit int
}

// ListAnalysesReply 归档查询结果
type ListAnalysesReply struct {
	Analyses []storage.Record `json:"analyses"`
	Total    int              `json:"total"`
}

func (s *BillService) Analyze(ctx context.Context, ref *model.BillReference) (*model.BillAnalysis, error) {
	ref.Title = strings.TrimSpace(ref.Title)
	ref.BillNumber = strings.TrimSpace(ref.BillNumber)
	ref.DetailLink = strings.TrimSpace(ref.DetailLink)
	if ref.Title == "" && ref.BillNumber == "" {
		return nil, errors.BadRequest("MISSING_BILL", "title or bill_number is required")
	}

	s.log.WithContext(ctx).Infof("分析议案: %s %s", ref.BillNumber, ref.Title)
	analysis := s.analyzer.Run(ctx, *ref)
	return &analysis, nil
}

func (s *BillService) ListAnalyses(ctx context.Context, req *ListAnalysesReq) (*ListAnalysesReply, error) {
	if s.store == nil {
		return nil, errors.ServiceUnavailable("NO_STORAGE", "analysis archive is not configured")
	}

	records, err := s.store.ListAnalyses(ctx, req.Limit)
	if err != nil {
		s.log.WithContext(ctx).Errorf("查询分析结果失败: %v", err)
		return nil, errors.InternalServer("LIST_FAILED", "failed to list analyses")
	}
	if records == nil {
		records = []storage.Record{}
	}
	return &ListAnalysesReply{Analyses: records, Total: len(records)}, nil
}

func analyzeHandler(s *BillService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in model.BillReference
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationAnalyze)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return s.Analyze(ctx, req.(*model.BillReference))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func listAnalysesHandler(s *BillService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		in := ListAnalysesReq{Limit: defaultListLimit}
		if v := ctx.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return errors.BadRequest("INVALID_LIMIT", "limit must be a positive integer")
			}
			in.Limit = min(n, maxListLimit)
		}
		http.SetOperation(ctx, OperationListAnalyses)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return s.ListAnalyses(ctx, req.(*ListAnalysesReq))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
