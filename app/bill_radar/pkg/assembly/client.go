package assembly

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/config"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/model"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/source"
)

// 开放 API 结果码
const (
	codeOK     = "INFO-000"
	codeNoData = "INFO-200"
)

// 单个关键词最多翻页数
const maxPages = 10

// Client 国会议案开放 API 客户端
type Client struct {
	apiKey        string
	baseURL       string
	listService   string
	detailService string
	age           string
	pageSize      int
	client        *http.Client
}

// NewClient 创建一个新的开放 API 客户端
func NewClient(cfg config.AssemblyConfig) *Client {
	t := time.Duration(cfg.Timeout) * time.Second
	if t == 0 {
		t = 30 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		apiKey:        cfg.APIKey,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		listService:   cfg.ListService,
		detailService: cfg.DetailService,
		age:           cfg.Age,
		pageSize:      pageSize,
		client:        &http.Client{Timeout: t},
	}
}

// Ensure Client implements source.Source
var _ source.Source = (*Client)(nil)

// billRow 议案列表行
type billRow struct {
	BillID        string `json:"BILL_ID"`
	BillNo        string `json:"BILL_NO"`
	BillName      string `json:"BILL_NAME"`
	Proposer      string `json:"PROPOSER"`
	ProposeDate   string `json:"PROPOSE_DT"`
	Committee     string `json:"COMMITTEE"`
	CommitteeName string `json:"COMMITTEE_NAME"`
	ProcResult    string `json:"PROC_RESULT"`
	DetailLink    string `json:"DETAIL_LINK"`
	RstProposer   string `json:"RST_PROPOSER"`
	PublProposer  string `json:"PUBL_PROPOSER"`
	CommitteeDate string `json:"COMMITTEE_DT"`
	ProcDate      string `json:"PROC_DT"`
}

func (r billRow) toBill() model.Bill {
	committee := r.CommitteeName
	if committee == "" {
		committee = r.Committee
	}
	return model.Bill{
		BillID:        r.BillID,
		BillNo:        r.BillNo,
		Title:         r.BillName,
		Proposer:      r.Proposer,
		ProposeDate:   r.ProposeDate,
		Committee:     committee,
		ProcResult:    r.ProcResult,
		DetailLink:    r.DetailLink,
		RstProposer:   r.RstProposer,
		PublProposer:  r.PublProposer,
		CommitteeDate: r.CommitteeDate,
		ProcDate:      r.ProcDate,
	}
}

// detailRow 议案详情行
type detailRow struct {
	BillID          string `json:"BILL_ID"`
	DetailContent   string `json:"DETAIL_CONTENT"`
	ProposerComment string `json:"PROPOSER_COMMENT"`
	SubmitReason    string `json:"SUBMIT_REASON"`
}

// ListBills implements source.Lister
func (c *Client) ListBills(ctx context.Context, q *source.Query) ([]model.Bill, error) {
	var bills []model.Bill
	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("AGE", c.age)
		params.Set("BILL_NAME", q.Keyword)

		var rows []billRow
		total, err := c.get(ctx, c.listService, page, c.pageSize, params, &rows)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			bills = append(bills, r.toBill())
		}
		if len(rows) == 0 || len(bills) >= total {
			break
		}
	}
	return bills, nil
}

// BillDetail implements source.DetailFetcher
func (c *Client) BillDetail(ctx context.Context, billID string) (*source.Detail, error) {
	params := url.Values{}
	params.Set("BILL_ID", billID)

	var rows []detailRow
	if _, err := c.get(ctx, c.detailService, 1, 1, params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("bill %s: %w", billID, source.ErrNotFound)
	}
	r := rows[0]
	return &source.Detail{
		BillID:          billID,
		DetailContent:   r.DetailContent,
		ProposerComment: r.ProposerComment,
		SubmitReason:    r.SubmitReason,
	}, nil
}

type apiResult struct {
	Code    string `json:"CODE"`
	Message string `json:"MESSAGE"`
}

type apiHead struct {
	ListTotalCount int        `json:"list_total_count"`
	Result         *apiResult `json:"RESULT"`
}

type apiBlock struct {
	Head []apiHead      `json:"head"`
	Row  json.RawMessage `json:"row"`
}

// get 执行一次查询并把 row 解码到 rows，返回总条数
func (c *Client) get(ctx context.Context, service string, page, size int, params url.Values, rows any) (int, error) {
	params.Set("KEY", c.apiKey)
	params.Set("Type", "json")
	params.Set("pIndex", strconv.Itoa(page))
	params.Set("pSize", strconv.Itoa(size))
	u := c.baseURL + "/" + service + "?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("create request failed: %w", err)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, fmt.Errorf("read body failed: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("assembly api error (status %d): %s", res.StatusCode, string(body))
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0, fmt.Errorf("unmarshal response failed: %w", err)
	}

	// 出错时顶层只有 RESULT
	raw, ok := envelope[service]
	if !ok {
		var result apiResult
		if r, ok := envelope["RESULT"]; ok {
			_ = json.Unmarshal(r, &result)
		}
		if result.Code == codeNoData {
			return 0, nil
		}
		return 0, fmt.Errorf("assembly api error (code %s): %s", result.Code, result.Message)
	}

	var blocks []apiBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return 0, fmt.Errorf("unmarshal response failed: %w", err)
	}

	total := 0
	for _, b := range blocks {
		for _, h := range b.Head {
			if h.ListTotalCount > 0 {
				total = h.ListTotalCount
			}
			if h.Result != nil && h.Result.Code != codeOK {
				if h.Result.Code == codeNoData {
					return 0, nil
				}
				return 0, fmt.Errorf("assembly api error (code %s): %s", h.Result.Code, h.Result.Message)
			}
		}
		if len(b.Row) > 0 {
			if err := json.Unmarshal(b.Row, rows); err != nil {
				return 0, fmt.Errorf("unmarshal rows failed: %w", err)
			}
		}
	}
	return total, nil
}
