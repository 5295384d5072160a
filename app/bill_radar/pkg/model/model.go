package model

import (
	"encoding/json"
	"fmt"
)

// 占位文本：分析结果缺失时统一使用
const (
	PlaceholderText = "분석 정보가 없습니다."
	PlaceholderItem = "정보 없음"
)

// Bill 上游议案记录
type Bill struct {
	BillID        string `json:"bill_id"`
	BillNo        string `json:"bill_no"`
	Title         string `json:"title"`
	Proposer      string `json:"proposer"`
	ProposeDate   string `json:"proposal_date"`
	Committee     string `json:"committee"`
	ProcResult    string `json:"proc_result"`
	DetailLink    string `json:"url"`
	Keyword       string `json:"keyword"`
	RstProposer   string `json:"rst_proposer"`
	PublProposer  string `json:"publ_proposer"`
	CommitteeDate string `json:"committee_dt"`
	ProcDate      string `json:"proc_dt"`
}

// Reference 提取议案引用
func (b Bill) Reference() BillReference {
	return BillReference{
		Title:      b.Title,
		BillNumber: b.BillNo,
		DetailLink: b.DetailLink,
	}
}

// BillReference 分析流水线的输入，只读
type BillReference struct {
	Title      string `json:"title"`
	BillNumber string `json:"bill_number"`
	DetailLink string `json:"detail_link,omitempty"` // 为空表示没有详情链接
}

// ContentSource 正文来源
type ContentSource int

const (
	SourceNone ContentSource = iota
	SourceStructured
	SourceScrapedHTML
)

func (s ContentSource) String() string {
	switch s {
	case SourceStructured:
		return "structured"
	case SourceScrapedHTML:
		return "scraped_html"
	default:
		return "none"
	}
}

// ContentFetchResult 正文获取结果。Source 为 SourceNone 时 Text 为空
type ContentFetchResult struct {
	Text   string
	Source ContentSource
}

// EmptyContent 没有获取到任何正文
func EmptyContent() ContentFetchResult {
	return ContentFetchResult{Source: SourceNone}
}

// RawPayload 分析服务返回的未经校验的 JSON 对象
type RawPayload map[string]any

// ImpactLevel 影响程度
type ImpactLevel int

const (
	ImpactMedium ImpactLevel = iota
	ImpactHigh
	ImpactLow
)

// ParseImpactLevel 将自由文本映射为影响程度，无法识别时为中等
func ParseImpactLevel(s string) ImpactLevel {
	switch s {
	case "높음":
		return ImpactHigh
	case "낮음":
		return ImpactLow
	default:
		return ImpactMedium
	}
}

func (l ImpactLevel) String() string {
	switch l {
	case ImpactHigh:
		return "높음"
	case ImpactLow:
		return "낮음"
	default:
		return "중간"
	}
}

// Class 摘要页面使用的样式名
func (l ImpactLevel) Class() string {
	switch l {
	case ImpactHigh:
		return "high"
	case ImpactLow:
		return "low"
	default:
		return "medium"
	}
}

func (l ImpactLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *ImpactLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("impact level: %w", err)
	}
	*l = ParseImpactLevel(s)
	return nil
}

// ImpactDetail 单条影响说明。Rationale 为空表示原文没有给出依据
type ImpactDetail struct {
	Headline  string `json:"headline"`
	Rationale string `json:"rationale,omitempty"`
}

// Impact 对监测对象的影响
type Impact struct {
	Level   ImpactLevel    `json:"level"`
	Areas   []string       `json:"areas"`
	Details []ImpactDetail `json:"details"`
}

// BillAnalysis 规范化后的议案分析，流水线唯一输出
type BillAnalysis struct {
	Summary string `json:"summary"`
	Content string `json:"content"`
	Impact  Impact `json:"impact"`
}

// PlaceholderAnalysis 全部字段为占位值的分析结果
func PlaceholderAnalysis() BillAnalysis {
	return BillAnalysis{
		Summary: PlaceholderText,
		Content: PlaceholderText,
		Impact: Impact{
			Level:   ImpactMedium,
			Areas:   []string{PlaceholderItem},
			Details: []ImpactDetail{{Headline: PlaceholderItem}},
		},
	}
}

// DigestEntry 交给摘要模块的 (议案, 分析) 对
type DigestEntry struct {
	Bill     Bill         `json:"bill"`
	Analysis BillAnalysis `json:"analysis"`
}
