package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/model"
)

// Shape 分析服务返回的 JSON 键名风格
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeLongKorean
	ShapeShortEnglish
	ShapeNumberedKorean
)

func (s Shape) String() string {
	switch s {
	case ShapeLongKorean:
		return "long_korean"
	case ShapeShortEnglish:
		return "short_english"
	case ShapeNumberedKorean:
		return "numbered_korean"
	default:
		return "unknown"
	}
}

// schema 一种响应格式的键名
type schema struct {
	shape   Shape
	summary string
	content string
	impact  string
	level   string
	areas   string
	details string
}

// schemas 按检测优先级排列
var schemas = []schema{
	{
		shape:   ShapeLongKorean,
		summary: "한 줄 요약",
		content: "주요 내용",
		impact:  "SK이노베이션 영향",
		level:   "영향도",
		areas:   "영향 분야",
		details: "주요 영향 세부 사항",
	},
	{
		shape:   ShapeShortEnglish,
		summary: "summary",
		content: "main_content",
		impact:  "SK_innovation_impact",
		level:   "impact_level",
		areas:   "impact_area",
		details: "key_impact_details",
	},
	{
		shape:   ShapeNumberedKorean,
		summary: "1. 한 줄 요약",
		content: "2. 주요 내용",
		impact:  "3. SK이노베이션 영향",
		level:   "영향도",
		areas:   "영향 분야",
		details: "주요 영향 세부 사항",
	},
}

// Analysis 规范化结果。Details 保留原始条目，由 detail 包继续解析
type Analysis struct {
	Shape   Shape
	Summary string
	Content string
	Level   model.ImpactLevel
	Areas   []string
	Details []any
}

// Placeholder 无法识别时的占位结果
func Placeholder() Analysis {
	return Analysis{
		Shape:   ShapeUnknown,
		Summary: model.PlaceholderText,
		Content: model.PlaceholderText,
		Level:   model.ImpactMedium,
		Areas:   []string{model.PlaceholderItem},
		Details: []any{model.PlaceholderItem},
	}
}

// Detect 根据顶层键判断响应格式
func Detect(raw model.RawPayload) Shape {
	if s, ok := detect(raw); ok {
		return s.shape
	}
	return ShapeUnknown
}

func detect(raw model.RawPayload) (schema, bool) {
	for _, s := range schemas {
		if _, ok := raw[s.summary]; ok {
			return s, true
		}
	}
	return schema{}, false
}

// Normalizer 把各种格式的响应统一为 Analysis
type Normalizer struct {
	log logrus.FieldLogger
}

// New 创建 Normalizer
func New(log logrus.FieldLogger) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize 从不失败。无法识别的格式返回占位结果并记录错误日志
func (n *Normalizer) Normalize(raw model.RawPayload) Analysis {
	s, ok := detect(raw)
	if !ok {
		n.log.WithField("payload", dump(raw)).Error("无法识别的分析响应格式")
		return Placeholder()
	}

	impact, _ := raw[s.impact].(map[string]any)
	return Analysis{
		Shape:   s.shape,
		Summary: textOr(raw[s.summary]),
		Content: textOr(raw[s.content]),
		Level:   model.ParseImpactLevel(strings.TrimSpace(text(impact[s.level]))),
		Areas:   areas(impact[s.areas]),
		Details: details(impact[s.details]),
	}
}

// textOr 文本字段，空值使用占位文本
func textOr(v any) string {
	if t := text(v); t != "" {
		return t
	}
	return model.PlaceholderText
}

// text 将任意值展开为文本：列表按行连接，对象编码为 JSON。
// 非空白字符串原样返回
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		if strings.TrimSpace(x) == "" {
			return ""
		}
		return x
	case []any:
		lines := make([]string, 0, len(x))
		for _, item := range x {
			if t := text(item); t != "" {
				lines = append(lines, t)
			}
		}
		return strings.Join(lines, "\n")
	case map[string]any:
		return dump(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// areas 标量包装为单元素列表，空列表使用占位
func areas(v any) []string {
	var out []string
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			if t := text(item); t != "" {
				out = append(out, t)
			}
		}
	default:
		if t := text(x); t != "" {
			out = []string{t}
		}
	}
	if len(out) == 0 {
		return []string{model.PlaceholderItem}
	}
	return out
}

// details 保留原始条目，标量包装为单元素列表。
// 仅在缺失或为 null 时使用占位，空列表保持为空
func details(v any) []any {
	switch x := v.(type) {
	case nil:
		return []any{model.PlaceholderItem}
	case []any:
		if x == nil {
			return []any{}
		}
		return x
	default:
		return []any{x}
	}
}

func dump(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
