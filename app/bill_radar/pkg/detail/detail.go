// Package detail 解析影响说明条目。
//
// 条目依次按以下语法尝试，第一个匹配的规则胜出：
//
//	mapping        {"내용": ..., "분석 근거": ...}（已解码的对象）
//	mapping 字面量   "{'내용': 'x', '분석 근거': 'y'}"
//	括号说明         "标题 (依据)"
//	纯文本           "标题"
package detail

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/model"
)

// mapping 中的键
const (
	keyHeadline  = "내용"
	keyRationale = "분석 근거"
)

var errNotMapping = errors.New("not a mapping literal")

type rule func(entry any) (model.ImpactDetail, bool)

var grammar = []rule{fromMapping, fromMappingLiteral, fromParenthesized, fromPlain}

// Parse 将一条影响说明解析为 ImpactDetail，Headline 保证非空
func Parse(entry any) model.ImpactDetail {
	var d model.ImpactDetail
	for _, r := range grammar {
		if got, ok := r(entry); ok {
			d = got
			break
		}
	}
	if d.Headline == "" {
		d.Headline = render(entry)
	}
	if d.Headline == "" {
		d.Headline = model.PlaceholderItem
	}
	return d
}

// ParseAll 逐条解析，保持顺序和数量
func ParseAll(entries []any) []model.ImpactDetail {
	out := make([]model.ImpactDetail, len(entries))
	for i, e := range entries {
		out[i] = Parse(e)
	}
	return out
}

func fromMapping(entry any) (model.ImpactDetail, bool) {
	m, ok := entry.(map[string]any)
	if !ok {
		return model.ImpactDetail{}, false
	}
	_, hasHeadline := m[keyHeadline]
	_, hasRationale := m[keyRationale]
	if !hasHeadline && !hasRationale {
		return model.ImpactDetail{}, false
	}
	return extract(m), true
}

// fromMappingLiteral YAML flow mapping 同时兼容 JSON 和单引号字面量。
// 只要能解析为 mapping 就不再尝试后续规则
func fromMappingLiteral(entry any) (model.ImpactDetail, bool) {
	s, ok := entry.(string)
	if !ok {
		return model.ImpactDetail{}, false
	}
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "{") || !strings.HasSuffix(t, "}") {
		return model.ImpactDetail{}, false
	}
	m, err := decodeLiteral(t)
	if err != nil {
		return model.ImpactDetail{}, false
	}
	return extract(m), true
}

func extract(m map[string]any) model.ImpactDetail {
	return model.ImpactDetail{
		Headline:  strings.TrimSpace(scalar(m[keyHeadline])),
		Rationale: strings.TrimSpace(scalar(m[keyRationale])),
	}
}

// decodeLiteral 未加引号的 None 视为空值
func decodeLiteral(s string) (map[string]any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(s), &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errNotMapping
	}

	node := doc.Content[0]
	m := make(map[string]any, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind == yaml.ScalarNode && v.Style == 0 && v.Value == "None" {
			m[k.Value] = nil
			continue
		}
		var val any
		if err := v.Decode(&val); err != nil {
			return nil, err
		}
		m[k.Value] = val
	}
	return m, nil
}

func fromParenthesized(entry any) (model.ImpactDetail, bool) {
	s, ok := entry.(string)
	if !ok {
		return model.ImpactDetail{}, false
	}
	open := strings.Index(s, "(")
	if open < 0 {
		return model.ImpactDetail{}, false
	}
	closing := strings.Index(s[open+1:], ")")
	if closing < 0 {
		return model.ImpactDetail{}, false
	}
	return model.ImpactDetail{
		Headline:  strings.TrimSpace(s[:open]),
		Rationale: strings.TrimSpace(s[open+1 : open+1+closing]),
	}, true
}

func fromPlain(entry any) (model.ImpactDetail, bool) {
	return model.ImpactDetail{Headline: strings.TrimSpace(render(entry))}, true
}

// render 条目的原始文本形式
func render(entry any) string {
	switch v := entry.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(entry)
}

func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return render(x)
	}
}
