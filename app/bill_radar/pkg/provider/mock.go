package provider

import (
	"fmt"
	"strings"

	dm "github.com/iWorld-y/bill_radar/app/bill_radar/pkg/model"
)

// mockRule 标题关键词到模拟分析结果的映射
type mockRule struct {
	keywords []string
	level    string
	area     string
	details  []string
}

// mockRules 按顺序匹配，第一条命中的规则胜出
var mockRules = []mockRule{
	{
		keywords: []string{"탄소", "온실가스", "기후", "환경"},
		level:    "높음",
		area:     "환경",
		details: []string{
			"배출 관리 체계 보완 필요 (배출 규제 강화 가능성)",
			"환경 설비 투자 검토 (규제 대응 비용 발생)",
			"환경 정보 공시 확대 (이해관계자 요구 증가)",
		},
	},
	{
		keywords: []string{"중대재해", "산업안전", "안전"},
		level:    "높음",
		area:     "안전",
		details: []string{
			"사업장 안전관리 체계 점검 (경영책임자 의무 강화 가능성)",
			"협력사 안전관리 범위 확대 (도급 관계 책임 확대)",
			"안전 투자 계획 재검토 (처벌 수준 상향 가능성)",
		},
	},
	{
		keywords: []string{"석유", "에너지", "전기", "배터리", "전지"},
		level:    "높음",
		area:     "생산",
		details: []string{
			"생산 및 공급 계획 영향 (에너지 수급 제도 변경)",
			"원가 구조 변동 가능성 (요금 및 부담금 조정)",
			"신규 사업 기회 검토 (지원 제도 신설 가능성)",
		},
	},
	{
		keywords: []string{"공정거래", "하도급", "독점", "가맹"},
		level:    "중간",
		area:     "경영",
		details: []string{
			"거래 관행 점검 필요 (불공정거래 규율 강화)",
			"계열사 간 거래 검토 (내부거래 규제 가능성)",
			"준법 감시 체계 보완 (과징금 수준 변경 가능성)",
		},
	},
	{
		keywords: []string{"상법", "주주", "이사", "지배구조", "자본시장"},
		level:    "중간",
		area:     "ESG",
		details: []string{
			"이사회 운영 방식 점검 (이사의 의무 범위 변경 가능성)",
			"주주총회 절차 보완 (소수주주 권리 강화)",
			"지배구조 공시 대응 (투명성 요구 확대)",
		},
	},
	{
		keywords: []string{"연구", "기술", "개발", "특허"},
		level:    "낮음",
		area:     "연구개발",
		details: []string{
			"연구개발 지원 제도 확인 (세제 혜택 변경 가능성)",
			"기술 보호 체계 점검 (기술 유출 규율 강화)",
			"산학 협력 기회 검토 (지원 사업 신설 가능성)",
		},
	},
}

var defaultMockRule = mockRule{
	level: "낮음",
	area:  "경영",
	details: []string{
		"직접적인 사업 영향 제한적 (관련 규정 적용 범위 확인 필요)",
		"제도 변화 모니터링 필요 (후속 입법 가능성)",
		"대외협력 대응 검토 (이해관계자 의견 수렴)",
	},
}

// UntitledBill 标题为空时使用的名称
const UntitledBill = "제목 없는 의안"

// Mock 根据标题关键词生成确定性的模拟分析，格式与英文短键响应一致
func Mock(title string) dm.RawPayload {
	rule := defaultMockRule
	for _, r := range mockRules {
		if containsAny(title, r.keywords) {
			rule = r
			break
		}
	}

	name := strings.TrimSpace(title)
	if name == "" {
		name = UntitledBill
	}

	details := make([]any, len(rule.details))
	for i, d := range rule.details {
		details[i] = d
	}

	return dm.RawPayload{
		"summary":      fmt.Sprintf("「%s」 관련 의안으로, %s 분야에 영향이 예상됩니다.", name, rule.area),
		"main_content": fmt.Sprintf("분석 서비스를 사용할 수 없어 의안 제목 「%s」을 기준으로 생성한 참고용 분석입니다.", name),
		"SK_innovation_impact": map[string]any{
			"impact_level":       rule.level,
			"impact_area":        rule.area,
			"key_impact_details": details,
		},
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
