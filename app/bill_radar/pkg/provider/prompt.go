package provider

import (
	"fmt"

	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/model"
)

// SystemPrompt 系统角色
const SystemPrompt = "당신은 대외협력팀 전문가이자 SK이노베이션 사업 분석가입니다."

// NoContentText 没有正文时写入 prompt 的说明
const NoContentText = "상세 내용이 제공되지 않았습니다."

const promptTpl = `다음은 국회 의안정보입니다:

제목: %s
의안번호: %s
의안 내용: %s

이 의안에 대해 다음 형식으로 분석해주세요:

1. 한 줄 요약: [의안의 핵심 내용을 한 문장으로 쉽게 표현하여 요약]
2. 주요 내용: [의안의 주요 내용 간단히 중요한 부분을 요약하여 설명]
3. SK이노베이션 영향:
   - 영향도: [높음/중간/낮음]
   - 영향 분야: [ESG, 환경, 안전, 경영, 생산, 연구개발 등 관련 분야]
   - 주요 영향 세부 사항: [영향 내용 3가지 나열]

JSON 형식으로 응답해주세요.`

// BuildPrompt 生成固定模板的分析请求
func BuildPrompt(ref model.BillReference, content model.ContentFetchResult) string {
	text := content.Text
	if text == "" {
		text = NoContentText
	}
	return fmt.Sprintf(promptTpl, ref.Title, ref.BillNumber, text)
}
