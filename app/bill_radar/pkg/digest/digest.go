package digest

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"
	"time"

	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/model"
)

// Data 用于模板渲染的数据
type Data struct {
	Date     string
	Keywords []string
	Entries  []model.DigestEntry
}

// NewData 以当前时间生成渲染数据
func NewData(now time.Time, keywords []string, entries []model.DigestEntry) Data {
	return Data{
		Date:     now.Format("2006-01-02 15:04"),
		Keywords: keywords,
		Entries:  entries,
	}
}

// 审议阶段关键词，按顺序匹配
var statusStages = []string{"발의", "소관위", "법사위", "본회의", "정부이송", "공포"}

// StatusClass 审议阶段对应的徽章样式
func StatusClass(status string) string {
	for _, stage := range statusStages {
		if strings.Contains(status, stage) {
			return "status-" + stage
		}
	}
	return "status-기타"
}

// Subject 摘要标题，如 "[국회 의안 알림] 2025-01-02 의안 3건"
func Subject(prefix string, now time.Time, count int) string {
	return fmt.Sprintf("%s %s 의안 %d건", prefix, now.Format(time.DateOnly), count)
}

var tpl = template.Must(template.New("digest").Funcs(template.FuncMap{
	"statusClass": StatusClass,
	"join":        strings.Join,
	"lines": func(s string) []string {
		var out []string
		for _, line := range strings.Split(s, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out
	},
}).Parse(htmlTpl))

// Render 渲染 HTML 摘要
func Render(w io.Writer, data Data) error {
	return tpl.Execute(w, data)
}

// Write 渲染到文件
func Write(path string, data Data) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := Render(f, data); err != nil {
		return fmt.Errorf("render digest: %w", err)
	}
	return nil
}

const htmlTpl = `<!DOCTYPE html>
<html lang="ko">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>국회 의안 정보 알림</title>
    <style>
        :root {
            --bg-color: #f8fafc;
            --card-bg: #ffffff;
            --text-main: #1e293b;
            --text-secondary: #64748b;
            --border-color: #e2e8f0;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            background-color: var(--bg-color);
            color: var(--text-main);
            line-height: 1.6;
            margin: 0;
            padding: 20px;
        }
        .container { max-width: 800px; margin: 0 auto; }
        header { text-align: center; margin-bottom: 40px; padding: 20px 0; }
        .date-info { color: var(--text-secondary); }
        .bill {
            background: var(--card-bg);
            border: 1px solid var(--border-color);
            border-radius: 12px;
            padding: 24px;
            margin-bottom: 24px;
        }
        .bill-title { font-size: 1.15rem; font-weight: 700; }
        .bill-info { font-size: 0.9rem; color: var(--text-secondary); margin: 8px 0; }
        .badge { display: inline-block; font-size: 0.75rem; padding: 2px 8px; border-radius: 4px; color: #fff; font-weight: 600; }
        .high { background-color: #EF4444; }
        .medium { background-color: #F59E0B; }
        .low { background-color: #10B981; }
        .status-발의 { background-color: #3B82F6; }
        .status-소관위 { background-color: #8B5CF6; }
        .status-법사위 { background-color: #EC4899; }
        .status-본회의 { background-color: #F59E0B; }
        .status-정부이송 { background-color: #10B981; }
        .status-공포 { background-color: #6B7280; }
        .status-기타 { background-color: #94A3B8; }
        .impact-area { display: inline-block; font-size: 0.75rem; padding: 1px 6px; border-radius: 4px; background-color: #E5E7EB; margin-right: 4px; }
        .rationale { color: var(--text-secondary); }
        .footer { text-align: center; color: var(--text-secondary); font-size: 0.8rem; margin-top: 40px; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>국회 의안 정보 알림</h1>
            <div class="date-info">{{ .Date }} • 키워드: {{ join .Keywords ", " }}</div>
        </header>

        {{if .Entries}}
        {{range .Entries}}
        <article class="bill">
            <div class="bill-title">
                {{.Bill.Title}}
                {{with .Bill.ProcResult}}<span class="badge {{statusClass .}}">{{.}}</span>{{end}}
            </div>
            <div class="bill-info">
                <strong>의안번호:</strong> {{.Bill.BillNo}} |
                <strong>제안자:</strong> {{.Bill.Proposer}} |
                <strong>제안일:</strong> {{.Bill.ProposeDate}}
                {{with .Bill.Committee}}| <strong>소관위원회:</strong> {{.}}{{end}}
            </div>
            <p><strong>한 줄 요약:</strong> {{.Analysis.Summary}}</p>
            <div>
                <strong>주요 내용</strong>
                {{range lines .Analysis.Content}}<p>{{.}}</p>{{end}}
            </div>
            <div>
                <strong>SK이노베이션 영향</strong>
                <span class="badge {{.Analysis.Impact.Level.Class}}">{{.Analysis.Impact.Level}}</span>
                <div>{{range .Analysis.Impact.Areas}}<span class="impact-area">{{.}}</span>{{end}}</div>
                <ul>
                {{range .Analysis.Impact.Details}}
                    <li>{{.Headline}}{{with .Rationale}} <span class="rationale">({{.}})</span>{{end}}</li>
                {{end}}
                </ul>
            </div>
            {{with .Bill.DetailLink}}<a href="{{.}}" target="_blank">상세 정보 보기</a>{{end}}
        </article>
        {{end}}
        {{else}}
        <p>오늘 등록된 의안이 없습니다.</p>
        {{end}}

        <div class="footer">
            Generated by Bill Radar
        </div>
    </div>
</body>
</html>`
