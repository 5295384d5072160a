package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/logger"
	dm "github.com/iWorld-y/bill_radar/app/bill_radar/pkg/model"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/provider"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/source"
)

type fakeResolver struct {
	result dm.ContentFetchResult
}

func (f fakeResolver) Resolve(context.Context, dm.BillReference) dm.ContentFetchResult {
	return f.result
}

type fakeChatModel struct {
	content string
	err     error
	prompts []string
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.prompts = append(f.prompts, input[len(input)-1].Content)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.content, nil), nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func newPipeline(content dm.ContentFetchResult, chat model.BaseChatModel) *Pipeline {
	log := logger.Discard()
	return NewPipeline(fakeResolver{result: content}, provider.New(chat, nil, log), log)
}

var testRef = dm.BillReference{Title: "상법 일부개정법률안", BillNumber: "2200123", DetailLink: "https://example.com?BILL_ID=PRC_X"}

func TestPipeline_Run_LongKorean(t *testing.T) {
	chat := &fakeChatModel{content: `{
		"한 줄 요약": "이사의 충실의무 확대",
		"주요 내용": "이사의 충실의무 대상에 주주를 추가",
		"SK이노베이션 영향": {
			"영향도": "높음",
			"영향 분야": ["경영", "ESG"],
			"주요 영향 세부 사항": [
				{"내용": "이사회 의사결정 부담 증가", "분석 근거": "소송 위험 확대"},
				"{'내용': '공시 강화', '분석 근거': '투명성 요구'}",
				"지배구조 개편 검토 (지주회사 체제)",
				"단순 문장"
			]
		}
	}`}
	p := newPipeline(dm.ContentFetchResult{Text: "제안이유", Source: dm.SourceStructured}, chat)

	got := p.Run(context.Background(), testRef)
	assert.Equal(t, dm.BillAnalysis{
		Summary: "이사의 충실의무 확대",
		Content: "이사의 충실의무 대상에 주주를 추가",
		Impact: dm.Impact{
			Level: dm.ImpactHigh,
			Areas: []string{"경영", "ESG"},
			Details: []dm.ImpactDetail{
				{Headline: "이사회 의사결정 부담 증가", Rationale: "소송 위험 확대"},
				{Headline: "공시 강화", Rationale: "투명성 요구"},
				{Headline: "지배구조 개편 검토", Rationale: "지주회사 체제"},
				{Headline: "단순 문장"},
			},
		},
	}, got)

	require.Len(t, chat.prompts, 1)
	assert.Contains(t, chat.prompts[0], "의안 내용: 제안이유")
}

func TestPipeline_Run_NoContent(t *testing.T) {
	chat := &fakeChatModel{content: `{"summary": "S", "main_content": "C", "SK_innovation_impact": {"impact_level": "낮음", "impact_area": "환경", "key_impact_details": "d"}}`}
	p := newPipeline(dm.EmptyContent(), chat)

	got := p.Run(context.Background(), testRef)
	assert.Equal(t, "S", got.Summary)
	assert.Equal(t, dm.ImpactLow, got.Impact.Level)
	assert.Equal(t, []string{"환경"}, got.Impact.Areas)
	assert.Equal(t, []dm.ImpactDetail{{Headline: "d"}}, got.Impact.Details)

	require.Len(t, chat.prompts, 1)
	assert.Contains(t, chat.prompts[0], provider.NoContentText)
}

func TestPipeline_Run_ProviderFailureUsesMock(t *testing.T) {
	tests := []struct {
		name string
		chat model.BaseChatModel
	}{
		{"no credential", nil},
		{"call error", &fakeChatModel{err: errors.New("503 service unavailable")}},
		{"malformed", &fakeChatModel{content: "not json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newPipeline(dm.EmptyContent(), tt.chat).Run(context.Background(), testRef)

			assert.NotEqual(t, dm.PlaceholderAnalysis(), got)
			assert.Contains(t, got.Summary, testRef.Title)
			assert.Equal(t, dm.ImpactMedium, got.Impact.Level)
			assert.Equal(t, []string{"ESG"}, got.Impact.Areas)
			require.Len(t, got.Impact.Details, 3)
			for _, d := range got.Impact.Details {
				assert.NotEmpty(t, d.Headline)
				assert.NotEmpty(t, d.Rationale)
			}
		})
	}
}

func TestPipeline_Run_NoCredentialIsDeterministic(t *testing.T) {
	p := newPipeline(dm.EmptyContent(), nil)
	assert.Equal(t, p.Run(context.Background(), testRef), p.Run(context.Background(), testRef))
}

func TestPipeline_Run_UnknownShape(t *testing.T) {
	chat := &fakeChatModel{content: `{"analysis": "무언가", "score": 3}`}
	got := newPipeline(dm.EmptyContent(), chat).Run(context.Background(), testRef)
	assert.Equal(t, dm.PlaceholderAnalysis(), got)
}

func TestPipeline_Run_EmptyObject(t *testing.T) {
	chat := &fakeChatModel{content: `{}`}
	got := newPipeline(dm.EmptyContent(), chat).Run(context.Background(), testRef)
	assert.Equal(t, dm.PlaceholderAnalysis(), got)
}

func TestPipeline_Run_EmptyDetailsStayEmpty(t *testing.T) {
	chat := &fakeChatModel{content: `{"summary": "S", "main_content": "C", "SK_innovation_impact": {"impact_level": "낮음", "impact_area": ["ESG"], "key_impact_details": []}}`}
	got := newPipeline(dm.EmptyContent(), chat).Run(context.Background(), testRef)
	assert.Equal(t, dm.ImpactLow, got.Impact.Level)
	assert.NotNil(t, got.Impact.Details)
	assert.Empty(t, got.Impact.Details)
}

// echoAnalyzer 以标题作为摘要，并按序号倒序延迟以打乱完成顺序
type echoAnalyzer struct {
	delays map[string]time.Duration
}

func (a echoAnalyzer) Analyze(_ context.Context, ref dm.BillReference, _ dm.ContentFetchResult) (dm.RawPayload, error) {
	time.Sleep(a.delays[ref.BillNumber])
	return dm.RawPayload{"summary": ref.Title, "main_content": "C"}, nil
}

type fakeLister struct {
	rows map[string][]dm.Bill
	err  error
}

func (f fakeLister) ListBills(_ context.Context, q *source.Query) ([]dm.Bill, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[q.Keyword], nil
}

type fakeArchive struct {
	mu      sync.Mutex
	runs    int
	saved   []string
	saveErr error
}

func (f *fakeArchive) CreateRun(context.Context, []string, string, string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	return 7, nil
}

func (f *fakeArchive) SaveAnalysis(_ context.Context, runID int, entry dm.DigestEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if runID != 7 {
		return fmt.Errorf("unexpected run id %d", runID)
	}
	f.saved = append(f.saved, entry.Bill.BillNo)
	return f.saveErr
}

func makeBills(n int) ([]dm.Bill, map[string]time.Duration) {
	bills := make([]dm.Bill, n)
	delays := make(map[string]time.Duration, n)
	for i := range bills {
		no := fmt.Sprintf("22%05d", i)
		bills[i] = dm.Bill{
			BillID:      "PRC_" + no,
			BillNo:      no,
			Title:       fmt.Sprintf("의안 %d", i),
			ProposeDate: "2025-01-02",
		}
		delays[no] = time.Duration(n-i) * time.Millisecond
	}
	return bills, delays
}

func TestEngine_Run_PreservesOrder(t *testing.T) {
	bills, delays := makeBills(8)
	log := logger.Discard()
	pipeline := NewPipeline(fakeResolver{}, echoAnalyzer{delays: delays}, log)
	archive := &fakeArchive{}
	e := NewEngine(fakeLister{rows: map[string][]dm.Bill{"상법": bills}}, pipeline, archive, 4, log)

	var (
		mu       sync.Mutex
		statuses []string
		last     int
	)
	entries, err := e.Run(context.Background(), RunOptions{
		Keywords:  []string{"상법"},
		StartDate: "2025-01-01",
		EndDate:   "2025-01-07",
		ProgressCallback: func(status string, progress int) {
			mu.Lock()
			defer mu.Unlock()
			statuses = append(statuses, status)
			last = progress
		},
	})
	require.NoError(t, err)
	require.Len(t, entries, len(bills))
	for i, entry := range entries {
		assert.Equal(t, bills[i].BillNo, entry.Bill.BillNo)
		assert.Equal(t, bills[i].Title, entry.Analysis.Summary)
		assert.Equal(t, "상법", entry.Bill.Keyword)
	}

	assert.Equal(t, 1, archive.runs)
	assert.ElementsMatch(t, []string{"2200000", "2200001", "2200002", "2200003", "2200004", "2200005", "2200006", "2200007"}, archive.saved)
	assert.Equal(t, "starting", statuses[0])
	assert.Equal(t, "completed", statuses[len(statuses)-1])
	assert.Equal(t, 100, last)
}

func TestEngine_Run_ArchiveErrorsDoNotFail(t *testing.T) {
	bills, delays := makeBills(2)
	log := logger.Discard()
	archive := &fakeArchive{saveErr: errors.New("connection reset")}
	e := NewEngine(fakeLister{rows: map[string][]dm.Bill{"상법": bills}},
		NewPipeline(fakeResolver{}, echoAnalyzer{delays: delays}, log), archive, 1, log)

	entries, err := e.Run(context.Background(), RunOptions{Keywords: []string{"상법"}})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestEngine_Run_Empty(t *testing.T) {
	log := logger.Discard()
	e := NewEngine(fakeLister{}, NewPipeline(fakeResolver{}, echoAnalyzer{}, log), nil, 0, log)

	entries, err := e.Run(context.Background(), RunOptions{Keywords: []string{"상법"}})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEngine_Run_Errors(t *testing.T) {
	log := logger.Discard()
	pipeline := NewPipeline(fakeResolver{}, echoAnalyzer{}, log)

	_, err := NewEngine(fakeLister{}, pipeline, nil, 1, log).Run(context.Background(), RunOptions{})
	assert.Error(t, err)

	_, err = NewEngine(fakeLister{}, pipeline, nil, 1, log).Run(context.Background(), RunOptions{
		Keywords:  []string{"상법"},
		StartDate: "2025-02-01",
		EndDate:   "2025-01-01",
	})
	assert.Error(t, err)

	_, err = NewEngine(fakeLister{err: errors.New("timeout")}, pipeline, nil, 1, log).Run(context.Background(), RunOptions{
		Keywords: []string{"상법", "공정거래"},
	})
	assert.Error(t, err)
}

func TestDateRange(t *testing.T) {
	now := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	start, end := DateRange(now, 6)
	assert.Equal(t, "2025-02-26", start)
	assert.Equal(t, "2025-03-04", end)
}
