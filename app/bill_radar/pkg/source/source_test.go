package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/logger"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/model"
)

type fakeLister struct {
	rows map[string][]model.Bill
	errs map[string]error
}

func (f *fakeLister) ListBills(_ context.Context, q *Query) ([]model.Bill, error) {
	if err := f.errs[q.Keyword]; err != nil {
		return nil, err
	}
	return f.rows[q.Keyword], nil
}

func TestCollect_FiltersAndDedupes(t *testing.T) {
	l := &fakeLister{rows: map[string][]model.Bill{
		"상법": {
			{BillID: "A", Title: "상법 일부개정법률안", ProposeDate: "2025-06-20"},
			{BillID: "B", Title: "상법 시행법", ProposeDate: "2025-06-01"},
		},
		"공정거래": {
			{BillID: "A", Title: "상법 일부개정법률안", ProposeDate: "2025-06-20"},
			{BillID: "C", Title: "공정거래법 개정안", ProposeDate: "2025-06-24"},
		},
	}}

	bills, err := Collect(context.Background(), l, []string{"상법", " ", "공정거래"}, "2025-06-18", "2025-06-24", logger.Discard())
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, "A", bills[0].BillID)
	assert.Equal(t, "상법", bills[0].Keyword)
	assert.Equal(t, "C", bills[1].BillID)
	assert.Equal(t, "공정거래", bills[1].Keyword)
}

func TestCollect_PartialFailure(t *testing.T) {
	l := &fakeLister{
		rows: map[string][]model.Bill{"공정거래": {{BillID: "C", ProposeDate: "2025-06-24"}}},
		errs: map[string]error{"상법": errors.New("boom")},
	}
	bills, err := Collect(context.Background(), l, []string{"상법", "공정거래"}, "", "", logger.Discard())
	require.NoError(t, err)
	assert.Len(t, bills, 1)
}

func TestCollect_AllFail(t *testing.T) {
	boom := errors.New("boom")
	l := &fakeLister{errs: map[string]error{"상법": boom}}
	_, err := Collect(context.Background(), l, []string{"상법"}, "", "", logger.Discard())
	assert.ErrorIs(t, err, boom)
}

func TestInRange(t *testing.T) {
	assert.True(t, InRange("2025-06-20", "2025-06-18", "2025-06-24"))
	assert.True(t, InRange("2025-06-18", "2025-06-18", "2025-06-24"))
	assert.True(t, InRange("2025-06-24 10:00:00", "2025-06-18", "2025-06-24"))
	assert.False(t, InRange("2025-06-25", "2025-06-18", "2025-06-24"))
	assert.False(t, InRange("2025-06-17", "2025-06-18", ""))
	assert.False(t, InRange("", "2025-06-18", "2025-06-24"))
	assert.True(t, InRange("", "", ""))
}
