package model_test

import (
	"testing"
	"time"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
	"github.com/stretchr/testify/require"
)

func TestFormatID(t *testing.T) {
	t.Parallel()
	require.Equal(t, "MEM000123", model.FormatID(model.IDMember, 123))
	require.Equal(t, "LN000045", model.FormatID(model.IDLoan, 45))
	require.Equal(t, "TX00000099", model.FormatID(model.IDTransaction, 99))
	require.Equal(t, "BK000001", model.FormatID(model.IDBook, 1))
	require.Equal(t, "CP1234567", model.FormatID(model.IDCopy, 1234567))
}

func TestLoan_Effective(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	active := model.Loan{Status: model.LoanActive, DueAt: now.Add(time.Hour)}
	require.Equal(t, model.LoanActive, active.Effective(now).Status)

	late := model.Loan{Status: model.LoanActive, DueAt: now.Add(-time.Hour)}
	require.Equal(t, model.LoanOverdue, late.Effective(now).Status)
	require.Equal(t, model.LoanActive, late.Status)

	returned := model.Loan{Status: model.LoanReturned, DueAt: now.Add(-time.Hour)}
	require.Equal(t, model.LoanReturned, returned.Effective(now).Status)
}

func TestSubscription_Expired(t *testing.T) {
	t.Parallel()
	now := time.Now()
	require.False(t, model.Subscription{}.Expired(now))

	sub := model.DefaultSubscription(now)
	require.False(t, sub.Expired(now))
	require.True(t, sub.Expired(now.AddDate(2, 0, 0)))
	require.Equal(t, 5, sub.MaxLoans)
	require.Equal(t, 14, sub.LoanDuration)
}

func TestNewPage(t *testing.T) {
	t.Parallel()
	require.Equal(t, model.Page{Skip: 0, Limit: 20}, model.NewPage(-1, 0, 20))
	require.Equal(t, model.Page{Skip: 5, Limit: 100}, model.NewPage(5, 500, 20))
	require.Equal(t, model.Page{Skip: 0, Limit: 7}, model.NewPage(0, 7, 20))
}

func TestBookUpdate_Fields(t *testing.T) {
	t.Parallel()
	title := "Dune"
	year := 1965
	fields := model.BookUpdate{Title: &title, PublishedYear: &year}.Fields()
	require.Equal(t, map[string]any{"title": "Dune", "published_year": 1965}, fields)
	require.Empty(t, model.BookUpdate{}.Fields())
}
