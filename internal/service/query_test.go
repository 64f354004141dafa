package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/remitdesk/internal/domain"
	"github.com/vanshika/remitdesk/internal/repository"
	"github.com/vanshika/remitdesk/internal/store"
)

func TestNormalizePagination(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 20},
		{-3, -1, 1, 20},
		{2, 50, 2, 50},
		{1, 1000, 1, 200},
	}
	for _, tt := range tests {
		page, limit := normalizePagination(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantLimit, limit)
	}
}

func TestPaginate(t *testing.T) {
	var txs []domain.Transaction
	for i := 0; i < 45; i++ {
		txs = append(txs, domain.Transaction{ID: fmt.Sprintf("t%02d", i)})
	}

	first := paginate(txs, 1, 20)
	assert.Len(t, first.Items, 20)
	assert.Equal(t, PaginationMeta{Page: 1, Limit: 20, Total: 45, TotalPages: 3}, first.Pagination)

	last := paginate(txs, 3, 20)
	assert.Len(t, last.Items, 5)
	assert.Equal(t, "t40", last.Items[0].ID)

	beyond := paginate(txs, 4, 20)
	assert.Empty(t, beyond.Items)
	assert.NotNil(t, beyond.Items)
	assert.Equal(t, int64(45), beyond.Pagination.Total)

	empty := paginate(nil, 1, 20)
	assert.Equal(t, 0, empty.Pagination.TotalPages)
}

func TestParseAdminListParams(t *testing.T) {
	p := ParseAdminListParams(url.Values{"page": {"2"}, "limit": {"abc"}, "status": {" Paid "}})
	assert.Equal(t, AdminListParams{Page: 2, Limit: 0, Status: "Paid"}, p)
}

func TestParseBankSearchParams(t *testing.T) {
	p, err := ParseBankSearchParams(url.Values{
		"from":         {"2025-01-01"},
		"to":           {"2025-01-31T23:59:59Z"},
		"minAmount":    {"10"},
		"maxAmount":    {"99.99"},
		"senderName":   {" ana "},
		"receiverName": {"bo"},
		"status":       {"Paid"},
		"page":         {"3"},
	})
	require.NoError(t, err)
	require.NotNil(t, p.From)
	require.NotNil(t, p.To)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *p.From)
	assert.Equal(t, time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC), *p.To)
	assert.Equal(t, int64(1000), *p.MinAmount)
	assert.Equal(t, int64(9999), *p.MaxAmount)
	assert.Equal(t, "ana", p.SenderName)
	assert.Equal(t, 3, p.Page)

	_, err = ParseBankSearchParams(url.Values{"from": {"yesterday"}, "maxAmount": {"$5"}})
	assert.ElementsMatch(t, []string{"from", "maxAmount"}, fieldsOf(t, err))

	p, err = ParseBankSearchParams(url.Values{})
	require.NoError(t, err)
	assert.Nil(t, p.From)
	assert.Nil(t, p.MinAmount)
}

func TestFilterTransactions(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		txFixture("1", "Ana Souza", "Bob Lee", 500, base),
		txFixture("2", "Carlos Ana", "Dana", 1500, base),
		txFixture("3", "Eve", "BOBBY Tables", 2500, base),
	}

	floor := int64(1000)
	ceiling := int64(2000)
	tests := []struct {
		name   string
		params BankSearchParams
		want   []string
	}{
		{"no filters", BankSearchParams{}, []string{"1", "2", "3"}},
		{"sender substring case-insensitive", BankSearchParams{SenderName: "ANA"}, []string{"1", "2"}},
		{"receiver substring", BankSearchParams{ReceiverName: "bob"}, []string{"1", "3"}},
		{"min amount inclusive", BankSearchParams{MinAmount: &floor}, []string{"2", "3"}},
		{"amount range", BankSearchParams{MinAmount: &floor, MaxAmount: &ceiling}, []string{"2"}},
		{"combined", BankSearchParams{SenderName: "ana", ReceiverName: "dana"}, []string{"2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, tx := range filterTransactions(txs, tt.params) {
				got = append(got, tx.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func seedService(t *testing.T, n int) (*TransactionService, time.Time) {
	t.Helper()
	repo := repository.New(store.NewMemoryStore())
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		status := "Paid"
		if i%3 == 0 {
			status = "Pending"
		}
		tx := txFixture(fmt.Sprintf("tx-%02d", i), fmt.Sprintf("Sender %d", i), "Receiver", int64(i*100), base.Add(time.Duration(i)*time.Hour))
		tx.InvoiceStatus = status
		require.NoError(t, repo.InsertTransaction(context.Background(), tx))
	}
	return NewTransactionService(repo, time.UTC), base
}

func TestTransactionService_ListTransactions(t *testing.T) {
	svc, _ := seedService(t, 25)

	page, err := svc.ListTransactions(context.Background(), AdminListParams{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, PaginationMeta{Page: 2, Limit: 10, Total: 25, TotalPages: 3}, page.Pagination)
	require.Len(t, page.Items, 10)
	assert.Equal(t, "tx-14", page.Items[0].ID, "newest first")

	pending, err := svc.ListTransactions(context.Background(), AdminListParams{Status: "Pending"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), pending.Pagination.Total)
	for _, tx := range pending.Items {
		assert.Equal(t, "Pending", tx.InvoiceStatus)
	}
}

func TestTransactionService_SearchAndExport(t *testing.T) {
	svc, base := seedService(t, 30)
	from := base.Add(10 * time.Hour)
	to := base.Add(20 * time.Hour)
	floor := int64(1200)

	params := BankSearchParams{From: &from, To: &to, MinAmount: &floor, Limit: 5}
	page, err := svc.SearchTransactions(context.Background(), params)
	require.NoError(t, err)
	// Hours 12..20 inclusive match both the range and the amount floor.
	assert.Equal(t, int64(9), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, "tx-20", page.Items[0].ID)

	all, err := svc.ExportTransactions(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, all, 9)

	again, err := svc.ExportTransactions(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, all, again, "reads are repeatable")
}

func TestTransactionService_SearchPushesDownStoreFilters(t *testing.T) {
	repo := &stubRepository{}
	svc := NewTransactionService(repo, time.UTC)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.SearchTransactions(context.Background(), BankSearchParams{From: &from, Status: "Paid", SenderName: "x"})
	require.NoError(t, err)
	require.Len(t, repo.filters, 1)
	assert.Equal(t, &from, repo.filters[0].CreatedFrom)
	assert.Nil(t, repo.filters[0].CreatedTo)
	assert.Equal(t, "Paid", repo.filters[0].Status)
}

func TestTransactionService_GetTransaction(t *testing.T) {
	svc, _ := seedService(t, 2)

	tx, err := svc.GetTransaction(context.Background(), "tx-01")
	require.NoError(t, err)
	assert.Equal(t, "Sender 1", tx.Sender.FullName)

	_, err = svc.GetTransaction(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("boom")
	broken := NewTransactionService(&stubRepository{getErr: boom}, nil)
	_, err = broken.GetTransaction(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestTransactionService_ListPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := NewTransactionService(&stubRepository{findErr: boom}, nil)

	_, err := svc.ListTransactions(context.Background(), AdminListParams{})
	assert.ErrorIs(t, err, boom)
	_, err = svc.SearchTransactions(context.Background(), BankSearchParams{})
	assert.ErrorIs(t, err, boom)
}
