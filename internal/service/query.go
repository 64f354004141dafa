package service

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vanshika/remitdesk/internal/domain"
	"github.com/vanshika/remitdesk/internal/normalize"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

var filterTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseAdminListParams reads page, limit and status from a query string.
// Unparsable page or limit values fall back to defaults.
func ParseAdminListParams(values url.Values) AdminListParams {
	return AdminListParams{
		Page:   atoiOrZero(values.Get("page")),
		Limit:  atoiOrZero(values.Get("limit")),
		Status: strings.TrimSpace(values.Get("status")),
	}
}

// ParseBankSearchParams reads the bank filters from a query string. Malformed
// from, to, minAmount or maxAmount values yield a *ValidationError.
func ParseBankSearchParams(values url.Values) (BankSearchParams, error) {
	params := BankSearchParams{
		Page:         atoiOrZero(values.Get("page")),
		Limit:        atoiOrZero(values.Get("limit")),
		Status:       strings.TrimSpace(values.Get("status")),
		SenderName:   strings.TrimSpace(values.Get("senderName")),
		ReceiverName: strings.TrimSpace(values.Get("receiverName")),
	}

	var verr ValidationError
	if raw := strings.TrimSpace(values.Get("from")); raw != "" {
		t, err := parseFilterTime(raw)
		if err != nil {
			verr.Errors = append(verr.Errors, FieldError{Field: "from", Message: "from must be an ISO-8601 date or datetime"})
		} else {
			params.From = &t
		}
	}
	if raw := strings.TrimSpace(values.Get("to")); raw != "" {
		t, err := parseFilterTime(raw)
		if err != nil {
			verr.Errors = append(verr.Errors, FieldError{Field: "to", Message: "to must be an ISO-8601 date or datetime"})
		} else {
			params.To = &t
		}
	}
	if raw := strings.TrimSpace(values.Get("minAmount")); raw != "" {
		cents, err := normalize.DollarsToCents(raw)
		if err != nil {
			verr.Errors = append(verr.Errors, FieldError{Field: "minAmount", Message: "minAmount must be a non-negative number"})
		} else {
			params.MinAmount = &cents
		}
	}
	if raw := strings.TrimSpace(values.Get("maxAmount")); raw != "" {
		cents, err := normalize.DollarsToCents(raw)
		if err != nil {
			verr.Errors = append(verr.Errors, FieldError{Field: "maxAmount", Message: "maxAmount must be a non-negative number"})
		} else {
			params.MaxAmount = &cents
		}
	}

	if len(verr.Errors) > 0 {
		return BankSearchParams{}, &verr
	}
	return params, nil
}

// parseFilterTime reads zoneless inputs as UTC.
func parseFilterTime(raw string) (time.Time, error) {
	for _, layout := range filterTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", raw)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// filterTransactions applies the predicates the store cannot evaluate.
func filterTransactions(txs []domain.Transaction, params BankSearchParams) []domain.Transaction {
	sender := strings.ToLower(params.SenderName)
	receiver := strings.ToLower(params.ReceiverName)

	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if sender != "" && !strings.Contains(strings.ToLower(tx.Sender.FullName), sender) {
			continue
		}
		if receiver != "" && !strings.Contains(strings.ToLower(tx.Receiver.FullName), receiver) {
			continue
		}
		if params.MinAmount != nil && tx.AmountSent < *params.MinAmount {
			continue
		}
		if params.MaxAmount != nil && tx.AmountSent > *params.MaxAmount {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func normalizePagination(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func paginate(txs []domain.Transaction, page, limit int) TransactionsPage {
	total := int64(len(txs))
	start := (page - 1) * limit
	items := []domain.Transaction{}
	if start >= 0 && start < len(txs) {
		end := start + limit
		if end > len(txs) {
			end = len(txs)
		}
		items = txs[start:end]
	}
	return TransactionsPage{
		Items:      items,
		Pagination: buildPaginationMeta(page, limit, total),
	}
}

func buildPaginationMeta(page, limit int, total int64) PaginationMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PaginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
