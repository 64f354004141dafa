package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vanshika/remitdesk/internal/domain"
	"github.com/vanshika/remitdesk/internal/store"
)

// Collection holds every submitted transaction.
const Collection = "transactions"

// ErrNotFound is returned when no transaction has the requested id.
var ErrNotFound = errors.New("transaction not found")

// TransactionFilter holds the predicates the store evaluates natively.
type TransactionFilter struct {
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Status      string
}

// Repository maps transactions to and from store documents.
type Repository struct {
	store store.Store
}

// New instantiates a Repository backed by the supplied store.
func New(s store.Store) *Repository {
	return &Repository{store: s}
}

// InsertTransaction stores tx under tx.ID.
func (r *Repository) InsertTransaction(ctx context.Context, tx domain.Transaction) error {
	if tx.ID == "" {
		return errors.New("transaction id is required")
	}
	if err := r.store.InsertWithID(ctx, Collection, tx.ID, transactionFields(tx)); err != nil {
		return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
	}
	return nil
}

// GetTransaction loads one transaction by id.
func (r *Repository) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return transactionFromDocument(doc), nil
}

// FindTransactions returns every transaction matching f, newest first.
func (r *Repository) FindTransactions(ctx context.Context, f TransactionFilter) ([]domain.Transaction, error) {
	q := store.NewQuery(Collection)
	if f.CreatedFrom != nil {
		q.Where("createdAt", store.OpGte, *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q.Where("createdAt", store.OpLte, *f.CreatedTo)
	}
	if f.Status != "" {
		q.Where("invoiceStatus", store.OpEq, f.Status)
	}
	q.OrderBy("createdAt", store.Desc)

	docs, err := r.store.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(docs))
	for _, doc := range docs {
		txs = append(txs, transactionFromDocument(doc))
	}
	return txs, nil
}

// Ping probes the underlying store.
func (r *Repository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// transactionFields stores instants in UTC.
func transactionFields(tx domain.Transaction) map[string]any {
	fields := map[string]any{
		"invoiceDate":          tx.InvoiceDate.UTC(),
		"invoiceNumber":        tx.InvoiceNumber,
		"invoiceStatus":        tx.InvoiceStatus,
		"moneyTransmitterCode": tx.MoneyTransmitterCode,
		"sender":               personFields(tx.Sender),
		"receiver":             personFields(tx.Receiver),
		"amountSent":           tx.AmountSent,
		"fee":                  tx.Fee,
		"paymentMode":          tx.PaymentMode,
		"correspondentId":      tx.CorrespondentID,
		"bankName":             tx.BankName,
		"accountNumber":        tx.AccountNumber,
		"createdAt":            tx.CreatedAt.UTC(),
	}
	if tx.ReceiptURL != "" {
		fields["receiptUrl"] = tx.ReceiptURL
	}
	if tx.Raw != nil {
		fields["raw"] = tx.Raw
	}
	return fields
}

func personFields(p domain.Person) map[string]any {
	fields := map[string]any{
		"fullName":    p.FullName,
		"address":     p.Address,
		"phone1":      p.Phone1,
		"zipCode":     p.ZipCode,
		"cityCode":    p.CityCode,
		"stateCode":   p.StateCode,
		"countryCode": p.CountryCode,
		"roleType":    string(p.RoleType),
		"idType":      string(p.IDType),
		"idNumber":    p.IDNumber,
	}
	if p.Phone2 != "" {
		fields["phone2"] = p.Phone2
	}
	if p.BusinessName != "" {
		fields["businessName"] = p.BusinessName
	}
	if p.EIN != "" {
		fields["ein"] = p.EIN
	}
	return fields
}

func transactionFromDocument(doc store.Document) domain.Transaction {
	f := doc.Fields
	tx := domain.Transaction{
		ID:                   doc.ID,
		InvoiceNumber:        toString(f["invoiceNumber"]),
		InvoiceStatus:        toString(f["invoiceStatus"]),
		MoneyTransmitterCode: toString(f["moneyTransmitterCode"]),
		Sender:               personFromValue(f["sender"]),
		Receiver:             personFromValue(f["receiver"]),
		AmountSent:           toInt64(f["amountSent"]),
		Fee:                  toInt64(f["fee"]),
		PaymentMode:          toString(f["paymentMode"]),
		CorrespondentID:      toString(f["correspondentId"]),
		BankName:             toString(f["bankName"]),
		AccountNumber:        toString(f["accountNumber"]),
		ReceiptURL:           toString(f["receiptUrl"]),
	}
	if ts := toTimePtr(f["invoiceDate"]); ts != nil {
		tx.InvoiceDate = *ts
	}
	if ts := toTimePtr(f["createdAt"]); ts != nil {
		tx.CreatedAt = *ts
	}
	if raw, ok := f["raw"].(map[string]any); ok {
		tx.Raw = raw
	}
	return tx
}

func personFromValue(val any) domain.Person {
	m, _ := val.(map[string]any)
	return domain.Person{
		FullName:     toString(m["fullName"]),
		Address:      toString(m["address"]),
		Phone1:       toString(m["phone1"]),
		Phone2:       toString(m["phone2"]),
		ZipCode:      toString(m["zipCode"]),
		CityCode:     toString(m["cityCode"]),
		StateCode:    toString(m["stateCode"]),
		CountryCode:  toString(m["countryCode"]),
		RoleType:     domain.RoleType(toString(m["roleType"])),
		IDType:       domain.IDType(toString(m["idType"])),
		IDNumber:     toString(m["idNumber"]),
		BusinessName: toString(m["businessName"]),
		EIN:          toString(m["ein"]),
	}
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toInt64(val any) int64 {
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	default:
		return 0
	}
}

func toTimePtr(val any) *time.Time {
	switch v := val.(type) {
	case time.Time:
		return &v
	case string:
		if v == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &parsed
		}
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			return &parsed
		}
	}
	return nil
}
