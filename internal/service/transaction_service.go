package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/remitdesk/internal/domain"
	"github.com/vanshika/remitdesk/internal/repository"
)

// ErrNotFound is returned when a transaction id does not exist.
var ErrNotFound = errors.New("transaction not found")

// TransactionRepository is the storage contract required by the transaction service.
type TransactionRepository interface {
	InsertTransaction(ctx context.Context, tx domain.Transaction) error
	GetTransaction(ctx context.Context, id string) (domain.Transaction, error)
	FindTransactions(ctx context.Context, f repository.TransactionFilter) ([]domain.Transaction, error)
}

// TransactionService accepts public submissions and serves back-office reads.
type TransactionService struct {
	repo  TransactionRepository
	loc   *time.Location
	nowFn func() time.Time
	idFn  func() string
}

// NewTransactionService constructs a TransactionService. loc is the location
// legacy invoice dates are interpreted in; nil means time.Local.
func NewTransactionService(repo TransactionRepository, loc *time.Location) *TransactionService {
	if loc == nil {
		loc = time.Local
	}
	return &TransactionService{
		repo:  repo,
		loc:   loc,
		nowFn: time.Now,
		idFn:  uuid.NewString,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *TransactionService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// WithIDGenerator overrides record id generation (used primarily in tests).
func (s *TransactionService) WithIDGenerator(idFn func() string) {
	if idFn != nil {
		s.idFn = idFn
	}
}

// Submit validates, normalizes and stores a public submission, returning the new id.
func (s *TransactionService) Submit(ctx context.Context, input SubmissionInput, raw map[string]any) (string, error) {
	tx, err := BuildTransaction(input, raw, s.nowFn().UTC(), s.loc)
	if err != nil {
		return "", err
	}
	tx.ID = s.idFn()

	if err := s.repo.InsertTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("store transaction: %w", err)
	}
	return tx.ID, nil
}

// GetTransaction returns one transaction by id.
func (s *TransactionService) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// ListTransactions serves the admin listing: optional status, newest first, paginated.
func (s *TransactionService) ListTransactions(ctx context.Context, params AdminListParams) (TransactionsPage, error) {
	page, limit := normalizePagination(params.Page, params.Limit)

	txs, err := s.repo.FindTransactions(ctx, repository.TransactionFilter{Status: params.Status})
	if err != nil {
		return TransactionsPage{}, err
	}
	return paginate(txs, page, limit), nil
}

// SearchTransactions serves the bank listing with every filter applied before pagination.
func (s *TransactionService) SearchTransactions(ctx context.Context, params BankSearchParams) (TransactionsPage, error) {
	page, limit := normalizePagination(params.Page, params.Limit)

	txs, err := s.search(ctx, params)
	if err != nil {
		return TransactionsPage{}, err
	}
	return paginate(txs, page, limit), nil
}

// ExportTransactions returns every transaction matching params, unpaginated.
func (s *TransactionService) ExportTransactions(ctx context.Context, params BankSearchParams) ([]domain.Transaction, error) {
	return s.search(ctx, params)
}

func (s *TransactionService) search(ctx context.Context, params BankSearchParams) ([]domain.Transaction, error) {
	txs, err := s.repo.FindTransactions(ctx, repository.TransactionFilter{
		CreatedFrom: params.From,
		CreatedTo:   params.To,
		Status:      params.Status,
	})
	if err != nil {
		return nil, err
	}
	return filterTransactions(txs, params), nil
}
