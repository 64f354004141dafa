package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vanshika/remitdesk/internal/domain"
	"github.com/vanshika/remitdesk/internal/service"
)

const defaultMaxBodyBytes = 10 << 20

// TransactionService is the subset of service.TransactionService the handlers use.
type TransactionService interface {
	Submit(ctx context.Context, input service.SubmissionInput, raw map[string]any) (string, error)
	GetTransaction(ctx context.Context, id string) (domain.Transaction, error)
	ListTransactions(ctx context.Context, params service.AdminListParams) (service.TransactionsPage, error)
	SearchTransactions(ctx context.Context, params service.BankSearchParams) (service.TransactionsPage, error)
	ExportTransactions(ctx context.Context, params service.BankSearchParams) ([]domain.Transaction, error)
}

// HandlerOptions tunes APIHandlers.
type HandlerOptions struct {
	MaxBodyBytes int64
	Development  bool
}

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger       *slog.Logger
	service      TransactionService
	errors       errorResponder
	maxBodyBytes int64
	nowFn        func() time.Time
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc TransactionService, opts HandlerOptions) *APIHandlers {
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &APIHandlers{
		logger:       logger,
		service:      svc,
		errors:       errorResponder{logger: logger, development: opts.Development},
		maxBodyBytes: maxBody,
		nowFn:        time.Now,
	}
}

func (h *APIHandlers) createTransaction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.errors.respond(w, r, err)
		return
	}

	input, raw, err := service.DecodeSubmission(body)
	if err != nil {
		h.errors.respond(w, r, err)
		return
	}

	id, err := h.service.Submit(r.Context(), input, raw)
	if err != nil {
		h.errors.respond(w, r, err)
		return
	}

	h.logger.Info("transaction created", "id", id)
	respondJSON(w, http.StatusCreated, createdResponse{
		Success: true,
		ID:      id,
		Message: "Transaction created successfully",
	})
}

func (h *APIHandlers) listTransactions(w http.ResponseWriter, r *http.Request) {
	params := service.ParseAdminListParams(r.URL.Query())
	page, err := h.service.ListTransactions(r.Context(), params)
	if err != nil {
		h.errors.respond(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newListResponse(page))
}

func (h *APIHandlers) getTransaction(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/transactions/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	tx, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		h.errors.respond(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, transactionEnvelope{
		Success: true,
		Data:    newTransactionResponse(tx),
	})
}

func (h *APIHandlers) bankTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params, err := service.ParseBankSearchParams(query)
	if err != nil {
		h.errors.respond(w, r, err)
		return
	}

	if strings.EqualFold(query.Get("export"), "csv") {
		h.exportCSV(w, r, params)
		return
	}

	page, err := h.service.SearchTransactions(r.Context(), params)
	if err != nil {
		h.errors.respond(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newListResponse(page))
}

func (h *APIHandlers) exportCSV(w http.ResponseWriter, r *http.Request, params service.BankSearchParams) {
	txs, err := h.service.ExportTransactions(r.Context(), params)
	if err != nil {
		h.errors.respond(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := service.WriteCSV(&buf, txs); err != nil {
		h.errors.respond(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+service.ExportFilename(h.nowFn())+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("csv export write failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
