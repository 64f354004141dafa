package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vanshika/remitdesk/internal/domain"
	"github.com/vanshika/remitdesk/internal/repository"
)

const validSubmissionJSON = `{
	"invoiceDate": "15/07/2025",
	"invoiceNumber": "  INV-1001 ",
	"invoiceStatus": "Paid",
	"moneyTransmitterCode": "MT-7",
	"sender": {
		"fullName": " Maria Lopez ",
		"address": "12 Elm St",
		"phone1": "+15550001111",
		"zipCode": "10001",
		"cityCode": "NYC",
		"stateCode": "NY",
		"countryCode": "US",
		"roleType": "Individual",
		"idType": "Passport",
		"idNumber": "X1234567",
		"businessName": "   ",
		"ein": ""
	},
	"receiver": {
		"fullName": "Lopez Imports",
		"address": "Calle 5",
		"phone1": "+525512345678",
		"phone2": " +525598765432 ",
		"zipCode": "06600",
		"cityCode": "CDMX",
		"stateCode": "CMX",
		"countryCode": "MX",
		"roleType": "Business",
		"idType": "EIN",
		"idNumber": "98-7654321",
		"businessName": "Lopez Imports SA",
		"ein": "98-7654321"
	},
	"amountSent": "$200,00",
	"fee": 3.5,
	"paymentMode": "Cash",
	"correspondentId": "CORR-9",
	"bankName": " Banco Azteca ",
	"accountNumber": "0011223344",
	"receiptUrl": "https://receipts.example.com/1001.pdf"
}`

func decodeValid(t *testing.T) (SubmissionInput, map[string]any) {
	t.Helper()
	in, raw, err := DecodeSubmission([]byte(validSubmissionJSON))
	require.NoError(t, err)
	return in, raw
}

func mutateSubmission(t *testing.T, mutate func(m map[string]any)) (SubmissionInput, map[string]any) {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(validSubmissionJSON), &m))
	mutate(m)
	body, err := json.Marshal(m)
	require.NoError(t, err)
	in, raw, err := DecodeSubmission(body)
	require.NoError(t, err)
	return in, raw
}

type stubRepository struct {
	inserted  []domain.Transaction
	insertErr error
	found     []domain.Transaction
	findErr   error
	filters   []repository.TransactionFilter
	getErr    error
}

func (s *stubRepository) InsertTransaction(_ context.Context, tx domain.Transaction) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, tx)
	return nil
}

func (s *stubRepository) GetTransaction(_ context.Context, id string) (domain.Transaction, error) {
	if s.getErr != nil {
		return domain.Transaction{}, s.getErr
	}
	for _, tx := range s.inserted {
		if tx.ID == id {
			return tx, nil
		}
	}
	return domain.Transaction{}, repository.ErrNotFound
}

func (s *stubRepository) FindTransactions(_ context.Context, f repository.TransactionFilter) ([]domain.Transaction, error) {
	s.filters = append(s.filters, f)
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.found, nil
}

func txFixture(id, sender, receiver string, amount int64, created time.Time) domain.Transaction {
	return domain.Transaction{
		ID:            id,
		InvoiceDate:   created,
		InvoiceNumber: "INV-" + id,
		InvoiceStatus: "Paid",
		Sender:        domain.Person{FullName: sender},
		Receiver:      domain.Person{FullName: receiver},
		AmountSent:    amount,
		Fee:           100,
		PaymentMode:   "Cash",
		CreatedAt:     created,
	}
}
