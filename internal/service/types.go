package service

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/vanshika/remitdesk/internal/domain"
)

// PersonInput is the inbound shape of a sender or receiver.
type PersonInput struct {
	FullName     string `json:"fullName" validate:"required"`
	Address      string `json:"address" validate:"required"`
	Phone1       string `json:"phone1" validate:"required"`
	Phone2       string `json:"phone2"`
	ZipCode      string `json:"zipCode" validate:"required"`
	CityCode     string `json:"cityCode" validate:"required"`
	StateCode    string `json:"stateCode" validate:"required"`
	CountryCode  string `json:"countryCode" validate:"required"`
	RoleType     string `json:"roleType" validate:"required,oneof=Individual Business"`
	IDType       string `json:"idType" validate:"required,idtype"`
	IDNumber     string `json:"idNumber" validate:"required"`
	BusinessName string `json:"businessName" validate:"required_if=RoleType Business"`
	EIN          string `json:"ein" validate:"required_if=RoleType Business"`
}

// SubmissionInput is the public transaction submission payload.
type SubmissionInput struct {
	InvoiceDate          string      `json:"invoiceDate" validate:"required"`
	InvoiceNumber        string      `json:"invoiceNumber" validate:"required"`
	InvoiceStatus        string      `json:"invoiceStatus" validate:"required"`
	MoneyTransmitterCode string      `json:"moneyTransmitterCode" validate:"required"`
	Sender               PersonInput `json:"sender"`
	Receiver             PersonInput `json:"receiver"`
	AmountSent           AmountInput `json:"amountSent" validate:"required,amount"`
	Fee                  AmountInput `json:"fee" validate:"required,amount"`
	PaymentMode          string      `json:"paymentMode" validate:"required"`
	CorrespondentID      string      `json:"correspondentId" validate:"required"`
	BankName             string      `json:"bankName"`
	AccountNumber        string      `json:"accountNumber" validate:"required"`
	ReceiptURL           string      `json:"receiptUrl"`
}

// AmountInput keeps a monetary JSON value exactly as sent: a string, a
// json.Number, or any other decoded value (which fails validation).
type AmountInput struct {
	value any
}

// NewAmount wraps v, typically a string or json.Number.
func NewAmount(v any) AmountInput {
	return AmountInput{value: v}
}

// Value returns the wrapped value.
func (a AmountInput) Value() any {
	return a.value
}

func (a *AmountInput) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	a.value = v
	return nil
}

func (a AmountInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.value)
}

func (p PersonInput) trimmed() PersonInput {
	return PersonInput{
		FullName:     strings.TrimSpace(p.FullName),
		Address:      strings.TrimSpace(p.Address),
		Phone1:       strings.TrimSpace(p.Phone1),
		Phone2:       strings.TrimSpace(p.Phone2),
		ZipCode:      strings.TrimSpace(p.ZipCode),
		CityCode:     strings.TrimSpace(p.CityCode),
		StateCode:    strings.TrimSpace(p.StateCode),
		CountryCode:  strings.TrimSpace(p.CountryCode),
		RoleType:     strings.TrimSpace(p.RoleType),
		IDType:       strings.TrimSpace(p.IDType),
		IDNumber:     strings.TrimSpace(p.IDNumber),
		BusinessName: strings.TrimSpace(p.BusinessName),
		EIN:          strings.TrimSpace(p.EIN),
	}
}

func (in SubmissionInput) trimmed() SubmissionInput {
	out := in
	out.InvoiceDate = strings.TrimSpace(in.InvoiceDate)
	out.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)
	out.InvoiceStatus = strings.TrimSpace(in.InvoiceStatus)
	out.MoneyTransmitterCode = strings.TrimSpace(in.MoneyTransmitterCode)
	out.Sender = in.Sender.trimmed()
	out.Receiver = in.Receiver.trimmed()
	out.PaymentMode = strings.TrimSpace(in.PaymentMode)
	out.CorrespondentID = strings.TrimSpace(in.CorrespondentID)
	out.BankName = strings.TrimSpace(in.BankName)
	out.AccountNumber = strings.TrimSpace(in.AccountNumber)
	out.ReceiptURL = strings.TrimSpace(in.ReceiptURL)
	return out
}

// AdminListParams filters the admin listing.
type AdminListParams struct {
	Page   int
	Limit  int
	Status string
}

// BankSearchParams filters the bank listing and export. Amounts are cents.
type BankSearchParams struct {
	Page         int
	Limit        int
	From         *time.Time
	To           *time.Time
	Status       string
	SenderName   string
	ReceiverName string
	MinAmount    *int64
	MaxAmount    *int64
}

// PaginationMeta captures pagination metadata returned to API clients.
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// TransactionsPage is one page of transactions with metadata.
type TransactionsPage struct {
	Items      []domain.Transaction
	Pagination PaginationMeta
}
