package server

import (
	"time"

	"github.com/vanshika/remitdesk/internal/domain"
	"github.com/vanshika/remitdesk/internal/service"
)

type timestampResponse struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int32 `json:"nanoseconds"`
}

type personResponse struct {
	FullName     string  `json:"fullName"`
	Address      string  `json:"address"`
	Phone1       string  `json:"phone1"`
	Phone2       *string `json:"phone2"`
	ZipCode      string  `json:"zipCode"`
	CityCode     string  `json:"cityCode"`
	StateCode    string  `json:"stateCode"`
	CountryCode  string  `json:"countryCode"`
	RoleType     string  `json:"roleType"`
	IDType       string  `json:"idType"`
	IDNumber     string  `json:"idNumber"`
	BusinessName string  `json:"businessName,omitempty"`
	EIN          string  `json:"ein,omitempty"`
}

type transactionResponse struct {
	ID                   string             `json:"id"`
	InvoiceDate          *timestampResponse `json:"invoiceDate"`
	InvoiceNumber        string             `json:"invoiceNumber"`
	InvoiceStatus        string             `json:"invoiceStatus"`
	MoneyTransmitterCode string             `json:"moneyTransmitterCode"`
	Sender               personResponse     `json:"sender"`
	Receiver             personResponse     `json:"receiver"`
	AmountSent           int64              `json:"amountSent"`
	Fee                  int64              `json:"fee"`
	PaymentMode          string             `json:"paymentMode"`
	CorrespondentID      string             `json:"correspondentId"`
	BankName             string             `json:"bankName"`
	AccountNumber        string             `json:"accountNumber"`
	ReceiptURL           string             `json:"receiptUrl,omitempty"`
	CreatedAt            *timestampResponse `json:"createdAt"`
	Raw                  map[string]any     `json:"raw,omitempty"`
}

type listTransactionsResponse struct {
	Success    bool                   `json:"success"`
	Data       []transactionResponse  `json:"data"`
	Pagination service.PaginationMeta `json:"pagination"`
}

type transactionEnvelope struct {
	Success bool                `json:"success"`
	Data    transactionResponse `json:"data"`
}

type createdResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

type validationErrorResponse struct {
	Error   string               `json:"error"`
	Details []service.FieldError `json:"details"`
}

func newTimestamp(t time.Time) *timestampResponse {
	if t.IsZero() {
		return nil
	}
	return &timestampResponse{
		Seconds:     t.Unix(),
		Nanoseconds: int32(t.Nanosecond()),
	}
}

func newPersonResponse(p domain.Person) personResponse {
	out := personResponse{
		FullName:     p.FullName,
		Address:      p.Address,
		Phone1:       p.Phone1,
		ZipCode:      p.ZipCode,
		CityCode:     p.CityCode,
		StateCode:    p.StateCode,
		CountryCode:  p.CountryCode,
		RoleType:     string(p.RoleType),
		IDType:       string(p.IDType),
		IDNumber:     p.IDNumber,
		BusinessName: p.BusinessName,
		EIN:          p.EIN,
	}
	if p.Phone2 != "" {
		phone2 := p.Phone2
		out.Phone2 = &phone2
	}
	return out
}

func newTransactionResponse(tx domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:                   tx.ID,
		InvoiceDate:          newTimestamp(tx.InvoiceDate),
		InvoiceNumber:        tx.InvoiceNumber,
		InvoiceStatus:        tx.InvoiceStatus,
		MoneyTransmitterCode: tx.MoneyTransmitterCode,
		Sender:               newPersonResponse(tx.Sender),
		Receiver:             newPersonResponse(tx.Receiver),
		AmountSent:           tx.AmountSent,
		Fee:                  tx.Fee,
		PaymentMode:          tx.PaymentMode,
		CorrespondentID:      tx.CorrespondentID,
		BankName:             tx.BankName,
		AccountNumber:        tx.AccountNumber,
		ReceiptURL:           tx.ReceiptURL,
		CreatedAt:            newTimestamp(tx.CreatedAt),
		Raw:                  tx.Raw,
	}
}

func newListResponse(page service.TransactionsPage) listTransactionsResponse {
	data := make([]transactionResponse, 0, len(page.Items))
	for _, tx := range page.Items {
		data = append(data, newTransactionResponse(tx))
	}
	return listTransactionsResponse{
		Success:    true,
		Data:       data,
		Pagination: page.Pagination,
	}
}
