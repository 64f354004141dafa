package service

import (
	"fmt"
	"net/url"
	"time"

	"github.com/vanshika/remitdesk/internal/domain"
	"github.com/vanshika/remitdesk/internal/normalize"
)

// BuildTransaction validates and normalizes a submission into a transaction
// record stamped with createdAt = now. The ID is left for the caller to assign.
func BuildTransaction(input SubmissionInput, raw map[string]any, now time.Time, loc *time.Location) (domain.Transaction, error) {
	in := input.trimmed()
	if err := ValidateSubmission(in); err != nil {
		return domain.Transaction{}, err
	}

	amountSent, err := normalize.ParseCents(in.AmountSent.Value())
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("amountSent: %w", err)
	}
	fee, err := normalize.ParseCents(in.Fee.Value())
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("fee: %w", err)
	}
	invoiceDate, err := normalize.ParseInvoiceDateIn(in.InvoiceDate, loc)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invoiceDate: %w", err)
	}

	return domain.Transaction{
		InvoiceDate:          invoiceDate,
		InvoiceNumber:        in.InvoiceNumber,
		InvoiceStatus:        in.InvoiceStatus,
		MoneyTransmitterCode: in.MoneyTransmitterCode,
		Sender:               buildPerson(in.Sender),
		Receiver:             buildPerson(in.Receiver),
		AmountSent:           amountSent,
		Fee:                  fee,
		PaymentMode:          in.PaymentMode,
		CorrespondentID:      in.CorrespondentID,
		BankName:             in.BankName,
		AccountNumber:        in.AccountNumber,
		ReceiptURL:           validReceiptURL(in.ReceiptURL),
		CreatedAt:            now,
		Raw:                  raw,
	}, nil
}

func buildPerson(p PersonInput) domain.Person {
	return domain.Person{
		FullName:     p.FullName,
		Address:      p.Address,
		Phone1:       p.Phone1,
		Phone2:       p.Phone2,
		ZipCode:      p.ZipCode,
		CityCode:     p.CityCode,
		StateCode:    p.StateCode,
		CountryCode:  p.CountryCode,
		RoleType:     domain.RoleType(p.RoleType),
		IDType:       domain.IDType(p.IDType),
		IDNumber:     p.IDNumber,
		BusinessName: p.BusinessName,
		EIN:          p.EIN,
	}
}

// validReceiptURL keeps only absolute http(s) URLs.
func validReceiptURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return raw
}
