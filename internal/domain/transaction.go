package domain

import "time"

// Transaction is one stored remittance submission. It is created once and
// never updated. Money fields are integer cents.
type Transaction struct {
	ID                   string
	InvoiceDate          time.Time
	InvoiceNumber        string
	InvoiceStatus        string
	MoneyTransmitterCode string
	Sender               Person
	Receiver             Person
	AmountSent           int64
	Fee                  int64
	PaymentMode          string
	CorrespondentID      string
	BankName             string
	AccountNumber        string
	ReceiptURL           string
	CreatedAt            time.Time
	Raw                  map[string]any
}
