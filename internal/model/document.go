package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind identifies one of the document variants.
type Kind string

const (
	KindInvoice   Kind = "invoice"
	KindQuotation Kind = "quotation"
	KindReceipt   Kind = "receipt"
)

// ErrUnknownKind is returned by ParseKind for anything outside Kinds().
var ErrUnknownKind = errors.New("unknown document type")

// Kinds returns all document kinds in display order.
func Kinds() []Kind {
	return []Kind{KindInvoice, KindQuotation, KindReceipt}
}

// ParseKind converts a CLI or file value into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindInvoice, KindQuotation, KindReceipt:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w %q (valid types: invoice, quotation, receipt)", ErrUnknownKind, s)
	}
}

// TaxType selects whether tax is added on top of or withheld from the subtotal.
type TaxType string

const (
	TaxWithholding TaxType = "withholding"
	TaxVAT         TaxType = "vat"
)

// AutoNumber is the documentNumber sentinel that asks the counter for a number.
const AutoNumber = "auto"

// LineItem is one billable row of a document.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Total returns quantity × unit price, unrounded.
func (li LineItem) Total() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// InvoiceDetails holds the fields only an invoice carries.
type InvoiceDetails struct {
	DueDate string
}

// QuotationDetails holds the fields only a quotation carries.
type QuotationDetails struct {
	ValidUntil string
}

// ReceiptDetails holds the fields only a receipt carries.
type ReceiptDetails struct {
	PaymentDate     string
	PaymentMethod   string
	ReferenceNumber string
	PaidAmount      decimal.Decimal
}

// Document is a validated invoice, quotation or receipt. Exactly one of
// Invoice, Quotation and Receipt is set, matching Kind.
type Document struct {
	Kind         Kind
	Number       string
	IssueDate    string
	Customer     Customer
	Items        []LineItem
	TaxRate      decimal.Decimal
	TaxType      TaxType
	TaxLabel     string
	Notes        string
	PaymentTerms []string

	Invoice   *InvoiceDetails
	Quotation *QuotationDetails
	Receipt   *ReceiptDetails
}

// AutoNumbered reports whether the number must be resolved by the counter.
func (d Document) AutoNumbered() bool {
	return d.Number == AutoNumber
}
