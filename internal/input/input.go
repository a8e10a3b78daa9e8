// Package input reads JSON input files and turns validated JSON values into
// model types.
package input

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/pacioli-dev/pacioli/internal/model"
	"github.com/pacioli-dev/pacioli/internal/validate"
)

// ReadJSON reads and decodes the JSON file at path. Numbers are kept as
// json.Number so monetary values never pass through float64.
func ReadJSON(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.InputError{Path: path, Err: fmt.Errorf("reading file: %w", err)}
	}
	v, err := DecodeJSON(data)
	if err != nil {
		return nil, &model.InputError{Path: path, Err: err}
	}
	return v, nil
}

// DecodeJSON decodes a single JSON value from data.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if err := dec.Decode(new(any)); !errors.Is(err, io.EOF) {
		return nil, errors.New("parsing JSON: unexpected data after the top-level value")
	}
	return v, nil
}

// WithCustomer returns a shallow copy of the document object data whose
// "customer" field is replaced by customer. Non-object data is returned as is.
func WithCustomer(data, customer any) any {
	m, ok := data.(map[string]any)
	if !ok {
		return data
	}
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out["customer"] = customer
	return out
}

// Document converts validated document data into a model.Document of kind.
func Document(kind model.Kind, data any) (model.Document, error) {
	m, ok := data.(map[string]any)
	if !ok {
		return model.Document{}, errors.New("document data must be an object")
	}

	doc := model.Document{
		Kind:      kind,
		Number:    str(m, "documentNumber"),
		IssueDate: str(m, "issueDate"),
		TaxRate:   num(m, "taxRate"),
		TaxType:   model.TaxType(str(m, "taxType")),
		TaxLabel:  str(m, "taxLabel"),
		Notes:     str(m, "notes"),
	}

	cust, err := Customer(m["customer"])
	if err != nil {
		return model.Document{}, err
	}
	doc.Customer = cust

	list, _ := m["items"].([]any)
	for _, raw := range list {
		it, _ := raw.(map[string]any)
		doc.Items = append(doc.Items, model.LineItem{
			Description: str(it, "description"),
			Quantity:    num(it, "quantity"),
			Unit:        str(it, "unit"),
			UnitPrice:   num(it, "unitPrice"),
		})
	}

	if terms, ok := m["paymentTerms"].([]any); ok {
		for _, t := range terms {
			if t == nil {
				continue
			}
			doc.PaymentTerms = append(doc.PaymentTerms, fmt.Sprint(t))
		}
	}

	switch kind {
	case model.KindInvoice:
		doc.Invoice = &model.InvoiceDetails{DueDate: str(m, "dueDate")}
	case model.KindQuotation:
		doc.Quotation = &model.QuotationDetails{ValidUntil: str(m, "validUntil")}
	case model.KindReceipt:
		doc.Receipt = &model.ReceiptDetails{
			PaymentDate:     str(m, "paymentDate"),
			PaymentMethod:   str(m, "paymentMethod"),
			ReferenceNumber: str(m, "referenceNumber"),
			PaidAmount:      num(m, "paidAmount"),
		}
	default:
		return model.Document{}, fmt.Errorf("%w %q", model.ErrUnknownKind, kind)
	}
	return doc, nil
}

// Customer converts validated customer data.
func Customer(data any) (model.Customer, error) {
	m, ok := data.(map[string]any)
	if !ok {
		return model.Customer{}, errors.New("customer data must be an object")
	}
	return model.Customer{
		Name:    str(m, "name"),
		Company: str(m, "company"),
		Phone:   str(m, "phone"),
	}, nil
}

// Freelancer converts a validated freelancer profile.
func Freelancer(data any) (model.Freelancer, error) {
	m, ok := data.(map[string]any)
	if !ok {
		return model.Freelancer{}, errors.New("freelancer config must be an object")
	}
	bank, _ := m["bankInfo"].(map[string]any)
	return model.Freelancer{
		Name:    str(m, "name"),
		Title:   str(m, "title"),
		Email:   str(m, "email"),
		Phone:   str(m, "phone"),
		Address: str(m, "address"),
		BankInfo: model.BankInfo{
			BankName:      str(bank, "bankName"),
			AccountName:   str(bank, "accountName"),
			AccountNumber: str(bank, "accountNumber"),
			Branch:        str(bank, "branch"),
			Swift:         str(bank, "swift"),
		},
	}, nil
}

// str returns m[key] as text. Optional fields holding other JSON scalars are
// printed; absent and null fields are empty.
func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func num(m map[string]any, key string) decimal.Decimal {
	d, _ := validate.Number(m[key])
	return d
}
