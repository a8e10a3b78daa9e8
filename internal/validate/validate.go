// Package validate checks decoded JSON input before it is turned into typed
// model values. Checks never stop at the first problem: every defect in an
// input is reported in one Result.
package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pacioli-dev/pacioli/internal/model"
)

// Result is the outcome of validating one input.
type Result struct {
	Valid  bool
	Errors []string
}

// Err returns nil for a valid result and a *model.ValidationError otherwise.
func (r Result) Err(subject string) error {
	if r.Valid {
		return nil
	}
	return model.NewValidationError(subject, r.Errors)
}

func result(errs []string) Result {
	return Result{Valid: len(errs) == 0, Errors: errs}
}

var one = decimal.NewFromInt(1)

// Document dispatches to the validator for kind.
func Document(kind model.Kind, data any) Result {
	switch kind {
	case model.KindInvoice:
		return Invoice(data)
	case model.KindQuotation:
		return Quotation(data)
	case model.KindReceipt:
		return Receipt(data)
	default:
		return result([]string{fmt.Sprintf("Unknown document type %q", kind)})
	}
}

// Invoice validates invoice data.
func Invoice(data any) Result {
	m, errs := base(data)
	errs = append(errs, date(m, "dueDate", "Due date")...)
	errs = append(errs, paymentTerms(m)...)
	return result(errs)
}

// Quotation validates quotation data.
func Quotation(data any) Result {
	m, errs := base(data)
	errs = append(errs, date(m, "validUntil", "Valid until date")...)
	errs = append(errs, paymentTerms(m)...)
	return result(errs)
}

// Receipt validates receipt data.
func Receipt(data any) Result {
	m, errs := base(data)
	errs = append(errs, date(m, "paymentDate", "Payment date")...)

	if _, ok := text(m, "paymentMethod"); !ok {
		errs = append(errs, "Payment method is required")
	}

	if amount, ok := number(m, "paidAmount"); !ok || amount.IsNegative() {
		errs = append(errs, "Valid paid amount is required")
	}

	errs = append(errs, paymentTerms(m)...)
	return result(errs)
}

// Customer validates a customer record.
func Customer(data any) Result {
	return result(customer(data))
}

// Freelancer validates the freelancer profile.
func Freelancer(data any) Result {
	m, ok := object(data)
	var errs []string
	if !ok {
		errs = append(errs, "Freelancer config must be an object")
	}

	if _, ok := text(m, "name"); !ok {
		errs = append(errs, "Freelancer name is required")
	}
	if _, ok := text(m, "email"); !ok {
		errs = append(errs, "Freelancer email is required")
	}
	if _, ok := text(m, "phone"); !ok {
		errs = append(errs, "Freelancer phone is required")
	}
	if _, ok := text(m, "address"); !ok {
		errs = append(errs, "Freelancer address is required")
	}

	bank, ok := object(m["bankInfo"])
	if !ok {
		errs = append(errs, "Bank information is required")
		return result(errs)
	}
	if _, ok := text(bank, "bankName"); !ok {
		errs = append(errs, "Bank name is required")
	}
	if _, ok := text(bank, "accountName"); !ok {
		errs = append(errs, "Bank account name is required")
	}
	if _, ok := text(bank, "accountNumber"); !ok {
		errs = append(errs, "Bank account number is required")
	}
	return result(errs)
}

// base checks the fields shared by every document kind, in order: scalar
// fields, then customer, then items.
func base(data any) (map[string]any, []string) {
	m, ok := object(data)
	var errs []string
	if !ok {
		errs = append(errs, "Document data must be an object")
	}

	if _, ok := text(m, "documentNumber"); !ok {
		errs = append(errs, "Document number is required")
	}

	errs = append(errs, date(m, "issueDate", "Issue date")...)

	if rate, ok := number(m, "taxRate"); !ok || rate.IsNegative() || rate.GreaterThan(one) {
		errs = append(errs, "Tax rate must be a number between 0 and 1")
	}

	switch tt, _ := m["taxType"].(string); model.TaxType(tt) {
	case model.TaxWithholding, model.TaxVAT:
	default:
		errs = append(errs, `Tax type must be either "withholding" or "vat"`)
	}

	if _, ok := text(m, "taxLabel"); !ok {
		errs = append(errs, "Tax label is required")
	}

	errs = append(errs, customer(m["customer"])...)
	errs = append(errs, items(m["items"])...)
	return m, errs
}

func customer(data any) []string {
	m, ok := object(data)
	if !ok {
		return []string{"Customer information is required"}
	}

	var errs []string
	if _, ok := text(m, "name"); !ok {
		errs = append(errs, "Customer name is required")
	}
	if _, ok := text(m, "phone"); !ok {
		errs = append(errs, "Customer phone is required")
	}
	return errs
}

func items(data any) []string {
	list, ok := data.([]any)
	if !ok {
		return []string{"Items must be an array"}
	}
	if len(list) == 0 {
		return []string{"At least one item is required"}
	}

	var errs []string
	for i, raw := range list {
		n := i + 1
		it, _ := object(raw)

		if _, ok := text(it, "description"); !ok {
			errs = append(errs, fmt.Sprintf("Item %d: Description is required", n))
		}
		if qty, ok := number(it, "quantity"); !ok || !qty.IsPositive() {
			errs = append(errs, fmt.Sprintf("Item %d: Valid quantity is required", n))
		}
		if _, ok := text(it, "unit"); !ok {
			errs = append(errs, fmt.Sprintf("Item %d: Unit is required", n))
		}
		if price, ok := number(it, "unitPrice"); !ok || price.IsNegative() {
			errs = append(errs, fmt.Sprintf("Item %d: Valid unit price is required", n))
		}
	}
	return errs
}

// date checks a required YYYY-MM-DD field.
func date(m map[string]any, key, label string) []string {
	s, ok := text(m, key)
	if !ok {
		return []string{label + " is required"}
	}
	if !datePattern.MatchString(s) {
		return []string{label + " must be in YYYY-MM-DD format"}
	}
	return nil
}

func paymentTerms(m map[string]any) []string {
	if !present(m, "paymentTerms") {
		return nil
	}
	if _, ok := m["paymentTerms"].([]any); !ok {
		return []string{"Payment terms must be an array"}
	}
	return nil
}
