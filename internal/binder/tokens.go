package binder

import (
	"fmt"
	"html"
	"strings"

	"github.com/pacioli-dev/pacioli/internal/locale"
	"github.com/pacioli-dev/pacioli/internal/model"
)

type resolver func(in *Input) string

var resolvers = map[string]resolver{
	"freelancer.name":    func(in *Input) string { return esc(in.Freelancer.Name) },
	"freelancer.title":   func(in *Input) string { return esc(in.Freelancer.Title) },
	"freelancer.email":   func(in *Input) string { return esc(in.Freelancer.Email) },
	"freelancer.phone":   func(in *Input) string { return esc(in.Freelancer.Phone) },
	"freelancer.address": func(in *Input) string { return esc(in.Freelancer.Address) },

	"bank.name":          func(in *Input) string { return esc(in.Freelancer.BankInfo.BankName) },
	"bank.accountName":   func(in *Input) string { return esc(in.Freelancer.BankInfo.AccountName) },
	"bank.accountNumber": func(in *Input) string { return esc(in.Freelancer.BankInfo.AccountNumber) },
	"bank.branch":        func(in *Input) string { return esc(in.Freelancer.BankInfo.Branch) },
	"bank.swift":         func(in *Input) string { return esc(in.Freelancer.BankInfo.Swift) },

	"documentType":   func(in *Input) string { return string(in.Document.Kind) },
	"documentNumber": func(in *Input) string { return esc(in.Document.Number) },
	"issueDate":      func(in *Input) string { return longDate(in.Document.IssueDate) },

	"dueDate":         dueDate,
	"validUntil":      validUntil,
	"paymentDate":     paymentDate,
	"paymentMethod":   paymentMethod,
	"referenceNumber": referenceNumber,
	"paidAmount":      paidAmount,

	"customer.name":    func(in *Input) string { return esc(in.Document.Customer.Name) },
	"customer.company": func(in *Input) string { return esc(in.Document.Customer.Company) },
	"customer.phone":   func(in *Input) string { return esc(in.Document.Customer.Phone) },

	"items":        itemRows,
	"paymentTerms": termItems,

	"subtotal":  func(in *Input) string { return locale.Amount(in.Totals.Subtotal) },
	"taxLabel":  func(in *Input) string { return esc(in.Document.TaxLabel) },
	"taxAmount": taxAmount,
	"total":     func(in *Input) string { return locale.Amount(in.Totals.Total) },
	"notes":     func(in *Input) string { return esc(in.Document.Notes) },
}

// esc escapes user-supplied text. Braces are encoded too so values can never
// form a placeholder token in the output.
func esc(s string) string {
	s = html.EscapeString(s)
	s = strings.ReplaceAll(s, "{", "&#123;")
	return strings.ReplaceAll(s, "}", "&#125;")
}

func longDate(iso string) string {
	return esc(locale.Date(iso))
}

func dueDate(in *Input) string {
	if inv := in.Document.Invoice; inv != nil {
		return longDate(inv.DueDate)
	}
	return ""
}

func validUntil(in *Input) string {
	if q := in.Document.Quotation; q != nil {
		return longDate(q.ValidUntil)
	}
	return ""
}

func paymentDate(in *Input) string {
	if r := in.Document.Receipt; r != nil {
		return longDate(r.PaymentDate)
	}
	return ""
}

func paymentMethod(in *Input) string {
	if r := in.Document.Receipt; r != nil {
		return esc(r.PaymentMethod)
	}
	return ""
}

func referenceNumber(in *Input) string {
	if r := in.Document.Receipt; r != nil {
		return esc(r.ReferenceNumber)
	}
	return ""
}

func paidAmount(in *Input) string {
	if r := in.Document.Receipt; r != nil {
		return locale.Amount(r.PaidAmount)
	}
	return ""
}

// taxAmount wraps withheld tax in parentheses to show it is deducted.
func taxAmount(in *Input) string {
	amount := locale.Amount(in.Totals.Tax)
	if in.Document.TaxType == model.TaxWithholding {
		return "(" + amount + ")"
	}
	return amount
}

func itemRows(in *Input) string {
	var b strings.Builder
	for i, it := range in.Document.Items {
		fmt.Fprintf(&b, `
        <tr>
          <td>%d</td>
          <td>%s</td>
          <td class="text-center">%s %s</td>
          <td class="text-right">%s</td>
          <td class="text-right">%s</td>
        </tr>`,
			i+1,
			esc(it.Description),
			it.Quantity.String(), esc(it.Unit),
			locale.Amount(it.UnitPrice),
			locale.Amount(it.Total()),
		)
	}
	return b.String()
}

func termItems(in *Input) string {
	var b strings.Builder
	for _, term := range in.Document.PaymentTerms {
		b.WriteString("<li>")
		b.WriteString(esc(term))
		b.WriteString("</li>")
	}
	return b.String()
}
