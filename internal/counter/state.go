package counter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pacioli-dev/pacioli/internal/model"
	"github.com/pacioli-dev/pacioli/internal/numbering"
)

// Version is the state format written by this package. Files without a
// version field predate it and are read as the same format.
const Version = 1

// DefaultPrefixes are the number prefixes a new project starts with.
var DefaultPrefixes = map[model.Kind]string{
	model.KindInvoice:   "INV",
	model.KindQuotation: "QT",
	model.KindReceipt:   "REC",
}

// Bucket is the numbering state of one document kind.
type Bucket struct {
	LastNumber int    `json:"lastNumber"`
	Prefix     string `json:"prefix"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

// State is the persisted counter record, one bucket per kind.
type State struct {
	Version   int     `json:"version,omitempty"`
	Invoice   *Bucket `json:"invoice"`
	Quotation *Bucket `json:"quotation"`
	Receipt   *Bucket `json:"receipt"`
}

// NewState returns a state with every serial at zero in the period of now.
// Kinds missing from prefixes use DefaultPrefixes.
func NewState(now time.Time, prefixes map[model.Kind]string) *State {
	bucket := func(kind model.Kind) *Bucket {
		prefix := prefixes[kind]
		if prefix == "" {
			prefix = DefaultPrefixes[kind]
		}
		return &Bucket{Prefix: prefix, Year: now.Year(), Month: int(now.Month())}
	}
	return &State{
		Version:   Version,
		Invoice:   bucket(model.KindInvoice),
		Quotation: bucket(model.KindQuotation),
		Receipt:   bucket(model.KindReceipt),
	}
}

// Bucket returns the bucket for kind, or nil if it is absent.
func (s *State) Bucket(kind model.Kind) *Bucket {
	switch kind {
	case model.KindInvoice:
		return s.Invoice
	case model.KindQuotation:
		return s.Quotation
	case model.KindReceipt:
		return s.Receipt
	default:
		return nil
	}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := &State{Version: s.Version}
	cp := func(b *Bucket) *Bucket {
		if b == nil {
			return nil
		}
		v := *b
		return &v
	}
	c.Invoice, c.Quotation, c.Receipt = cp(s.Invoice), cp(s.Quotation), cp(s.Receipt)
	return c
}

// problem describes why s cannot be used, or returns "".
func (s *State) problem() string {
	if s.Version != 0 && s.Version != Version {
		return fmt.Sprintf("unsupported state version %d", s.Version)
	}
	for _, kind := range model.Kinds() {
		b := s.Bucket(kind)
		switch {
		case b == nil:
			return fmt.Sprintf("missing %s bucket", kind)
		case b.LastNumber < 0:
			return fmt.Sprintf("%s: negative lastNumber %d", kind, b.LastNumber)
		case b.Month < 1 || b.Month > 12:
			return fmt.Sprintf("%s: month %d out of range", kind, b.Month)
		case b.Year < 1:
			return fmt.Sprintf("%s: invalid year %d", kind, b.Year)
		case strings.TrimSpace(b.Prefix) == "":
			return fmt.Sprintf("%s: empty prefix", kind)
		}
	}
	return ""
}

// issue returns the number the bucket hands out at now. A different year or
// month restarts the serial.
func (b Bucket) issue(now time.Time) numbering.Number {
	n := numbering.Number{Prefix: b.Prefix, Year: now.Year(), Month: int(now.Month()), Serial: b.LastNumber + 1}
	if n.Year != b.Year || n.Month != b.Month {
		n.Serial = 1
	}
	return n
}

// consume returns the bucket as it must be stored once number, issued from b,
// is used. Period and serial are taken from number itself.
func (b Bucket) consume(number string) (Bucket, error) {
	n, err := numbering.Parse(number)
	if err != nil {
		return Bucket{}, err
	}
	if n.Prefix != b.Prefix {
		return Bucket{}, fmt.Errorf("number %s was not issued with prefix %s", number, b.Prefix)
	}
	return Bucket{LastNumber: n.Serial, Prefix: n.Prefix, Year: n.Year, Month: n.Month}, nil
}
