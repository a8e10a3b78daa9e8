// Package binder substitutes document data into template markup.
//
// Templates contain placeholder tokens of the form {{name}}. Bind scans the
// template once, replacing each token with the value of its resolver. Tokens
// without a value for the document's kind, and tokens outside the known set,
// become empty strings, so bound markup never contains a {{...}} token.
package binder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pacioli-dev/pacioli/internal/model"
	"github.com/pacioli-dev/pacioli/internal/totals"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Input is everything a template can refer to.
type Input struct {
	Document   model.Document
	Freelancer model.Freelancer
	Totals     totals.Totals
}

// Output is the bound markup plus the names of unrecognized tokens that were
// blanked out.
type Output struct {
	Markup  string
	Unknown []string
}

// Bind substitutes in into tpl.
func Bind(tpl string, in Input) Output {
	var (
		b       strings.Builder
		unknown []string
		seen    = map[string]bool{}
	)
	b.Grow(len(tpl))

	rest := tpl
	for {
		start := strings.Index(rest, openDelim)
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start+len(openDelim):], closeDelim)
		if end < 0 {
			// Unterminated: not a token.
			b.WriteString(rest)
			break
		}
		end += start + len(openDelim)

		b.WriteString(rest[:start])
		name := strings.TrimSpace(rest[start+len(openDelim) : end])
		if resolve, ok := resolvers[name]; ok {
			b.WriteString(resolve(&in))
		} else if !seen[name] {
			seen[name] = true
			unknown = append(unknown, name)
		}
		rest = rest[end+len(closeDelim):]
	}

	return Output{Markup: b.String(), Unknown: unknown}
}

// Tokens returns the recognized token names, sorted.
func Tokens() []string {
	names := make([]string, 0, len(resolvers))
	for name := range resolvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadTemplate reads <dir>/<kind>.html.
func LoadTemplate(dir string, kind model.Kind) (string, error) {
	path := filepath.Join(dir, string(kind)+".html")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &model.InputError{Path: path, Err: fmt.Errorf("reading template: %w", err)}
	}
	return string(data), nil
}
