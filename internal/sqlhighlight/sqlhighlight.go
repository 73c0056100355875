// Package sqlhighlight renders SQL text with ANSI syntax highlighting
// for terminal display, used by ".schema" output and the line editor's
// paint-as-you-type hook. On any lexing/formatting failure it falls
// back to the plain, uncolored text rather than erroring.
package sqlhighlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/alecthomas/chroma/v2/styles"
)

const (
	lexerName     = "sql"
	formatterName = "terminal256"
	styleName     = "monokai"
)

// Highlight returns sql with ANSI color codes applied, or sql unchanged
// if quick.Highlight reports an error.
func Highlight(sql string) string {
	var b strings.Builder
	if err := quick.Highlight(&b, sql, lexerName, formatterName, styleName); err != nil {
		return sql
	}
	return b.String()
}

// Available reports whether the lexer/formatter/style this package asks
// for are actually registered, letting callers decide whether to bother
// calling Highlight at all (e.g. before wiring a readline paint hook).
func Available() bool {
	return lexers.Get(lexerName) != nil &&
		formatters.Get(formatterName) != nil &&
		styles.Get(styleName) != nil
}
