package shellplan

import "strings"

const (
	singleQuoteLiteralConstant        = "'"
	escapedSingleQuoteLiteralConstant = "'\\''"
)

// quoteForPosixShell wraps script content in single quotes, escaping embedded
// single quotes so the content survives an additional shell evaluation layer.
// The transformation is best effort: deeply nested quoting and null bytes are
// outside the supported boundary.
func quoteForPosixShell(scriptContent string) string {
	escapedContent := strings.ReplaceAll(scriptContent, singleQuoteLiteralConstant, escapedSingleQuoteLiteralConstant)
	return singleQuoteLiteralConstant + escapedContent + singleQuoteLiteralConstant
}
