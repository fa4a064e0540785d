package cli

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// keys, string values, literals and numbers
var jsonToken = regexp.MustCompile(`("(\\u[a-zA-Z0-9]{4}|\\[^u]|[^\\"])*"(\s*:)?|\b(true|false|null)\b|-?\d+(?:\.\d*)?(?:[eE][+\-]?\d+)?)`)

// HighlightJSON applies ANSI colours to a JSON document.
func HighlightJSON(doc string) string {
	if !Enabled() {
		return doc
	}

	return jsonToken.ReplaceAllStringFunc(doc, func(token string) string {
		switch {
		case strings.HasSuffix(token, ":"):
			return Blue + token[:len(token)-1] + ResetCode + ":"
		case strings.HasPrefix(token, `"`):
			return Green + token + ResetCode
		case token == "true" || token == "false":
			return Yellow + token + ResetCode
		case token == "null":
			return DimCode + token + ResetCode
		default:
			return Purple + token + ResetCode
		}
	})
}

// PrettyFormat renders v as indented, highlighted JSON. Strings and byte
// slices are assumed to already be JSON.
func PrettyFormat(v any) string {
	var doc string
	switch t := v.(type) {
	case []byte:
		doc = string(t)
	case string:
		doc = t
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%+v", v)
		}
		doc = string(b)
	}
	return HighlightJSON(doc)
}

func PrettyPrint(v any) {
	fmt.Println(PrettyFormat(v))
}
