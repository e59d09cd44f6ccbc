package strings

import (
	"strings"
)

// supply prefix if text has not.
//
// args:
//   - prefix: prefix
//   - text: target text
//
// return:
//
//	text same as input when that has prefix.
//	otherwise, prefix + text.
func SupplyPrefix(prefix, text string) string {
	if strings.HasPrefix(text, prefix) {
		return text
	}
	return prefix + text
}
