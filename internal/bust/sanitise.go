package bust

import (
	"os"
	"strings"
)

// SanitisePath converts backslash separators to forward slashes on
// platforms that use them and returns p unchanged elsewhere.
func SanitisePath(p string) string {
	return sanitise(p, os.PathSeparator == '\\')
}

func sanitise(p string, backslashes bool) string {
	if !backslashes {
		return p
	}
	return strings.ReplaceAll(p, `\`, "/")
}
