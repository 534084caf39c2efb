package deeplink

import (
	"errors"
	"strings"
)

// Path errors.
var (
	ErrBackslashInPath = errors.New("deeplink: path contains backslash")
	ErrNullByteInPath  = errors.New("deeplink: path contains NUL byte")
	ErrPathEscapesRoot = errors.New("deeplink: path escapes root via ..")
)

// CleanPath canonicalizes an escaped link path. Repeated slashes collapse,
// "." segments drop and ".." removes the previous segment. The result has no
// leading or trailing slash. Percent escapes are left as they are, so an
// encoded "%2F" stays inside its segment.
func CleanPath(path string) (string, error) {
	if strings.ContainsRune(path, '\\') {
		return "", ErrBackslashInPath
	}
	if strings.ContainsRune(path, 0) {
		return "", ErrNullByteInPath
	}

	segments := strings.Split(path, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) == 0 {
				return "", ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	return strings.Join(out, "/"), nil
}
