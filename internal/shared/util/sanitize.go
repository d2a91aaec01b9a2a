package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
)

const (
	maxFileNameLen = 255
	maxExtLen      = 16
)

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName flattens path separators, strips control characters and
// rejects traversal patterns and overlong names.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if s == "" || len(s) > maxFileNameLen {
		return "", ErrInvalidFileName
	}
	return s, nil
}

// FileExt returns the extension (with dot, case kept) of a client-supplied
// file name, or "" when the name is rejected or the extension is not plain
// ASCII letters and digits.
func FileExt(name string) string {
	clean, err := SanitizeFileName(name)
	if err != nil {
		return ""
	}
	ext := path.Ext(clean)
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return ""
		}
	}
	return ext
}
