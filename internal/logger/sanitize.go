package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxPathLength          = 500
	MaxQueryLength         = 200
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
	// MaxDebugContentLength bounds prompts and model replies in debug logs.
	MaxDebugContentLength = 10000
)

// SanitizeString strips control characters and invalid UTF-8 and truncates
// to maxLength bytes. A non-positive maxLength uses MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' {
			return r
		}
		return -1
	}, s)
	if len(s) > maxLength {
		s = truncateRunes(s, maxLength) + "..."
	}
	return s
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func SanitizePath(path string) string { return SanitizeString(path, MaxPathLength) }

// SanitizeQuery is used for user supplied search text.
func SanitizeQuery(q string) string { return SanitizeString(q, MaxQueryLength) }

func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

func SanitizeDebugContent(content string) string {
	return SanitizeString(content, MaxDebugContentLength)
}
