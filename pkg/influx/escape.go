package influx

import (
	"fmt"
	"strings"
)

// Characters which servers unescape when they follow a backslash.
const escapedChars = `,= "`

var (
	measurementReplacer = strings.NewReplacer(`,`, `\,`, ` `, `\ `)
	keyReplacer         = strings.NewReplacer(`,`, `\,`, `=`, `\=`, ` `, `\ `)
)

// Escape returns a copy of s where each backslash and each occurrence of
// delimiter is preceded by a backslash. Escaping an already escaped string
// escapes it a second time.
func Escape(s string, delimiter rune) string {
	if !strings.ContainsRune(s, delimiter) && !strings.ContainsRune(s, '\\') {
		return s
	}

	var buf strings.Builder
	buf.Grow(len(s) + 8)

	for _, c := range s {
		if c == delimiter || c == '\\' {
			buf.WriteByte('\\')
		}

		buf.WriteRune(c)
	}

	return buf.String()
}

func EscapeMeasurement(name string) string {
	return measurementReplacer.Replace(name)
}

// EscapeKey escapes tag keys, tag values and field keys.
func EscapeKey(key string) string {
	return keyReplacer.Replace(key)
}

// validateToken checks that a measurement name, a key or a tag value can be
// represented in the line protocol. There is no escape sequence for newlines
// or backslashes: a backslash must not be the last character of the token nor
// precede a character which servers unescape.
func validateToken(s string) error {
	if strings.ContainsAny(s, "\n\r") {
		return fmt.Errorf("%w: newline", ErrInvalidCharacter)
	}

	for i := strings.IndexByte(s, '\\'); i >= 0; i = strings.IndexByte(s, '\\') {
		s = s[i+1:]

		if s == "" {
			return fmt.Errorf("%w: trailing backslash", ErrInvalidCharacter)
		}

		if strings.IndexByte(escapedChars, s[0]) >= 0 {
			return fmt.Errorf("%w: backslash before %q", ErrInvalidCharacter,
				s[0])
		}
	}

	return nil
}
