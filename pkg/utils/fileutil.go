package utils

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// GenerateStorageKey builds a unique object key under folder that keeps the
// original extension. Object stores reject non-ASCII keys, so the name part
// only keeps [a-z0-9-_]; the original name belongs in metadata.
func GenerateStorageKey(folder, filename string) string {
	ext := asciiKey(strings.ToLower(filepath.Ext(filename)))
	if ext == "." {
		ext = ""
	}
	name := asciiKey(Slugify(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))))
	if name == "" {
		name = "file"
	}
	timestamp := time.Now().Unix()
	id := uuid.New().String()[:8]

	return path.Join(folder, fmt.Sprintf("%s_%d_%s%s", name, timestamp, id, ext))
}

func asciiKey(s string) string {
	var sb strings.Builder
	var last rune
	for _, r := range s {
		switch {
		case r == '-' && last == '-':
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			sb.WriteRune(r)
			last = r
		}
	}
	return strings.Trim(sb.String(), "-")
}

// TruncateUTF8 cuts s to at most n bytes without splitting a rune.
func TruncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// FormatSize renders a byte count in megabytes with two decimals.
func FormatSize(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/1024/1024)
}

// Slugify lowercases s and joins runs of letters and digits with dashes.
// Non-Latin letters are kept.
func Slugify(s string) string {
	var sb strings.Builder
	dash := false

	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}

	return sb.String()
}
