package salonpress

import (
	"net/url"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/eringen/salonpress/markdown"
)

const (
	blogExcerptLength  = 160
	eventExcerptLength = 150
	metaTitleLength    = 60
	metaDescLength     = 160
	ellipsis           = "..."
)

// Slugify converts a title to a URL-safe slug. Whitespace runs become a
// single hyphen and anything outside ASCII letters, digits and hyphens is
// dropped. Slugs are not checked for uniqueness.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prevHyphen := false
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace {
			inSpace = false
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		case r == '-':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// DeriveExcerpt returns s unchanged when it fits in maxLen characters,
// otherwise its first maxLen-3 characters followed by "...". A maxLen too
// small to hold the ellipsis yields the first maxLen characters alone.
func DeriveExcerpt(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if maxLen < len(ellipsis) {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-len(ellipsis)]) + ellipsis
}

// DeriveSEO builds a meta title of at most 60 characters ending in the brand
// suffix and a meta description of at most 160 characters from text.
func DeriveSEO(title, text, brand string) (metaTitle, metaDescription string) {
	title = strings.TrimSpace(title)
	suffix := ""
	if brand = strings.TrimSpace(brand); brand != "" {
		suffix = " | " + brand
	}
	room := metaTitleLength - utf8.RuneCountInString(suffix)
	switch {
	case room <= len(ellipsis):
		metaTitle = DeriveExcerpt(title, metaTitleLength)
	case utf8.RuneCountInString(title) <= room:
		metaTitle = title + suffix
	default:
		metaTitle = DeriveExcerpt(title, room) + suffix
	}
	plain := strings.Join(strings.Fields(markdown.PlainText(text)), " ")
	metaDescription = DeriveExcerpt(plain, metaDescLength)
	return metaTitle, metaDescription
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// FilterEmpty trims every value and drops the blank ones.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// firstNonEmpty returns the first argument that is not blank.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
