// Package markdown renders the subset of Markdown used in salon blog posts and
// reduces it to plain text for excerpts and meta descriptions.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/a-h/templ"
)

var (
	reHeading     = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	reBullet      = regexp.MustCompile(`^[-*+]\s+`)
	reOrdered     = regexp.MustCompile(`^\d+\.\s+`)
	reQuote       = regexp.MustCompile(`^>\s?`)
	reImage       = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]*)\)`)
	reLink        = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
	reBold        = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	reItalic      = regexp.MustCompile(`(\*|_)([^*_]+)(\*|_)`)
	reInlineCode  = regexp.MustCompile("`([^`]+)`")
	reRule        = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})$`)
	reWhitespaces = regexp.MustCompile(`\s+`)
)

// Preview returns a templ.Component that renders md as HTML.
func Preview(md string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		Render(&buf, md)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Render writes the HTML representation of md to buf.
func Render(buf *bytes.Buffer, md string) {
	var (
		para  []string
		list  string // "ul", "ol" or ""
		quote bool
		code  bool
	)
	flushPara := func() {
		if len(para) > 0 {
			buf.WriteString("<p>" + inline(strings.Join(para, " ")) + "</p>")
			para = nil
		}
	}
	closeList := func() {
		if list != "" {
			buf.WriteString("</" + list + ">")
			list = ""
		}
	}
	closeQuote := func() {
		if quote {
			buf.WriteString("</blockquote>")
			quote = false
		}
	}
	flushAll := func() {
		flushPara()
		closeList()
		closeQuote()
	}
	openList := func(tag string) {
		if list != tag {
			flushPara()
			closeList()
			closeQuote()
			buf.WriteString("<" + tag + ">")
			list = tag
		}
	}

	for _, raw := range strings.Split(md, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.HasPrefix(line, "```") {
			if code {
				buf.WriteString("</code></pre>")
			} else {
				flushAll()
				buf.WriteString("<pre><code>")
			}
			code = !code
			continue
		}
		if code {
			buf.WriteString(html.EscapeString(line) + "\n")
			continue
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flushAll()
		case reRule.MatchString(trimmed):
			flushAll()
			buf.WriteString("<hr/>")
		case reHeading.MatchString(trimmed):
			flushAll()
			m := reHeading.FindStringSubmatch(trimmed)
			tag := "h" + string(rune('0'+len(m[1])))
			buf.WriteString("<" + tag + ">" + inline(m[2]) + "</" + tag + ">")
		case reBullet.MatchString(trimmed):
			openList("ul")
			buf.WriteString("<li>" + inline(reBullet.ReplaceAllString(trimmed, "")) + "</li>")
		case reOrdered.MatchString(trimmed):
			openList("ol")
			buf.WriteString("<li>" + inline(reOrdered.ReplaceAllString(trimmed, "")) + "</li>")
		case reQuote.MatchString(trimmed):
			if !quote {
				flushPara()
				closeList()
				buf.WriteString("<blockquote>")
				quote = true
			}
			buf.WriteString(inline(reQuote.ReplaceAllString(trimmed, "")) + " ")
		default:
			closeList()
			closeQuote()
			para = append(para, trimmed)
		}
	}
	if code {
		buf.WriteString("</code></pre>")
	}
	flushAll()
}

func inline(s string) string {
	out := html.EscapeString(s)
	out = reImage.ReplaceAllStringFunc(out, func(m string) string {
		parts := reImage.FindStringSubmatch(m)
		src := SafeURL(parts[2])
		if src == "" {
			return parts[1]
		}
		return `<img src="` + src + `" alt="` + parts[1] + `" loading="lazy"/>`
	})
	out = reLink.ReplaceAllStringFunc(out, func(m string) string {
		parts := reLink.FindStringSubmatch(m)
		href := SafeURL(parts[2])
		if href == "" {
			return parts[1]
		}
		return `<a href="` + href + `">` + parts[1] + `</a>`
	})
	out = reInlineCode.ReplaceAllString(out, "<code>$1</code>")
	out = reBold.ReplaceAllString(out, "<strong>$2</strong>")
	out = reItalic.ReplaceAllString(out, "<em>$2</em>")
	return out
}

// PlainText strips Markdown syntax from md and collapses whitespace, leaving
// the readable text used for excerpts and meta descriptions.
func PlainText(md string) string {
	var out []string
	for _, raw := range strings.Split(md, "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "```") || reRule.MatchString(line) {
			continue
		}
		if m := reHeading.FindStringSubmatch(line); m != nil {
			line = m[2]
		}
		line = reBullet.ReplaceAllString(line, "")
		line = reOrdered.ReplaceAllString(line, "")
		line = reQuote.ReplaceAllString(line, "")
		line = reImage.ReplaceAllString(line, "$1")
		line = reLink.ReplaceAllString(line, "$1")
		line = reInlineCode.ReplaceAllString(line, "$1")
		line = reBold.ReplaceAllString(line, "$2")
		line = reItalic.ReplaceAllString(line, "$2")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.TrimSpace(reWhitespaces.ReplaceAllString(strings.Join(out, " "), " "))
}

// SafeURL returns raw escaped for an HTML attribute when it is a relative
// path, an anchor, or an http, https, mailto or tel URL. Anything else
// yields "".
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "//") {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
