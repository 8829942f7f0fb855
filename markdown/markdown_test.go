package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"Just text.", "Just text."},
		{"# Summer Glow\n\nOur **new** facial.", "Summer Glow Our new facial."},
		{"- one\n- two\n1. three", "one two three"},
		{"Book [here](https://example.com/book) today", "Book here today"},
		{"![A calm room](/public/uploads/blog/room.jpg)", "A calm room"},
		{"> A quote\n---\nAfter `code`", "A quote After code"},
		{"```\nskip fence\n```", "skip fence"},
	}
	for _, tt := range tests {
		if got := PlainText(tt.input); got != tt.want {
			t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRenderBlocks(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, "## Services\n\nWe offer *manicures*.\n\n- Nails\n- Hair\n\n1. Book\n2. Relax")
	got := buf.String()
	for _, want := range []string{
		"<h2>Services</h2>",
		"<p>We offer <em>manicures</em>.</p>",
		"<ul><li>Nails</li><li>Hair</li></ul>",
		"<ol><li>Book</li><li>Relax</li></ol>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Render output missing %q\ngot: %s", want, got)
		}
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, "<script>alert(1)</script>")
	if strings.Contains(buf.String(), "<script>") {
		t.Fatalf("raw script tag rendered: %s", buf.String())
	}
}

func TestRenderDropsUnsafeLinks(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, "[click](javascript:alert(1)) and [ok](/contact)")
	got := buf.String()
	if strings.Contains(got, "javascript:") {
		t.Errorf("unsafe href rendered: %s", got)
	}
	if !strings.Contains(got, `<a href="/contact">ok</a>`) {
		t.Errorf("safe link missing: %s", got)
	}
}

func TestRenderCodeBlock(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, "```\n<b>x</b>\n```")
	if got := buf.String(); got != "<pre><code>&lt;b&gt;x&lt;/b&gt;\n</code></pre>" {
		t.Errorf("code block = %q", got)
	}
}

func TestPreviewComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Preview("**hi**").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if buf.String() != "<p><strong>hi</strong></p>" {
		t.Errorf("Preview = %q", buf.String())
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"/booking", "/booking"},
		{"#services", "#services"},
		{"https://example.com", "https://example.com"},
		{"mailto:hello@example.com", "mailto:hello@example.com"},
		{"javascript:alert(1)", ""},
		{"data:text/html,hi", ""},
		{"//evil.example", ""},
		{"no-scheme", ""},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.input); got != tt.want {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
