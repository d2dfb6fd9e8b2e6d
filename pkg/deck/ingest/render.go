package ingest

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	goldhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Renderer converts flashcard markdown to sanitized HTML. Fenced code
// blocks are replaced with syntax-highlighted <pre><code> fragments;
// everything else goes through Goldmark with tables, strikethrough,
// and footnotes enabled, then a bluemonday pass.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewRenderer builds a renderer ready for concurrent use.
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Footnote,
		),
		goldmark.WithRendererOptions(
			// Raw HTML in card bodies passes through; the sanitizer
			// below is the safety boundary.
			goldhtml.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(&codeBlockRenderer{}, 200),
			),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowElements("span")
	policy.AllowAttrs("class").OnElements("img", "pre", "code", "span", "p", "div")
	policy.AllowAttrs("align").OnElements("p")
	// Chroma emits per-token inline styles.
	policy.AllowAttrs("style").OnElements("span", "pre", "code")
	policy.AllowStyles(
		"color", "background-color",
		"font-weight", "font-style",
		"text-decoration", "text-decoration-line",
	).Globally()
	policy.AllowRelativeURLs(true)

	return &Renderer{md: md, policy: policy}
}

// Render converts one markdown fragment to sanitized HTML.
func (r *Renderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return r.policy.Sanitize(buf.String()), nil
}

// codeBlockRenderer overrides Goldmark's fenced-code rendering with a
// Chroma-highlighted fragment selected by the fence info string.
type codeBlockRenderer struct{}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.render)
}

func (r *codeBlockRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		code.Write(line.Value(source))
	}

	highlighted, err := highlightCode(code.String(), string(n.Language(source)))
	if err != nil {
		return ast.WalkStop, err
	}
	if _, err := w.WriteString(highlighted); err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, nil
}

// highlightCode renders one code block as <pre><code> with per-token
// inline styles. Unknown languages fall back to plain text.
func highlightCode(code, lang string) (string, error) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("github")
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}

	formatter := chromahtml.New(
		chromahtml.WithClasses(false),
		chromahtml.PreventSurroundingPre(true),
	)

	var b strings.Builder
	b.WriteString("<pre><code>")
	if err := formatter.Format(&b, style, iterator); err != nil {
		return "", err
	}
	b.WriteString("</code></pre>")
	return b.String(), nil
}
