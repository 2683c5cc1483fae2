package bundler

import (
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/barisgit/fluxbuild/internal/normalize"
	"github.com/barisgit/fluxbuild/internal/options"
)

var (
	baseTag   = regexp.MustCompile(`(?i)<base\s[^>]*>`)
	headOpen  = regexp.MustCompile(`(?i)<head(\s[^>]*)?>`)
	headClose = regexp.MustCompile(`(?i)</head\s*>`)
	bodyClose = regexp.MustCompile(`(?i)</body\s*>`)
)

// renderIndex writes the index file with a tag per bundle output, in insertion order
func (b *Bundler) renderIndex(n *normalize.Options, bundles map[string][]string, contents map[string][]byte) error {
	index := n.IndexHTMLOptions
	source, err := afero.ReadFile(b.fs, index.Input)
	if err != nil {
		return fmt.Errorf("failed to read index file %s: %w", index.Input, err)
	}

	var styles, scripts strings.Builder
	for _, entry := range index.InsertionOrder {
		for _, file := range bundles[entry.Name] {
			attrs := attributes(n, contents[filepath.Join(n.OutputPath, filepath.FromSlash(file))])
			switch filepath.Ext(file) {
			case ".css":
				fmt.Fprintf(&styles, `<link rel="stylesheet" href="%s"%s>`, html.EscapeString(file), attrs)
			case ".js":
				kind := ` defer`
				if entry.Module {
					kind = ` type="module"`
				}
				fmt.Fprintf(&scripts, `<script src="%s"%s%s></script>`, html.EscapeString(file), kind, attrs)
			}
		}
	}

	out := string(source)
	if n.BaseHref != "" {
		out = setBaseHref(out, n.BaseHref)
	}
	out = insertBefore(out, headClose, styles.String())
	out = insertBefore(out, bodyClose, scripts.String())

	return b.write(index.Output, []byte(out))
}

func attributes(n *normalize.Options, data []byte) string {
	var attrs strings.Builder
	if n.CrossOrigin != "" && n.CrossOrigin != options.CrossOriginNone {
		fmt.Fprintf(&attrs, ` crossorigin="%s"`, n.CrossOrigin)
	}
	if n.SubresourceIntegrity && data != nil {
		fmt.Fprintf(&attrs, ` integrity="%s"`, integrity(data))
	}
	return attrs.String()
}

func integrity(data []byte) string {
	sum := sha512.Sum384(data)
	return "sha384-" + base64.StdEncoding.EncodeToString(sum[:])
}

func setBaseHref(doc, href string) string {
	tag := fmt.Sprintf(`<base href="%s">`, html.EscapeString(href))
	if baseTag.MatchString(doc) {
		return baseTag.ReplaceAllLiteralString(doc, tag)
	}
	if loc := headOpen.FindStringIndex(doc); loc != nil {
		return doc[:loc[1]] + tag + doc[loc[1]:]
	}
	return tag + doc
}

// insertBefore places tags before the last closing tag, or appends them
func insertBefore(doc string, closing *regexp.Regexp, tags string) string {
	if tags == "" {
		return doc
	}
	all := closing.FindAllStringIndex(doc, -1)
	if len(all) == 0 {
		return doc + tags
	}
	i := all[len(all)-1][0]
	return doc[:i] + tags + doc[i:]
}
