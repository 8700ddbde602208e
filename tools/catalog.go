/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package tools

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strings"

	md "github.com/russross/blackfriday/v2"

	"github.com/Comcast/sutra/eval"
	"github.com/Comcast/sutra/macro"
)

// Entry documents one atom or macro.
type Entry struct {
	Name string `json:"name"`

	// Kind is "pure", "stateful", "special", "native macro", or
	// "macro".
	Kind string `json:"kind"`

	// Arity is the atom's acceptable argument count.  Macros
	// have Params instead.
	Arity string `json:"arity,omitempty"`

	Params string `json:"params,omitempty"`

	// Template is the body of a template macro.
	Template string `json:"template,omitempty"`

	// Doc is Markdown.
	Doc string `json:"doc,omitempty"`
}

// IsMacro reports whether the Entry is for a macro.
func (e *Entry) IsMacro() bool {
	return strings.HasSuffix(e.Kind, "macro")
}

// Signature gives a template macro's call shape like (add! p n).
// Otherwise just the name.
func (e *Entry) Signature() string {
	if e.Params == "" {
		return e.Name
	}
	return "(" + strings.TrimSpace(e.Name+" "+strings.Trim(e.Params, "()")) + ")"
}

// Catalog lists the atoms and macros, sorted by name.  Either
// registry can be nil.
func Catalog(atoms *eval.Registry, macros *macro.Registry) []*Entry {
	var acc []*Entry
	if atoms != nil {
		for _, name := range atoms.Names() {
			a, _ := atoms.Lookup(name)
			acc = append(acc, &Entry{
				Name:  name,
				Kind:  a.Convention().String(),
				Arity: a.Arity().String(),
				Doc:   a.Doc(),
			})
		}
	}
	if macros != nil {
		for _, name := range macros.Names() {
			m, _ := macros.Lookup(name)
			e := &Entry{
				Name: name,
				Kind: "native macro",
				Doc:  m.Doc(),
			}
			if t := m.Template(); t != nil {
				e.Kind = "macro"
				e.Params = t.Params.String()
				e.Template = t.Body.String()
			}
			acc = append(acc, e)
		}
	}
	sort.SliceStable(acc, func(i, j int) bool {
		return acc[i].Name < acc[j].Name
	})
	return acc
}

// RenderCatalogHTML writes an HTML table of the catalogue with each
// Doc rendered from Markdown.
func RenderCatalogHTML(es []*Entry, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="catalog"><table>`)
	for _, e := range es {
		id := "entry-" + html.EscapeString(e.Name)
		f(`<tr class="entry"><td><span id="%s" class="entryName">%s</span></td><td>`, id, html.EscapeString(e.Name))
		f(`<div class="kind">%s</div>`, e.Kind)
		if e.Arity != "" {
			f(`<div class="arity">%s arguments</div>`, e.Arity)
		}
		if e.Params != "" {
			f(`<div class="code"><code>%s</code></div>`, html.EscapeString(e.Signature()))
		}
		if e.Doc != "" {
			f(`<div class="entryDoc doc">%s</div>`, md.Run([]byte(e.Doc)))
		}
		if e.Template != "" {
			f(`<div class="code"><pre>%s</pre></div>`, html.EscapeString(e.Template))
		}
		f(`</td></tr>`)
	}
	f(`</table></div>`)
	return nil
}

// RenderCatalogPage writes a complete HTML page.
func RenderCatalogPage(title string, es []*Entry, out io.Writer, cssFiles []string) error {
	if cssFiles == nil {
		cssFiles = []string{"/static/catalog.css"}
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, html.EscapeString(title))

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, html.EscapeString(title))

	if err := RenderCatalogHTML(es, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// RenderCatalogText writes the catalogue as plain text.
func RenderCatalogText(es []*Entry, out io.Writer) {
	for _, e := range es {
		sig := e.Signature()
		if e.Arity != "" {
			sig += " [" + e.Arity + "]"
		}
		fmt.Fprintf(out, "%s (%s)\n", sig, e.Kind)
		for _, line := range strings.Split(strings.TrimSpace(e.Doc), "\n") {
			if line != "" {
				fmt.Fprintf(out, "    %s\n", line)
			}
		}
	}
}
