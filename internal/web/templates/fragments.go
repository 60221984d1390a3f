// Package templates renders the HTML fragments returned to HTMX requests.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/opsdesk/internal/core"
)

var esc = templ.EscapeString[string]

// ErrorAlert renders a dismissable error box with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		fmt.Fprintf(&b, `<p class="alert-message">%s</p>`, esc(message))
		if action != "" {
			fmt.Fprintf(&b, `<p class="alert-action">%s</p>`, esc(action))
		}
		if code != "" {
			fmt.Fprintf(&b, `<p class="alert-code">Code: %s</p>`, esc(code))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// PreviewData is what the preview step shows before submit.
type PreviewData struct {
	SessionID string
	Entity    core.EntityDefinition
	Headers   []string
	Rows      []map[string]string
	RowCount  int
	Issues    []core.RowIssue
}

// PreviewTable renders the first rows of a parsed file, the row-level issues,
// and the submit button for the session.
func PreviewTable(p PreviewData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<section class="import-preview" id="import-%s">`, esc(p.SessionID))
		fmt.Fprintf(&b, `<h3>%s: %d row(s)</h3>`, esc(p.Entity.Info.Label), p.RowCount)

		if len(p.Rows) == 0 {
			b.WriteString(`<p class="empty">No data rows found.</p>`)
		} else {
			b.WriteString(`<table class="preview"><thead><tr>`)
			for _, h := range p.Headers {
				fmt.Fprintf(&b, `<th>%s</th>`, esc(h))
			}
			b.WriteString(`</tr></thead><tbody>`)
			for _, row := range p.Rows {
				shown := core.DisplayRow(p.Entity, row)
				b.WriteString(`<tr>`)
				for _, h := range p.Headers {
					fmt.Fprintf(&b, `<td>%s</td>`, esc(shown[h]))
				}
				b.WriteString(`</tr>`)
			}
			b.WriteString(`</tbody></table>`)
		}

		writeIssues(&b, p.Issues)

		if p.RowCount > 0 {
			fmt.Fprintf(&b,
				`<button hx-post="/api/import/session/%s/submit" hx-target="#import-%s" hx-swap="outerHTML">Import %d row(s)</button>`,
				esc(p.SessionID), esc(p.SessionID), p.RowCount)
		}
		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ImportResultSummary renders the outcome of a submit.
func ImportResultSummary(sessionID string, result *core.ImportResult, userMsg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<section class="import-result" id="import-%s">`, esc(sessionID))

		if result.Succeeded() {
			fmt.Fprintf(&b, `<p class="success">Imported %d of %d row(s).</p>`, result.Inserted, result.Submitted)
		} else {
			if _, err := io.WriteString(w, b.String()); err != nil {
				return err
			}
			b.Reset()
			if err := ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(ctx, w); err != nil {
				return err
			}
			if userMsg.Detail != "" {
				fmt.Fprintf(&b, `<pre class="detail">%s</pre>`, esc(userMsg.Detail))
			}
			if result.Atomic && result.Submitted > 0 {
				b.WriteString(`<p>No rows were imported. Fix the file and submit again.</p>`)
			}
			for _, o := range result.Outcomes {
				if o.Status == core.OutcomeFailed {
					fmt.Fprintf(&b, `<p class="row-error">Line %d: %s</p>`, o.Line, esc(o.Error))
				}
			}
		}

		writeIssues(&b, result.Issues)
		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeIssues(b *strings.Builder, issues []core.RowIssue) {
	if len(issues) == 0 {
		return
	}
	b.WriteString(`<ul class="issues">`)
	for _, is := range issues {
		fmt.Fprintf(b, `<li data-code="%s">Line %d, %s: %s</li>`,
			esc(is.Code), is.Line, esc(is.Field), esc(is.Message))
	}
	b.WriteString(`</ul>`)
}
