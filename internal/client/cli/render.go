package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/net/html"

	"github.com/dmitrijs2005/careerkit/internal/client/api"
	"github.com/dmitrijs2005/careerkit/internal/client/credits"
	"github.com/dmitrijs2005/careerkit/internal/client/workflow"
)

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "section": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "table": true, "header": true, "footer": true,
}

// plainText renders document markup as readable terminal text.
func plainText(markup string) string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return markup
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				if s := b.String(); s != "" && !strings.HasSuffix(s, "\n") && !strings.HasSuffix(s, " ") {
					b.WriteByte(' ')
				}
				b.WriteString(text)
			}
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head":
				return
			case "li":
				newline(&b)
				b.WriteString("- ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			newline(&b)
		}
	}
	walk(doc)

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func newline(b *strings.Builder) {
	if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteByte('\n')
	}
}

// describeState is the one-line summary shown by "show" and after each
// successful action.
func describeState(st workflow.State) string {
	s := fmt.Sprintf("%s: %s", st.Kind.Title(), st.Phase)
	if tier, ok := st.Tier(); ok {
		s += fmt.Sprintf(" (ATS score %s, %s)", credits.Format(*st.Score), tier)
	}
	return s
}

func renderProfile(w io.Writer, p *api.Profile) {
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetAutoWrapText(false)
	for _, row := range [][]string{
		{"Name", p.FullName},
		{"Email", p.Email},
		{"Phone", p.Phone},
		{"Location", p.Location},
		{"LinkedIn", p.LinkedIn},
		{"Portfolio", p.Portfolio},
		{"Credits", credits.Format(p.Credits)},
	} {
		if row[1] == "" {
			row[1] = "-"
		}
		table.Append(row)
	}
	table.Render()

	if len(p.History) == 0 {
		fmt.Fprintln(w, "No payments yet.")
		return
	}

	fmt.Fprintln(w, "Payment history:")
	history := tablewriter.NewWriter(w)
	history.SetHeader([]string{"Date", "Plan", "Amount", "Credits"})
	history.SetAutoWrapText(false)
	for _, pay := range p.History {
		history.Append([]string{pay.Date, pay.Plan, pay.Amount, "+" + credits.Format(pay.Credits)})
	}
	history.Render()
}
