package renderer

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/lendscope/lendscope"
	md "github.com/nao1215/markdown"
)

// LifecycleMarkdown renders the client lifecycle census, with the per-client
// detail when 'detailed' is set.
func LifecycleMarkdown(s lendscope.LifecycleSummary, detailed bool) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Client Lifecycle")
	doc.Table(lifecycleTable(s))

	if detailed && len(s.States) > 0 {
		doc.H2("Clients")
		table := md.TableSet{
			Header: []string{"Customer", "Status", "Last Active", "Lapsed"},
		}
		for _, c := range s.States {
			table.Rows = append(table.Rows, []string{
				c.CustomerID,
				c.Status.String(),
				c.ActiveWindow,
				c.LapsedWindow,
			})
		}
		doc.Table(table)
	}
	return doc.String()
}

func lifecycleTable(s lendscope.LifecycleSummary) md.TableSet {
	total := s.New + s.Recurring + s.Recovered + s.Churned
	return md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header: []string{
			md.Bold("Clients"),
			md.Bold(fmt.Sprintf("%d", total)),
		},
		Rows: [][]string{
			{"New", strconv.Itoa(s.New)},
			{"Recurring", strconv.Itoa(s.Recurring)},
			{"Recovered", strconv.Itoa(s.Recovered)},
			{"Churned", strconv.Itoa(s.Churned)},
		},
	}
}
