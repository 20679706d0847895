package renderer

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/lendscope/lendscope"
	md "github.com/nao1215/markdown"
)

// GridMarkdown renders the pricing grid as one table per product type.
func GridMarkdown(g *lendscope.PricingGrid) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Pricing Grid")
	bands := g.Bands()
	if len(bands) == 0 {
		doc.PlainText("The grid has no bands.")
		return doc.String()
	}

	var product string
	var table md.TableSet
	flush := func() {
		if product != "" {
			doc.H2(product)
			doc.Table(table)
		}
	}
	for _, b := range bands {
		if b.ProductType != product {
			flush()
			product = b.ProductType
			table = md.TableSet{
				Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
				Header:    []string{"Segment", "Tenor (days)", "Amount", "Base", "Margin", "Total"},
			}
		}
		tenor := strconv.Itoa(b.TenorMin) + "+"
		if b.TenorMax != 0 {
			tenor = fmt.Sprintf("%d to %d", b.TenorMin, b.TenorMax)
		}
		amount := b.AmountMin.String() + "+"
		if !b.AmountMax.IsZero() {
			amount = fmt.Sprintf("%s to %s", b.AmountMin, b.AmountMax)
		}
		table.Rows = append(table.Rows, []string{
			b.Segment,
			tenor,
			amount,
			b.BaseRate.Percent().String(),
			b.Margin.Percent().String(),
			b.TotalRate.Percent().String(),
		})
	}
	flush()
	return doc.String()
}

// MatchMarkdown renders the outcome of one pricing lookup.
func MatchMarkdown(productType string, tenorDays int, amount lendscope.Money, band lendscope.PricingBand, err error) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Pricing Lookup")
	doc.PlainText(fmt.Sprintf("Product %q, tenor %d days, amount %s.", productType, tenorDays, amount))
	if err != nil {
		doc.PlainText(fmt.Sprintf("No rate: %v.", err))
		return doc.String()
	}
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header: []string{
			md.Bold("Band"),
			md.Bold(band.ID()),
		},
		Rows: [][]string{
			{"Base Rate", band.BaseRate.Percent().String()},
			{"Margin", band.Margin.Percent().String()},
			{"Total Rate", band.TotalRate.Percent().String()},
		},
	})
	return doc.String()
}
