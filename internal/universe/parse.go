package universe

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// parseSP500 reads table#constituents: Symbol, Security, GICS Sector, GICS Sub-Industry, ...
func parseSP500(doc *goquery.Document) []Constituent {
	var members []Constituent

	doc.Find("table#constituents tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		symbol := cellText(cells.Eq(0))
		if symbol == "" {
			return
		}

		members = append(members, Constituent{
			// Yahoo spells class shares with '-' (BRK.B → BRK-B)
			Ticker:      strings.ReplaceAll(symbol, ".", "-"),
			Symbol:      symbol,
			Company:     cellText(cells.Eq(1)),
			Sector:      cellText(cells.Eq(2)),
			SubIndustry: cellText(cells.Eq(3)),
		})
	})

	return members
}

// parseFTSE100 reads table#constituents: Company, Ticker, FTSE industry classification
func parseFTSE100(doc *goquery.Document) []Constituent {
	var members []Constituent

	table := doc.Find("table#constituents").First()
	col := columnIndex(table, map[string]string{
		"company":  "company",
		"ticker":   "ticker",
		"epic":     "ticker",
		"sector":   "sector",
		"industry": "sector",
	})
	tickerCol, ok := col["ticker"]
	if !ok {
		return nil
	}

	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() <= tickerCol {
			return
		}

		symbol := strings.TrimSuffix(cellText(cells.Eq(tickerCol)), ".")
		if symbol == "" {
			return
		}

		m := Constituent{
			// LSE listings carry the .L suffix on Yahoo (BT.A → BT-A.L)
			Ticker: strings.ReplaceAll(symbol, ".", "-") + ".L",
			Symbol: symbol,
		}
		if idx, ok := col["company"]; ok && idx < cells.Length() {
			m.Company = cellText(cells.Eq(idx))
		}
		if idx, ok := col["sector"]; ok && idx < cells.Length() {
			m.Sector = cellText(cells.Eq(idx))
		}
		members = append(members, m)
	})

	return members
}

// columnIndex maps header keywords to column positions
func columnIndex(table *goquery.Selection, keywords map[string]string) map[string]int {
	out := make(map[string]int)
	table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
		header := strings.ToLower(cellText(th))
		for kw, name := range keywords {
			if _, taken := out[name]; taken {
				continue
			}
			if strings.Contains(header, kw) {
				out[name] = i
			}
		}
	})
	return out
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
