package preprocess

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	reSpaces     = regexp.MustCompile(`[ \t]+`)
	reNewlines   = regexp.MustCompile(`\n{3,}`)
	reHyphenWrap = regexp.MustCompile(`(\p{L})-\n(\p{Ll})`)
	rePageNumber = regexp.MustCompile(`(?i)^\s*(page\s+)?\d+(\s+(of|/)\s+\d+)?\s*$`)
)

var ligatures = strings.NewReplacer(
	"ﬁ", "fi", "ﬂ", "fl", "ﬀ", "ff", "ﬃ", "ffi", "ﬄ", "ffl",
	"—", "-", "–", "-",
	"·", ".", "•", "-",
	" ", " ",
)

// CleanBasic: space、OCR common error and space line.
func CleanBasic(text string) string {
	if text == "" {
		return ""
	}

	// remove control chars except newline
	b := strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		if r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)

	b = ligatures.Replace(b)
	b = reSpaces.ReplaceAllString(b, " ")
	b = reNewlines.ReplaceAllString(b, "\n\n")

	return strings.TrimSpace(b)
}

// JoinHyphenated rejoins words split across lines by PDF layout ("transfor-\nmers").
func JoinHyphenated(text string) string {
	return reHyphenWrap.ReplaceAllString(text, "$1$2")
}

// HTMLToText: lightweight extraction of content, keep headings and paragraphs
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	var out []string
	doc.Find("h1,h2,h3,h4,p,li,pre,table").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		switch goquery.NodeName(s) {
		case "h1":
			out = append(out, "# "+text)
		case "h2":
			out = append(out, "## "+text)
		case "h3", "h4":
			out = append(out, "### "+text)
		case "p":
			if text != "" {
				out = append(out, text)
			}
		case "li":
			out = append(out, "- "+text)
		case "pre":
			out = append(out, "```\n"+text+"\n```")
		case "table":
			out = append(out, parseTable(s))
		}
	})
	return strings.Join(out, "\n\n"), nil
}

func parseTable(sel *goquery.Selection) string {
	var rows []string
	sel.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var cols []string
		tr.Find("th,td").Each(func(j int, td *goquery.Selection) {
			cols = append(cols, strings.TrimSpace(td.Text()))
		})
		if len(cols) > 0 {
			rows = append(rows, "| "+strings.Join(cols, " | ")+" |")
		}
	})
	return strings.Join(rows, "\n")
}

// RemoveDuplicateParagraphs dedupe by exact paragraph text
func RemoveDuplicateParagraphs(text string) string {
	parts := strings.Split(text, "\n\n")
	seen := map[string]struct{}{}
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return strings.Join(out, "\n\n")
}

// RemovePageNoise drops lines that only carry a page number ("12", "Page 3 of 10").
func RemovePageNoise(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if rePageNumber.MatchString(l) {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

// Preprocess: pipeline
func Preprocess(raw string) string {
	t := CleanBasic(raw)
	t = JoinHyphenated(t)
	t = RemovePageNoise(t)
	t = RemoveDuplicateParagraphs(t)
	return t
}
