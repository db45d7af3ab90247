package lexer

import "strings"

// ReplacePrefix replaces placeholder with prefix everywhere outside string
// literals. Quoted identifiers are not protected, so "#__users" in an ANSI
// flavor still receives the prefix.
func (f Flavor) ReplacePrefix(sql, placeholder, prefix string) string {
	sql = strings.TrimSpace(sql)
	if placeholder == "" || !strings.Contains(sql, placeholder) {
		return sql
	}
	toks, err := f.Tokenize(sql)
	if err != nil {
		return sql
	}

	var out, run strings.Builder
	flush := func() {
		out.WriteString(strings.ReplaceAll(run.String(), placeholder, prefix))
		run.Reset()
	}
	for _, t := range toks {
		if t.Kind == String {
			flush()
			out.WriteString(t.Text)
			continue
		}
		run.WriteString(t.Text)
	}
	flush()
	return out.String()
}
