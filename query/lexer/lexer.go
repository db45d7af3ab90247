// Package lexer tokenizes SQL text into literal runs, quoted regions,
// comments, operators and identifiers. Prefix substitution, named parameter
// mapping and expression splitting all consume the same token stream.
package lexer

import (
	"fmt"
	"strings"
	"sync"

	plex "github.com/alecthomas/participle/v2/lexer"
)

// Kind classifies a token.
type Kind int

const (
	Whitespace Kind = iota
	Comment
	// String is a quoted string literal, including its quotes.
	String
	// QuotedIdent is a quoted identifier: "x", `x` or [x] depending on flavor.
	QuotedIdent
	// Param is a named placeholder such as :id.
	Param
	// Positional is a ? placeholder.
	Positional
	Number
	// Word is an unquoted identifier or keyword.
	Word
	Operator
	// Punct is one of ( ) , . ;
	Punct
	Other
)

var kindNames = [...]string{"Whitespace", "Comment", "String", "QuotedIdent", "Param", "Positional", "Number", "Word", "Operator", "Punct", "Other"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one lexeme with its byte offset in the input.
type Token struct {
	Kind   Kind
	Text   string
	Offset int
}

// Is reports whether t is the unquoted word w, compared case-insensitively.
func (t Token) Is(w string) bool {
	return t.Kind == Word && strings.EqualFold(t.Text, w)
}

// Flavor describes how a backend quotes strings and identifiers.
type Flavor struct {
	Name string
	// BackslashEscapes lets a backslash escape the next character inside
	// string literals.
	BackslashEscapes bool
	// DoubleQuotedStrings treats "..." as a string literal instead of an
	// identifier.
	DoubleQuotedStrings bool
	// EscapeStrings accepts E'...' literals, in which a backslash escapes
	// the next character regardless of BackslashEscapes.
	EscapeStrings bool
	Backticks     bool
	Brackets      bool
}

var (
	ANSI       = Flavor{Name: "ansi"}
	MySQL      = Flavor{Name: "mysql", BackslashEscapes: true, DoubleQuotedStrings: true, Backticks: true}
	PostgreSQL = Flavor{Name: "postgresql", EscapeStrings: true}
	SQLite     = Flavor{Name: "sqlite", Backticks: true, Brackets: true}
	SQLServer  = Flavor{Name: "sqlserver", Brackets: true}
)

type definition struct {
	def   *plex.StatefulDefinition
	kinds map[plex.TokenType]Kind
}

var definitions sync.Map // Flavor -> *definition

func (f Flavor) rules() []plex.SimpleRule {
	quoted := func(q string) string {
		if f.BackslashEscapes {
			return q + `(?:[^` + q + `\\]|\\[\s\S]|` + q + q + `)*` + q
		}
		return q + `(?:[^` + q + `]|` + q + q + `)*` + q
	}

	var strs []string
	if f.EscapeStrings {
		strs = append(strs, `[Ee]'(?:[^'\\]|\\[\s\S]|'')*'`)
	}
	strs = append(strs, quoted(`'`))
	var idents []string
	if f.DoubleQuotedStrings {
		strs = append(strs, quoted(`"`))
	} else {
		idents = append(idents, `"(?:[^"]|"")*"`)
	}
	// An unterminated literal runs to the end of the input.
	strs = append(strs, `'[\s\S]*`)
	if f.DoubleQuotedStrings {
		strs = append(strs, `"[\s\S]*`)
	}
	if f.Backticks {
		idents = append(idents, "`[^`]*`")
	}
	if f.Brackets {
		idents = append(idents, `\[[^\]]*\]`)
	}

	rules := []plex.SimpleRule{
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "Comment", Pattern: `--[^\n]*|/\*(?:[\s\S]*?\*/|[\s\S]*)`},
		{Name: "String", Pattern: strings.Join(strs, "|")},
	}
	if len(idents) > 0 {
		rules = append(rules, plex.SimpleRule{Name: "QuotedIdent", Pattern: strings.Join(idents, "|")})
	}
	return append(rules,
		plex.SimpleRule{Name: "Cast", Pattern: `::`},
		plex.SimpleRule{Name: "Param", Pattern: `:[A-Za-z_][A-Za-z0-9_]*`},
		plex.SimpleRule{Name: "Positional", Pattern: `\?`},
		plex.SimpleRule{Name: "Number", Pattern: `\d+(?:\.\d+)?(?:[eE][-+]?\d+)?`},
		plex.SimpleRule{Name: "Word", Pattern: `[\p{L}_#@$][\p{L}\p{N}_#@$]*`},
		plex.SimpleRule{Name: "Operator", Pattern: `<>|!=|<=|>=|\|\||[-+*/%&|~^=<>!]`},
		plex.SimpleRule{Name: "Punct", Pattern: `[(),.;]`},
		plex.SimpleRule{Name: "Other", Pattern: `[\s\S]`},
	)
}

var ruleKinds = map[string]Kind{
	"Whitespace":  Whitespace,
	"Comment":     Comment,
	"String":      String,
	"QuotedIdent": QuotedIdent,
	"Cast":        Operator,
	"Param":       Param,
	"Positional":  Positional,
	"Number":      Number,
	"Word":        Word,
	"Operator":    Operator,
	"Punct":       Punct,
	"Other":       Other,
}

func (f Flavor) definition() (*definition, error) {
	if d, ok := definitions.Load(f); ok {
		return d.(*definition), nil
	}
	def, err := plex.NewSimple(f.rules())
	if err != nil {
		return nil, fmt.Errorf("lexer: %s: %w", f.Name, err)
	}
	d := &definition{def: def, kinds: make(map[plex.TokenType]Kind)}
	for name, typ := range def.Symbols() {
		if k, ok := ruleKinds[name]; ok {
			d.kinds[typ] = k
		}
	}
	actual, _ := definitions.LoadOrStore(f, d)
	return actual.(*definition), nil
}

// Tokenize splits sql into tokens. Concatenating the token texts yields sql.
func (f Flavor) Tokenize(sql string) ([]Token, error) {
	d, err := f.definition()
	if err != nil {
		return nil, err
	}
	lex, err := d.def.LexString("", sql)
	if err != nil {
		return nil, fmt.Errorf("lexer: %w", err)
	}
	var out []Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, fmt.Errorf("lexer: %w", err)
		}
		if tok.EOF() {
			return out, nil
		}
		out = append(out, Token{Kind: d.kinds[tok.Type], Text: tok.Value, Offset: tok.Pos.Offset})
	}
}

// MustTokenize is Tokenize for inputs the catch-all rule always accepts.
func (f Flavor) MustTokenize(sql string) []Token {
	toks, err := f.Tokenize(sql)
	if err != nil {
		panic(err)
	}
	return toks
}
