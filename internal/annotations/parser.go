package annotations

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	derrors "github.com/toyz/dispatch/internal/errors"
)

// Annotation is the grammar root of a single "//dispatch:<kind> args..." comment.
type Annotation struct {
	Kind string `parser:"Prefix @Ident"`
	Args []*Arg `parser:"@@*"`
}

// Arg is a positional value or a key=value pair.
type Arg struct {
	Key    string  `parser:"(@Ident Assign)?"`
	String *string `parser:"( @String"`
	Word   *string `parser:"| @(Path | Ident | Number) )"`
}

func (a *Arg) value() (string, error) {
	if a.String != nil {
		return strconv.Unquote(*a.String)
	}
	if a.Word != nil {
		return *a.Word, nil
	}
	return "", nil
}

var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Prefix", Pattern: `//\s*dispatch:`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Path", Pattern: `[/:][^\s]*`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.\[\]-]*`},
	{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?`},
	{Name: "Assign", Pattern: `=`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Parser turns annotation comments into validated ParsedAnnotations.
type Parser struct {
	parser *participle.Parser[Annotation]
}

// NewParser creates a new parser
func NewParser() *Parser {
	return &Parser{
		parser: participle.MustBuild[Annotation](
			participle.Lexer(annotationLexer),
			participle.Elide("Whitespace"),
			participle.UseLookahead(2),
		),
	}
}

var annotationPrefix = regexp.MustCompile(`^//\s*dispatch:`)

// IsAnnotation reports whether a comment line is a dispatch annotation.
func IsAnnotation(comment string) bool {
	return annotationPrefix.MatchString(strings.TrimSpace(comment))
}

// Parse parses one annotation comment and validates it for the given target.
func (p *Parser) Parse(comment string, target Target, loc SourceLocation) (*ParsedAnnotation, error) {
	raw := strings.TrimSpace(comment)
	ast, err := p.parser.ParseString(loc.File, raw)
	if err != nil {
		return nil, derrors.WrapParseError("annotation "+strconv.Quote(raw), loc, err)
	}

	kind, err := ParseAnnotationType(ast.Kind)
	if err != nil {
		return nil, derrors.SyntaxError(loc, "%v", err).
			WithSuggestion("valid annotations: root, route, ignore, middleware, bind, validate, authorize")
	}

	parsed := &ParsedAnnotation{
		Type:     kind,
		Named:    make(map[string]string),
		Location: loc,
		Raw:      raw,
	}
	for _, arg := range ast.Args {
		value, err := arg.value()
		if err != nil {
			return nil, derrors.SyntaxError(loc, "invalid string literal in %q: %v", raw, err)
		}
		if arg.Key != "" {
			if kind == ValidateAnnotation {
				// validator tags such as "gte=18" are a single positional key
				parsed.Args = append(parsed.Args, arg.Key+"="+value)
				continue
			}
			parsed.Named[arg.Key] = value
			continue
		}
		parsed.Args = append(parsed.Args, value)
	}

	if err := Validate(parsed, target); err != nil {
		bad := derrors.SyntaxError(loc, "invalid annotation %q: %v", raw, err)
		if schema, ok := SchemaFor(kind); ok && len(schema.Examples) > 0 {
			bad.WithSuggestion("example: " + schema.Examples[0])
		}
		return nil, bad
	}
	return parsed, nil
}
