package bot

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
)

// ArgKind is the type of a command argument.
type ArgKind int

const (
	// ArgString is a single word.
	ArgString ArgKind = iota
	// ArgNumber is a decimal number. A comma is accepted as decimal separator.
	ArgNumber
	// ArgUser is a mentioned user or a raw LINE user ID.
	ArgUser
	// ArgText consumes the rest of the line. It must be the last argument.
	ArgText
)

// Arg describes one positional argument.
type Arg struct {
	Name     string
	Kind     ArgKind
	Optional bool
}

// ArgSpec is the ordered argument list of a command.
type ArgSpec []Arg

// Token is one whitespace-separated word of a command line. Tokens that
// came from a LINE mention carry the mentioned user's ID.
type Token struct {
	Text   string
	UserID string
}

// Tokenize splits plain text into tokens.
func Tokenize(text string) []Token {
	fields := strings.Fields(text)
	tokens := make([]Token, len(fields))
	for i, f := range fields {
		tokens[i] = Token{Text: f}
	}
	return tokens
}

// lineUserID matches a LINE user ID typed verbatim.
var lineUserID = regexp.MustCompile(`^U[0-9a-f]{32}$`)

// Usage renders the usage line of a command, e.g. "/apostar <evento> [valor]".
func (s ArgSpec) Usage(command string) string {
	var b strings.Builder
	b.WriteString("/" + command)
	for _, a := range s {
		name := a.Name
		if a.Kind == ArgUser {
			name = "@" + name
		}
		if a.Optional {
			fmt.Fprintf(&b, " [%s]", name)
		} else {
			fmt.Fprintf(&b, " <%s>", name)
		}
	}
	return b.String()
}

// Parse binds tokens to the spec. Missing required arguments, malformed
// values and extra tokens are reported as a ValidationError.
func (s ArgSpec) Parse(tokens []Token) (Args, error) {
	args := Args{values: make(map[string]argValue, len(s))}
	pos := 0

	for i, a := range s {
		if pos >= len(tokens) {
			if a.Optional {
				continue
			}
			return Args{}, domerrors.NewValidationError(a.Name, fmt.Sprintf("Argumento obrigatório ausente: %s.", a.Name))
		}

		if a.Kind == ArgText {
			if i != len(s)-1 {
				return Args{}, fmt.Errorf("text argument %q must be the last one", a.Name)
			}
			parts := make([]string, 0, len(tokens)-pos)
			for _, t := range tokens[pos:] {
				parts = append(parts, t.Text)
			}
			args.values[a.Name] = argValue{text: strings.Join(parts, " ")}
			pos = len(tokens)
			continue
		}

		v, err := parseToken(a, tokens[pos])
		if err != nil {
			return Args{}, err
		}
		args.values[a.Name] = v
		pos++
	}

	if pos < len(tokens) {
		return Args{}, domerrors.NewValidationError("args", "Argumentos demais.")
	}
	return args, nil
}

func parseToken(a Arg, t Token) (argValue, error) {
	switch a.Kind {
	case ArgNumber:
		f, err := strconv.ParseFloat(strings.ReplaceAll(t.Text, ",", "."), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return argValue{}, domerrors.NewValidationError(a.Name, fmt.Sprintf("%s deve ser um número.", a.Name))
		}
		return argValue{text: t.Text, num: f}, nil
	case ArgUser:
		switch {
		case t.UserID != "":
			return argValue{text: t.Text, user: t.UserID}, nil
		case lineUserID.MatchString(t.Text):
			return argValue{text: t.Text, user: t.Text}, nil
		}
		return argValue{}, domerrors.NewValidationError(a.Name, fmt.Sprintf("Mencione um usuário em %s.", a.Name))
	default:
		return argValue{text: t.Text}, nil
	}
}

type argValue struct {
	text string
	num  float64
	user string
}

// Args holds parsed argument values by name.
type Args struct {
	values map[string]argValue
}

// Has reports whether the argument was supplied.
func (a Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// String returns the raw text of the argument, "" when absent.
func (a Args) String(name string) string {
	return a.values[name].text
}

// Number returns a numeric argument, 0 when absent.
func (a Args) Number(name string) float64 {
	return a.values[name].num
}

// Int returns a numeric argument as an integer and whether it was an
// integral value.
func (a Args) Int(name string) (int64, bool) {
	v, ok := a.values[name]
	if !ok || v.num != math.Trunc(v.num) || math.Abs(v.num) > math.MaxInt64/2 {
		return 0, false
	}
	return int64(v.num), true
}

// User returns the user ID of a user argument and its display text.
func (a Args) User(name string) (id, display string) {
	v := a.values[name]
	return v.user, v.text
}

// NewArgs builds Args from plain values. Meant for tests and for modules
// re-entering a command from a postback.
func NewArgs(values map[string]string) Args {
	args := Args{values: make(map[string]argValue, len(values))}
	for k, v := range values {
		f, _ := strconv.ParseFloat(v, 64)
		args.values[k] = argValue{text: v, num: f, user: v}
	}
	return args
}
