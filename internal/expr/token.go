package expr

// kind identifies a token class.
type kind uint8

const (
	tokEOF kind = iota
	tokInt
	tokFloat
	tokString
	tokIdent
	tokDot
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokComma
	tokNot
	tokMinus
	tokPlus
	tokStar
	tokSlash
	tokPercent
	tokEq
	tokNeq
	tokLt
	tokLeq
	tokGt
	tokGeq
	tokAnd
	tokOr
)

func (k kind) String() string {
	switch k {
	case tokEOF:
		return "end of expression"
	case tokInt:
		return "integer"
	case tokFloat:
		return "float"
	case tokString:
		return "string"
	case tokIdent:
		return "identifier"
	case tokDot:
		return "'.'"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	case tokNot:
		return "'!'"
	case tokMinus:
		return "'-'"
	case tokPlus:
		return "'+'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokPercent:
		return "'%'"
	case tokEq:
		return "'=='"
	case tokNeq:
		return "'!='"
	case tokLt:
		return "'<'"
	case tokLeq:
		return "'<='"
	case tokGt:
		return "'>'"
	case tokGeq:
		return "'>='"
	case tokAnd:
		return "'&&'"
	case tokOr:
		return "'||'"
	default:
		return "unknown token"
	}
}

// token is one lexed unit with its source offset.
type token struct {
	kind kind
	text string
	off  int
}
