package core

import (
	"fmt"
	"io"
	"strconv"
)

// ReferenceResolver resolves indirect references during parsing. The parser
// needs one when a stream's /Length is itself an indirect reference.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// Parser parses PDF objects from a reader with two tokens of lookahead.
// It handles every object type including indirect objects and streams.
type Parser struct {
	lexer    *Lexer
	cur      *Token
	peek     *Token
	resolver ReferenceResolver
}

// NewParser creates a parser and primes its lookahead.
func NewParser(r io.Reader) *Parser {
	p := &Parser{lexer: NewLexer(r)}
	p.advance()
	p.advance()
	return p
}

// SetReferenceResolver installs the resolver used for indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// advance shifts the lookahead window one token forward. When the current
// token becomes the stream keyword, the lexer stops tokenizing: binary
// payload follows and parseStream reads it directly.
func (p *Parser) advance() error {
	p.cur = p.peek

	if p.cur != nil && p.cur.Type == TokenKeyword && string(p.cur.Value) == "stream" {
		p.peek = nil
		return nil
	}

	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

// ParseObject parses and returns the next object from the input.
func (p *Parser) ParseObject() (Object, error) {
	if p.cur == nil {
		return nil, fmt.Errorf("unexpected end of input")
	}

	switch p.cur.Type {
	case TokenEOF:
		return nil, io.EOF

	case TokenKeyword:
		switch kw := string(p.cur.Value); kw {
		case "null":
			p.advance()
			return Null{}, nil
		case "true":
			p.advance()
			return Bool(true), nil
		case "false":
			p.advance()
			return Bool(false), nil
		default:
			return nil, fmt.Errorf("unexpected keyword %q at offset %d", kw, p.cur.Pos)
		}

	case TokenInteger:
		return p.parseIntegerOrRef()

	case TokenReal:
		v, err := strconv.ParseFloat(string(p.cur.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real number: %w", err)
		}
		p.advance()
		return Real(v), nil

	case TokenString, TokenHexString:
		// The lexer already unescaped/decoded the payload
		s := String(p.cur.Value)
		p.advance()
		return s, nil

	case TokenName:
		n := Name(p.cur.Value)
		p.advance()
		return n, nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDict()

	default:
		return nil, fmt.Errorf("unexpected token type %v at offset %d", p.cur.Type, p.cur.Pos)
	}
}

// parseIntegerOrRef disambiguates "n" from "n g R" by lookahead.
func (p *Parser) parseIntegerOrRef() (Object, error) {
	first, err := strconv.ParseInt(string(p.cur.Value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q: %w", p.cur.Value, err)
	}

	if p.peek != nil && p.peek.Type == TokenInteger {
		second, err := strconv.ParseInt(string(p.peek.Value), 10, 64)
		if err == nil {
			// Step onto the second integer so the third token is visible
			p.advance()
			if p.peek != nil && p.peek.Type == TokenKeyword && string(p.peek.Value) == "R" {
				p.advance() // onto R
				p.advance() // past R
				return IndirectRef{Number: int(first), Generation: int(second)}, nil
			}
			// Not a reference; cur is now the second integer, first stands alone
			return Int(first), nil
		}
	}

	p.advance()
	return Int(first), nil
}

func (p *Parser) parseArray() (Object, error) {
	p.advance() // past '['

	var arr Array
	for {
		if p.cur == nil {
			return nil, fmt.Errorf("unexpected end of input in array")
		}
		if p.cur.Type == TokenArrayEnd {
			p.advance()
			return arr, nil
		}
		if p.cur.Type == TokenEOF {
			return nil, fmt.Errorf("unexpected EOF in array")
		}

		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("array element: %w", err)
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDict() (Object, error) {
	p.advance() // past '<<'

	dict := make(Dict)
	for {
		if p.cur == nil {
			return nil, fmt.Errorf("unexpected end of input in dictionary")
		}
		if p.cur.Type == TokenDictEnd {
			p.advance()
			return dict, nil
		}
		if p.cur.Type == TokenEOF {
			return nil, fmt.Errorf("unexpected EOF in dictionary")
		}

		if p.cur.Type != TokenName {
			return nil, fmt.Errorf("dictionary key must be a name, got %v at offset %d", p.cur.Type, p.cur.Pos)
		}
		key := string(p.cur.Value)
		p.advance()

		val, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("value for key /%s: %w", key, err)
		}
		dict[key] = val
	}
}

// ParseIndirectObject parses "num gen obj <object> endobj", including stream
// objects ("... << dict >> stream ... endstream endobj").
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	if p.cur == nil || p.cur.Type != TokenInteger {
		return nil, fmt.Errorf("expected object number")
	}
	num, err := strconv.ParseInt(string(p.cur.Value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid object number: %w", err)
	}
	p.advance()

	if p.cur == nil || p.cur.Type != TokenInteger {
		return nil, fmt.Errorf("expected generation number")
	}
	gen, err := strconv.ParseInt(string(p.cur.Value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid generation number: %w", err)
	}
	p.advance()

	if p.cur == nil || p.cur.Type != TokenKeyword || string(p.cur.Value) != "obj" {
		return nil, fmt.Errorf("expected obj keyword")
	}
	p.advance()

	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("indirect object body: %w", err)
	}

	if p.cur != nil && p.cur.Type == TokenKeyword && string(p.cur.Value) == "stream" {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, fmt.Errorf("stream keyword must follow a dictionary")
		}
		stream, err := p.parseStream(dict)
		if err != nil {
			return nil, fmt.Errorf("stream body: %w", err)
		}
		obj = stream
	}

	if p.cur == nil || p.cur.Type != TokenKeyword || string(p.cur.Value) != "endobj" {
		return nil, fmt.Errorf("expected endobj keyword")
	}
	p.advance()

	return &IndirectObject{
		Ref:    IndirectRef{Number: int(num), Generation: int(gen)},
		Object: obj,
	}, nil
}

// parseStream reads the binary payload following the stream keyword. The
// byte count comes from the dictionary's /Length, resolving it first when
// it is an indirect reference.
func (p *Parser) parseStream(dict Dict) (*Stream, error) {
	var length int
	switch v := dict.Get("Length").(type) {
	case Int:
		length = int(v)
	case IndirectRef:
		if p.resolver == nil {
			return nil, fmt.Errorf("indirect stream length needs a reference resolver")
		}
		resolved, err := p.resolver.ResolveReference(v)
		if err != nil {
			return nil, fmt.Errorf("resolving stream length: %w", err)
		}
		n, ok := resolved.(Int)
		if !ok {
			return nil, fmt.Errorf("stream length resolved to %T, expected Int", resolved)
		}
		length = int(n)
	case nil:
		return nil, fmt.Errorf("stream dictionary missing Length")
	default:
		return nil, fmt.Errorf("invalid stream length type %T", v)
	}
	if length < 0 {
		return nil, fmt.Errorf("negative stream length %d", length)
	}

	// The lexer sits just past the stream keyword: skip the mandatory EOL,
	// then the payload is exactly length bytes.
	if err := p.lexer.SkipStreamEOL(); err != nil {
		return nil, fmt.Errorf("EOL after stream keyword: %w", err)
	}
	data, err := p.lexer.ReadBytes(length)
	if err != nil {
		return nil, fmt.Errorf("reading %d stream bytes: %w", length, err)
	}

	tok, err := p.lexer.NextToken()
	if err != nil {
		return nil, fmt.Errorf("token after stream data: %w", err)
	}
	if tok.Type != TokenKeyword || string(tok.Value) != "endstream" {
		return nil, fmt.Errorf("expected endstream, got %q", tok.Value)
	}

	// Restart the lookahead window past the stream
	p.cur, p.peek = nil, nil
	p.advance()
	p.advance()

	return &Stream{Dict: dict, Data: data}, nil
}
