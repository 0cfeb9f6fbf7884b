package core

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// TokenType represents the type of lexical token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenKeyword    // true, false, null, obj, endobj, stream, R, ...
	TokenInteger    // 42
	TokenReal       // 3.14
	TokenString     // (hello) — Value holds the unescaped bytes
	TokenHexString  // <48656C6C6F> — Value holds the decoded bytes
	TokenName       // /Type — Value holds the name without the slash
	TokenArrayStart // [
	TokenArrayEnd   // ]
	TokenDictStart  // <<
	TokenDictEnd    // >>
)

// Token represents one lexical token and its byte offset in the input.
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int64
}

// Lexer tokenizes PDF syntax. Comments are consumed silently; string and
// name escapes are resolved so Token.Value always carries final bytes.
type Lexer struct {
	r   *bufio.Reader
	pos int64
}

// NewLexer creates a lexer reading from r.
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{r: bufio.NewReader(r)}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() (*Token, error) {
	for {
		l.skipWhitespace()

		b, err := l.peek()
		if err == io.EOF {
			return &Token{Type: TokenEOF, Pos: l.pos}, nil
		}
		if err != nil {
			return nil, err
		}

		if b == '%' {
			l.skipComment()
			continue
		}

		switch b {
		case '[':
			l.readByte()
			return &Token{Type: TokenArrayStart, Value: []byte{'['}, Pos: l.pos - 1}, nil
		case ']':
			l.readByte()
			return &Token{Type: TokenArrayEnd, Value: []byte{']'}, Pos: l.pos - 1}, nil
		case '(':
			return l.readString()
		case '<':
			two, err := l.r.Peek(2)
			if err == nil && len(two) == 2 && two[1] == '<' {
				l.readByte()
				l.readByte()
				return &Token{Type: TokenDictStart, Value: []byte("<<"), Pos: l.pos - 2}, nil
			}
			return l.readHexString()
		case '>':
			two, err := l.r.Peek(2)
			if err == nil && len(two) == 2 && two[1] == '>' {
				l.readByte()
				l.readByte()
				return &Token{Type: TokenDictEnd, Value: []byte(">>"), Pos: l.pos - 2}, nil
			}
			return nil, fmt.Errorf("unexpected '>' at offset %d", l.pos)
		case '/':
			return l.readName()
		}

		if isDigit(b) || b == '-' || b == '+' || b == '.' {
			return l.readNumber()
		}
		if isAlpha(b) {
			return l.readKeyword()
		}

		return nil, fmt.Errorf("unexpected byte 0x%02x at offset %d", b, l.pos)
	}
}

func (l *Lexer) readByte() (byte, error) {
	b, err := l.r.ReadByte()
	if err != nil {
		return 0, err
	}
	l.pos++
	return b, nil
}

func (l *Lexer) peek() (byte, error) {
	bs, err := l.r.Peek(1)
	if err != nil {
		return 0, err
	}
	return bs[0], nil
}

// skipWhitespace consumes PDF whitespace: space, tab, LF, CR, FF, NUL.
func (l *Lexer) skipWhitespace() {
	for {
		b, err := l.peek()
		if err != nil || !isWhitespace(b) {
			return
		}
		l.readByte()
	}
}

// skipComment consumes from '%' through end of line.
func (l *Lexer) skipComment() {
	for {
		b, err := l.readByte()
		if err != nil {
			return
		}
		if b == '\n' {
			return
		}
		if b == '\r' {
			if next, err := l.peek(); err == nil && next == '\n' {
				l.readByte()
			}
			return
		}
	}
}

// readString reads a literal string, resolving escapes and balanced parens.
func (l *Lexer) readString() (*Token, error) {
	startPos := l.pos
	l.readByte() // consume '('

	var buf bytes.Buffer
	depth := 1
	for depth > 0 {
		b, err := l.readByte()
		if err != nil {
			return nil, fmt.Errorf("unterminated string at offset %d", startPos)
		}

		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth > 0 {
				buf.WriteByte(b)
			}
		case '\\':
			next, err := l.readByte()
			if err != nil {
				return nil, fmt.Errorf("unterminated escape at offset %d", l.pos)
			}
			switch next {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '(', ')', '\\':
				buf.WriteByte(next)
			case '\r', '\n':
				// Escaped newline continues the string
				if next == '\r' {
					if p, err := l.peek(); err == nil && p == '\n' {
						l.readByte()
					}
				}
			case '0', '1', '2', '3', '4', '5', '6', '7':
				val := next - '0'
				for i := 0; i < 2; i++ {
					p, err := l.peek()
					if err != nil || !isOctalDigit(p) {
						break
					}
					d, _ := l.readByte()
					val = val*8 + (d - '0')
				}
				buf.WriteByte(val)
			default:
				// Unknown escape keeps the escaped byte
				buf.WriteByte(next)
			}
		default:
			buf.WriteByte(b)
		}
	}

	return &Token{Type: TokenString, Value: buf.Bytes(), Pos: startPos}, nil
}

// readHexString reads <hex digits>, decoding pairs to bytes. An odd final
// digit is padded with zero, per the file format's rule.
func (l *Lexer) readHexString() (*Token, error) {
	startPos := l.pos
	l.readByte() // consume '<'

	var digits []byte
	for {
		b, err := l.readByte()
		if err != nil {
			return nil, fmt.Errorf("unterminated hex string at offset %d", startPos)
		}
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		if !isHexDigit(b) {
			return nil, fmt.Errorf("invalid hex digit %q at offset %d", b, l.pos-1)
		}
		digits = append(digits, b)
	}

	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	decoded := make([]byte, len(digits)/2)
	for i := 0; i < len(decoded); i++ {
		decoded[i] = hexValue(digits[2*i])<<4 | hexValue(digits[2*i+1])
	}

	return &Token{Type: TokenHexString, Value: decoded, Pos: startPos}, nil
}

// readName reads /Name, resolving #xx escapes.
func (l *Lexer) readName() (*Token, error) {
	startPos := l.pos
	l.readByte() // consume '/'

	var buf bytes.Buffer
	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.readByte()

		if b == '#' {
			h1, err1 := l.readByte()
			h2, err2 := l.readByte()
			if err1 != nil || err2 != nil || !isHexDigit(h1) || !isHexDigit(h2) {
				return nil, fmt.Errorf("invalid name escape at offset %d", l.pos)
			}
			buf.WriteByte(hexValue(h1)<<4 | hexValue(h2))
			continue
		}
		buf.WriteByte(b)
	}

	return &Token{Type: TokenName, Value: buf.Bytes(), Pos: startPos}, nil
}

// readNumber reads an integer or real. A second '.' terminates the number.
func (l *Lexer) readNumber() (*Token, error) {
	startPos := l.pos
	var buf bytes.Buffer
	sawDot := false

	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch {
		case b == '.' && !sawDot:
			sawDot = true
		case isDigit(b):
		case buf.Len() == 0 && (b == '-' || b == '+'):
		default:
			goto done
		}
		l.readByte()
		buf.WriteByte(b)
	}
done:

	typ := TokenInteger
	if sawDot {
		typ = TokenReal
	}
	return &Token{Type: typ, Value: buf.Bytes(), Pos: startPos}, nil
}

// readKeyword reads an alphanumeric keyword (true, obj, stream, R, ...).
func (l *Lexer) readKeyword() (*Token, error) {
	startPos := l.pos
	var buf bytes.Buffer

	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !isAlpha(b) && !isDigit(b) {
			break
		}
		l.readByte()
		buf.WriteByte(b)
	}

	return &Token{Type: TokenKeyword, Value: buf.Bytes(), Pos: startPos}, nil
}

// ReadBytes reads exactly n bytes of raw data (used for stream payloads).
func (l *Lexer) ReadBytes(n int) ([]byte, error) {
	data := make([]byte, n)
	read := 0
	for read < n {
		m, err := l.r.Read(data[read:])
		read += m
		l.pos += int64(m)
		if err == io.EOF {
			if read < n {
				return data[:read], fmt.Errorf("unexpected EOF: wanted %d bytes, got %d", n, read)
			}
			break
		}
		if err != nil {
			return data[:read], err
		}
	}
	return data, nil
}

// SkipBytes discards exactly n bytes.
func (l *Lexer) SkipBytes(n int) error {
	for i := 0; i < n; i++ {
		if _, err := l.readByte(); err != nil {
			return err
		}
	}
	return nil
}

// Peek returns the next byte without consuming it.
func (l *Lexer) Peek() (byte, error) {
	return l.peek()
}

// ReadByte consumes and returns one byte.
func (l *Lexer) ReadByte() (byte, error) {
	return l.readByte()
}

// Pos returns the current byte offset.
func (l *Lexer) Pos() int64 {
	return l.pos
}

// SkipStreamEOL consumes the end-of-line that separates the stream keyword
// from the binary payload: a single LF, or CR LF. A lone CR is also
// tolerated, as some writers emit it.
func (l *Lexer) SkipStreamEOL() error {
	b, err := l.peek()
	if err != nil {
		return err
	}
	switch b {
	case '\n':
		l.readByte()
	case '\r':
		l.readByte()
		if next, err := l.peek(); err == nil && next == '\n' {
			l.readByte()
		}
	}
	return nil
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
