// Package contentstream parses PDF content streams into operator/operand
// sequences for the layout pipeline to interpret.
package contentstream

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/tsawler/accessify/core"
)

// Operation represents one content stream operation: an operator plus the
// operands that preceded it.
type Operation struct {
	Operator string
	Operands []core.Object
}

// Parser parses a decoded content stream into operations in order.
type Parser struct {
	data  []byte
	pos   int
	ops   []Operation
	stack []core.Object
}

// NewParser creates a parser over decoded content stream bytes.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Parse returns all operations in stream order. Inline image data (BI..EI)
// is consumed and discarded; image placements are carried by XObjects here.
func (p *Parser) Parse() ([]Operation, error) {
	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			break
		}
		if err := p.parseNext(); err != nil {
			return nil, err
		}
	}
	return p.ops, nil
}

// parseNext handles one token: operands push onto the pending stack, an
// operator consumes the stack into an Operation.
func (p *Parser) parseNext() error {
	start := p.pos
	c := p.data[p.pos]

	if c == '%' {
		p.skipComment()
		return nil
	}

	// Operators start with a letter or are the quote shorthands for
	// move-and-show-text.
	if isLetter(c) || c == '\'' || c == '"' {
		return p.parseOperator()
	}

	operand, err := p.parseOperand()
	if err != nil {
		return fmt.Errorf("at offset %d: %w", start, err)
	}
	p.stack = append(p.stack, operand)
	return nil
}

// parseOperator reads an operator name and emits an Operation from the
// pending operand stack.
func (p *Parser) parseOperator() error {
	start := p.pos

	var buf bytes.Buffer
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if isLetter(c) || c == '\'' || c == '"' || c == '*' {
			buf.WriteByte(c)
			p.pos++
		} else {
			break
		}
	}

	op := buf.String()
	if op == "" {
		return fmt.Errorf("empty operator at offset %d", start)
	}

	// BI starts an inline image whose binary payload does not follow normal
	// token syntax; skip through the matching EI.
	if op == "BI" {
		p.stack = p.stack[:0]
		return p.skipInlineImage()
	}

	operands := make([]core.Object, len(p.stack))
	copy(operands, p.stack)
	p.ops = append(p.ops, Operation{Operator: op, Operands: operands})
	p.stack = p.stack[:0]
	return nil
}

// skipInlineImage consumes everything from just after BI through EI.
func (p *Parser) skipInlineImage() error {
	for p.pos+1 < len(p.data) {
		if p.data[p.pos] == 'E' && p.data[p.pos+1] == 'I' {
			before := p.pos == 0 || isWhitespace(p.data[p.pos-1])
			afterEnd := p.pos+2 >= len(p.data) || isWhitespace(p.data[p.pos+2]) || isDelimiter(p.data[p.pos+2])
			if before && afterEnd {
				p.pos += 2
				return nil
			}
		}
		p.pos++
	}
	return fmt.Errorf("inline image without EI terminator")
}

// parseOperand parses a number, string, hex string, name, array,
// dictionary, boolean, or null.
func (p *Parser) parseOperand() (core.Object, error) {
	p.skipWhitespace()
	if p.pos >= len(p.data) {
		return nil, fmt.Errorf("unexpected end of stream")
	}

	c := p.data[p.pos]
	switch {
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case c == '(':
		return p.parseString()
	case c == '/':
		return p.parseName()
	case c == '[':
		return p.parseArray()
	case c == '<':
		if p.pos+1 < len(p.data) && p.data[p.pos+1] == '<' {
			return p.parseDict()
		}
		return p.parseHexString()
	case c == 't' || c == 'f' || c == 'n':
		end := p.pos
		for end < len(p.data) && !isWhitespace(p.data[end]) && !isDelimiter(p.data[end]) {
			end++
		}
		switch string(p.data[p.pos:end]) {
		case "true":
			p.pos = end
			return core.Bool(true), nil
		case "false":
			p.pos = end
			return core.Bool(false), nil
		case "null":
			p.pos = end
			return core.Null{}, nil
		}
	}

	return nil, fmt.Errorf("unexpected byte %q", c)
}

func (p *Parser) parseNumber() (core.Object, error) {
	start := p.pos
	sawDot := false

	if p.data[p.pos] == '+' || p.data[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
		} else if c == '.' && !sawDot {
			sawDot = true
			p.pos++
		} else {
			break
		}
	}

	s := string(p.data[start:p.pos])
	if sawDot {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real %q: %w", s, err)
		}
		return core.Real(v), nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	return core.Int(v), nil
}

func (p *Parser) parseString() (core.Object, error) {
	p.pos++ // skip '('

	var out bytes.Buffer
	depth := 1
	for p.pos < len(p.data) && depth > 0 {
		c := p.data[p.pos]

		switch {
		case c == '\\' && p.pos+1 < len(p.data):
			p.pos++
			esc := p.data[p.pos]
			switch esc {
			case 'n':
				out.WriteByte('\n')
				p.pos++
			case 'r':
				out.WriteByte('\r')
				p.pos++
			case 't':
				out.WriteByte('\t')
				p.pos++
			case 'b':
				out.WriteByte('\b')
				p.pos++
			case 'f':
				out.WriteByte('\f')
				p.pos++
			case '(', ')', '\\':
				out.WriteByte(esc)
				p.pos++
			case '\r':
				p.pos++
				if p.pos < len(p.data) && p.data[p.pos] == '\n' {
					p.pos++
				}
			case '\n':
				p.pos++
			case '0', '1', '2', '3', '4', '5', '6', '7':
				val := int(esc - '0')
				p.pos++
				for i := 0; i < 2 && p.pos < len(p.data); i++ {
					d := p.data[p.pos]
					if d < '0' || d > '7' {
						break
					}
					val = val*8 + int(d-'0')
					p.pos++
				}
				out.WriteByte(byte(val & 0xFF))
			default:
				out.WriteByte(esc)
				p.pos++
			}
		case c == '(':
			depth++
			out.WriteByte(c)
			p.pos++
		case c == ')':
			depth--
			if depth > 0 {
				out.WriteByte(c)
			}
			p.pos++
		default:
			out.WriteByte(c)
			p.pos++
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("unclosed string")
	}
	return core.String(out.String()), nil
}

func (p *Parser) parseHexString() (core.Object, error) {
	p.pos++ // skip '<'

	var digits []byte
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c == '>' {
			p.pos++
			break
		}
		if isWhitespace(c) {
			p.pos++
			continue
		}
		if !isHexDigit(c) {
			return nil, fmt.Errorf("invalid hex digit %q", c)
		}
		digits = append(digits, c)
		p.pos++
	}

	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = hexValue(digits[2*i])<<4 | hexValue(digits[2*i+1])
	}
	return core.String(out), nil
}

func (p *Parser) parseName() (core.Object, error) {
	p.pos++ // skip '/'

	var out bytes.Buffer
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}
		if c == '#' && p.pos+2 < len(p.data) && isHexDigit(p.data[p.pos+1]) && isHexDigit(p.data[p.pos+2]) {
			out.WriteByte(hexValue(p.data[p.pos+1])<<4 | hexValue(p.data[p.pos+2]))
			p.pos += 3
			continue
		}
		out.WriteByte(c)
		p.pos++
	}
	return core.Name(out.String()), nil
}

func (p *Parser) parseArray() (core.Object, error) {
	p.pos++ // skip '['

	var arr core.Array
	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return nil, fmt.Errorf("unclosed array")
		}
		if p.data[p.pos] == ']' {
			p.pos++
			return arr, nil
		}
		obj, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDict() (core.Object, error) {
	p.pos += 2 // skip '<<'

	dict := make(core.Dict)
	for {
		p.skipWhitespace()
		if p.pos+1 >= len(p.data) {
			return nil, fmt.Errorf("unclosed dictionary")
		}
		if p.data[p.pos] == '>' && p.data[p.pos+1] == '>' {
			p.pos += 2
			return dict, nil
		}
		if p.data[p.pos] != '/' {
			return nil, fmt.Errorf("dictionary key must be a name")
		}
		key, err := p.parseName()
		if err != nil {
			return nil, err
		}
		val, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		dict[string(key.(core.Name))] = val
	}
}

func (p *Parser) skipWhitespace() {
	for p.pos < len(p.data) && isWhitespace(p.data[p.pos]) {
		p.pos++
	}
}

func (p *Parser) skipComment() {
	for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
		p.pos++
	}
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDelimiter(c byte) bool {
	return c == '(' || c == ')' || c == '<' || c == '>' ||
		c == '[' || c == ']' || c == '{' || c == '}' ||
		c == '/' || c == '%'
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
