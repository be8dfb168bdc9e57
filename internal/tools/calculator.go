package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Calculate evaluates a plain arithmetic expression. Only numbers and the
// operators + - * / % ** and parentheses are allowed; anything else is
// rejected before parsing. Failures come back as descriptive strings.
func Calculate(expression string) string {
	compact := strings.ReplaceAll(expression, " ", "")
	if compact == "" {
		return "Error in calculation: empty expression"
	}
	for _, c := range compact {
		if !strings.ContainsRune("0123456789+-*/().%", c) {
			return "Error: Expression contains invalid characters. Only numbers and operators (+, -, *, /, **, %, parentheses) are allowed."
		}
	}

	p := &exprParser{input: compact}
	result, err := p.parseExpr()
	if err == nil && p.pos != len(p.input) {
		err = fmt.Errorf("unexpected %q at position %d", p.input[p.pos], p.pos)
	}
	if err != nil {
		return fmt.Sprintf("Error in calculation: %v", err)
	}
	return "Result: " + strconv.FormatFloat(result, 'g', -1, 64)
}

// exprParser is a recursive-descent parser over a whitespace-free expression.
// Grammar: expr = term (('+'|'-') term)*; term = power (('*'|'/'|'%') power)*;
// power = unary ('**' power)?; unary = '-'* primary; primary = number | '(' expr ')'.
type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) peek() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}
	return 0
}

func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parsePower()
	if err != nil {
		return 0, err
	}
	for {
		// '*' only when not '**', which binds at the power level.
		if p.peek() == '*' && !strings.HasPrefix(p.input[p.pos:], "**") {
			p.pos++
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			left *= right
			continue
		}
		switch p.peek() {
		case '/':
			p.pos++
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case '%':
			p.pos++
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("modulo by zero")
			}
			left = math.Mod(left, right)
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	if strings.HasPrefix(p.input[p.pos:], "**") {
		p.pos += 2
		// Right-associative: 2**3**2 = 2**(3**2).
		exp, err := p.parsePower()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

func (p *exprParser) parseUnary() (float64, error) {
	if p.peek() == '-' {
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -v, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (float64, error) {
	if p.peek() == '(' {
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}

	start := p.pos
	for p.pos < len(p.input) && (p.input[p.pos] >= '0' && p.input[p.pos] <= '9' || p.input[p.pos] == '.') {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("expected number at position %d", start)
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}
	return v, nil
}

// CalculatorTool wraps Calculate as a registrable agent tool.
func CalculatorTool() *Tool {
	return &Tool{
		Name:        "calculate",
		Description: "Evaluate a plain arithmetic expression, e.g. (1500 * 1.05) / 12.",
		Func: func(ctx context.Context, params map[string]any) (string, error) {
			expression, err := stringParam(params, "expression")
			if err != nil {
				return "", err
			}
			return Calculate(expression), nil
		},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expression": map[string]any{
					"type":        "string",
					"description": "The arithmetic expression to evaluate",
				},
			},
			"required": []string{"expression"},
		},
	}
}
