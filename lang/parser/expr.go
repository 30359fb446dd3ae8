package parser

import (
	"github.com/mna/saffron/lang/ast"
	"github.com/mna/saffron/lang/token"
)

func unaryOp(tok token.Token) (ast.UnaryOp, bool) {
	switch tok {
	case token.MINUS:
		return ast.UnaryMinus, true
	case token.NOT:
		return ast.UnaryNot, true
	case token.HASH:
		return ast.UnaryLen, true
	case token.TILDE:
		return ast.UnaryBNot, true
	}
	return 0, false
}

func binOp(tok token.Token) (ast.BinOp, bool) {
	switch tok {
	case token.PLUS:
		return ast.BinAdd, true
	case token.MINUS:
		return ast.BinSub, true
	case token.STAR:
		return ast.BinMul, true
	case token.SLASH:
		return ast.BinDiv, true
	case token.SLASH2:
		return ast.BinIDiv, true
	case token.PERCENT:
		return ast.BinMod, true
	case token.CARET:
		return ast.BinPow, true
	case token.AMP:
		return ast.BinBAnd, true
	case token.PIPE:
		return ast.BinBOr, true
	case token.TILDE:
		return ast.BinBXor, true
	case token.SHL:
		return ast.BinShl, true
	case token.SHR:
		return ast.BinShr, true
	case token.CONCAT:
		return ast.BinConcat, true
	case token.EQ:
		return ast.BinEq, true
	case token.NE:
		return ast.BinNe, true
	case token.LT:
		return ast.BinLt, true
	case token.LE:
		return ast.BinLe, true
	case token.GT:
		return ast.BinGt, true
	case token.GE:
		return ast.BinGe, true
	case token.AND:
		return ast.BinAnd, true
	case token.OR:
		return ast.BinOr, true
	}
	return 0, false
}

// curEnd returns the end position of the token currently held in p.val,
// i.e. before it has been consumed by advance.
func (p *parser) curEnd() token.Pos {
	return p.val.Pos + token.Pos(len(p.val.Raw))
}

// parseExpr parses a full expression.
func (p *parser) parseExpr() ast.Expr {
	return p.parseBinExpr(token.LowestPrec)
}

// parseBinExpr implements precedence climbing over binary operators,
// driven directly by token.Precedence/RightAssoc rather than a
// hand-rolled priority table.
func (p *parser) parseBinExpr(limit int) ast.Expr {
	var left ast.Expr
	if uop, ok := unaryOp(p.tok); ok {
		pos := p.val.Pos
		p.advance()
		x := p.parseBinExpr(token.UnaryPrec)
		_, end := x.Span()
		left = &ast.UnaryExpr{Op: uop, X: x, Pos: pos, End: end}
	} else {
		left = p.parseSimpleExpr()
	}

	for {
		op, ok := binOp(p.tok)
		prec := p.tok.Precedence()
		if !ok || prec <= limit {
			break
		}
		rightAssoc := p.tok.RightAssoc()
		pos, _ := left.Span()
		p.advance()

		nextLimit := prec
		if rightAssoc {
			nextLimit = prec - 1
		}
		right := p.parseBinExpr(nextLimit)
		_, end := right.Span()
		if folded := foldBinExpr(op, left, right, pos, end); folded != nil {
			left = folded
		} else {
			left = &ast.BinExpr{Op: op, Left: left, Right: right, Pos: pos, End: end}
		}
	}
	return left
}

// parseSimpleExpr parses a literal, table constructor, function
// expression, vararg marker, or a suffixed (prefix) expression.
func (p *parser) parseSimpleExpr() ast.Expr {
	pos := p.val.Pos
	switch p.tok {
	case token.NIL:
		end := p.curEnd()
		p.advance()
		return &ast.LiteralExpr{Kind: ast.NilLit, Pos: pos, End: end}
	case token.TRUE:
		end := p.curEnd()
		p.advance()
		return &ast.LiteralExpr{Kind: ast.TrueLit, Pos: pos, End: end}
	case token.FALSE:
		end := p.curEnd()
		p.advance()
		return &ast.LiteralExpr{Kind: ast.FalseLit, Pos: pos, End: end}
	case token.INT:
		v, end := p.val.Int, p.curEnd()
		p.advance()
		return &ast.LiteralExpr{Kind: ast.IntLit, Int: v, Pos: pos, End: end}
	case token.FLOAT:
		v, end := p.val.Float, p.curEnd()
		p.advance()
		return &ast.LiteralExpr{Kind: ast.FloatLit, Float: v, Pos: pos, End: end}
	case token.STRING:
		v, end := p.val.String, p.curEnd()
		p.advance()
		return &ast.LiteralExpr{Kind: ast.StringLit, Str: v, Pos: pos, End: end}
	case token.ELLIPSIS:
		end := p.curEnd()
		p.advance()
		return &ast.VarargExpr{Pos: pos, End: end}
	case token.FUNCTION:
		p.advance()
		return p.parseFuncExpr(pos, "")
	case token.LBRACE:
		return p.parseTableExpr()
	default:
		return p.parseSuffixedExpr()
	}
}

// parsePrimaryExpr parses a name or a parenthesized expression, the two
// possible starts of a prefix expression chain.
func (p *parser) parsePrimaryExpr() ast.Expr {
	switch p.tok {
	case token.IDENT:
		name, pos := p.name()
		return &ast.NameExpr{Name: name, Pos: pos, End: pos + token.Pos(len(name))}
	case token.LPAREN:
		p.advance()
		// A parenthesized expression truncates a multi-result expression to
		// its first value; since the AST has no dedicated node for that, the
		// inner expression is returned as-is and the single-value semantics
		// are enforced by the compiler's lowering of calls in parenthesized
		// position.
		x := p.parseExpr()
		p.expect(token.RPAREN)
		return x
	default:
		p.errorExpected(p.val.Pos, "an expression")
		panic(errPanicMode)
	}
}

// parseSuffixedExpr parses a primary expression followed by any number
// of `.name`, `[expr]`, `:name(args)` or call suffixes.
func (p *parser) parseSuffixedExpr() ast.Expr {
	x := p.parsePrimaryExpr()
	for {
		pos, _ := x.Span()
		switch p.tok {
		case token.DOT:
			p.advance()
			name, _ := p.name()
			end := p.prevEnd
			x = &ast.DotExpr{X: x, Name: name, Pos: pos, End: end}
		case token.LBRACK:
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBRACK)
			x = &ast.IndexExpr{X: x, Index: idx, Pos: pos, End: p.prevEnd}
		case token.COLON:
			p.advance()
			method, _ := p.name()
			args := p.parseArgs()
			x = &ast.MethodCallExpr{Receiver: x, Method: method, Args: args, Pos: pos, End: p.prevEnd}
		case token.LPAREN, token.LBRACE, token.STRING:
			args := p.parseArgs()
			x = &ast.CallExpr{Callee: x, Args: args, Pos: pos, End: p.prevEnd}
		default:
			return x
		}
	}
}

// parseArgs parses a call's argument list: a parenthesized expression
// list, a single table constructor, or a single string literal.
func (p *parser) parseArgs() []ast.Expr {
	switch p.tok {
	case token.LPAREN:
		p.advance()
		var args []ast.Expr
		if p.tok != token.RPAREN {
			args = p.parseExprList()
		}
		p.expect(token.RPAREN)
		return args
	case token.LBRACE:
		return []ast.Expr{p.parseTableExpr()}
	case token.STRING:
		pos, end, v := p.val.Pos, p.curEnd(), p.val.String
		p.advance()
		return []ast.Expr{&ast.LiteralExpr{Kind: ast.StringLit, Str: v, Pos: pos, End: end}}
	default:
		p.errorExpected(p.val.Pos, "function arguments")
		panic(errPanicMode)
	}
}

// parseExprList parses a comma-separated, non-empty list of expressions.
func (p *parser) parseExprList() []ast.Expr {
	exprs := []ast.Expr{p.parseExpr()}
	for p.accept(token.COMMA) {
		exprs = append(exprs, p.parseExpr())
	}
	return exprs
}

// parseTableExpr parses a `{ ... }` table constructor.
func (p *parser) parseTableExpr() ast.Expr {
	pos := p.val.Pos
	p.expect(token.LBRACE)

	var fields []ast.TableField
	for p.tok != token.RBRACE {
		fields = append(fields, p.parseTableField())
		if !p.accept(token.COMMA) && !p.accept(token.SEMI) {
			break
		}
	}
	end := p.curEnd()
	p.expect(token.RBRACE)
	return &ast.TableExpr{Fields: fields, Pos: pos, End: end}
}

func (p *parser) parseTableField() ast.TableField {
	switch {
	case p.tok == token.LBRACK:
		p.advance()
		key := p.parseExpr()
		p.expect(token.RBRACK)
		p.expect(token.ASSIGN)
		value := p.parseExpr()
		return ast.TableField{Key: key, Value: value}
	case p.tok == token.IDENT && p.peekAhead() == token.ASSIGN:
		name := p.val.Raw
		p.advance() // name
		p.advance() // '='
		value := p.parseExpr()
		return ast.TableField{Name: name, Value: value}
	default:
		value := p.parseExpr()
		return ast.TableField{Value: value}
	}
}

// parseFuncExpr parses a function body following the `function` keyword
// and wraps it as an expression.
func (p *parser) parseFuncExpr(pos token.Pos, name string) ast.Expr {
	body := p.parseFuncBody(false)
	return &ast.FuncExpr{Name: name, Body: body, Pos: pos, End: body.End}
}

// parseFuncBody parses `( paramlist ) block end`. isMethod prepends an
// implicit `self` parameter.
func (p *parser) parseFuncBody(isMethod bool) *ast.FuncBody {
	pos := p.val.Pos
	p.expect(token.LPAREN)

	var params []string
	if isMethod {
		params = append(params, "self")
	}
	variadic := false
	if p.tok != token.RPAREN {
		for {
			if p.tok == token.ELLIPSIS {
				p.advance()
				variadic = true
				break
			}
			name, _ := p.name()
			params = append(params, name)
			if !p.accept(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RPAREN)

	block := p.parseBlock()
	end := p.curEnd()
	p.expect(token.END)
	return &ast.FuncBody{Params: params, IsVariadic: variadic, Block: block, Pos: pos, End: end}
}
