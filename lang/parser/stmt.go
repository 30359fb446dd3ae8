package parser

import (
	"github.com/mna/saffron/lang/ast"
	"github.com/mna/saffron/lang/token"
)

// parseStmt dispatches to the statement parser matching the current
// token. return is handled by parseBlock directly, since it must be the
// last statement of its block; the case here exists only for
// robustness if parseStmt is ever reached with RETURN pending.
func (p *parser) parseStmt() ast.Stmt {
	switch p.tok {
	case token.SEMI:
		pos, end := p.val.Pos, p.curEnd()
		p.advance()
		return &ast.EmptyStmt{Pos: pos, End: end}
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.DO:
		return p.parseDoStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.REPEAT:
		return p.parseRepeatStmt()
	case token.FUNCTION:
		return p.parseFuncStmt()
	case token.LOCAL:
		return p.parseLocalStmt()
	case token.DBCOLON:
		return p.parseLabelStmt()
	case token.BREAK:
		return p.parseBreakStmt()
	case token.GOTO:
		return p.parseGotoStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *parser) parseIfStmt() ast.Stmt {
	pos := p.val.Pos
	p.expect(token.IF)

	cond := p.parseExpr()
	p.expect(token.THEN)
	body := p.parseBlock()
	branches := []ast.IfBranch{{Cond: cond, Body: body}}

	for p.tok == token.ELSEIF {
		p.advance()
		cond := p.parseExpr()
		p.expect(token.THEN)
		body := p.parseBlock()
		branches = append(branches, ast.IfBranch{Cond: cond, Body: body})
	}

	var elseBlock *ast.Block
	if p.accept(token.ELSE) {
		elseBlock = p.parseBlock()
	}

	end := p.curEnd()
	p.expect(token.END)
	return &ast.IfStmt{Branches: branches, Else: elseBlock, Pos: pos, End: end}
}

func (p *parser) parseWhileStmt() ast.Stmt {
	pos := p.val.Pos
	p.expect(token.WHILE)
	cond := p.parseExpr()
	p.expect(token.DO)
	body := p.parseBlock()
	end := p.curEnd()
	p.expect(token.END)
	return &ast.WhileStmt{Cond: cond, Body: body, Pos: pos, End: end}
}

func (p *parser) parseRepeatStmt() ast.Stmt {
	pos := p.val.Pos
	p.expect(token.REPEAT)
	body := p.parseBlock()
	p.expect(token.UNTIL)
	cond := p.parseExpr()
	_, end := cond.Span()
	return &ast.RepeatStmt{Body: body, Cond: cond, Pos: pos, End: end}
}

func (p *parser) parseDoStmt() ast.Stmt {
	pos := p.val.Pos
	p.expect(token.DO)
	body := p.parseBlock()
	end := p.curEnd()
	p.expect(token.END)
	return &ast.BlockStmt{Body: body, Pos: pos, End: end}
}

// parseForStmt disambiguates the numeric and generic forms by looking
// for '=' right after the first name.
func (p *parser) parseForStmt() ast.Stmt {
	pos := p.val.Pos
	p.expect(token.FOR)
	name, _ := p.name()

	if p.tok == token.ASSIGN {
		p.advance()
		start := p.parseExpr()
		p.expect(token.COMMA)
		limit := p.parseExpr()
		var step ast.Expr
		if p.accept(token.COMMA) {
			step = p.parseExpr()
		}
		p.expect(token.DO)
		body := p.parseBlock()
		end := p.curEnd()
		p.expect(token.END)
		return &ast.NumForStmt{Name: name, Start: start, Limit: limit, Step: step, Body: body, Pos: pos, End: end}
	}

	names := []string{name}
	for p.accept(token.COMMA) {
		n, _ := p.name()
		names = append(names, n)
	}
	p.expect(token.IN)
	exprs := p.parseExprList()
	p.expect(token.DO)
	body := p.parseBlock()
	end := p.curEnd()
	p.expect(token.END)
	return &ast.GenForStmt{Names: names, Exprs: exprs, Body: body, Pos: pos, End: end}
}

func (p *parser) parseFuncName() ast.FuncName {
	name, _ := p.name()
	path := []string{name}
	for p.tok == token.DOT {
		p.advance()
		n, _ := p.name()
		path = append(path, n)
	}
	isMethod := false
	if p.tok == token.COLON {
		p.advance()
		n, _ := p.name()
		path = append(path, n)
		isMethod = true
	}
	return ast.FuncName{Path: path, IsMethod: isMethod}
}

func (p *parser) parseFuncStmt() ast.Stmt {
	pos := p.val.Pos
	p.expect(token.FUNCTION)
	fname := p.parseFuncName()
	body := p.parseFuncBody(fname.IsMethod)
	return &ast.FuncStmt{Name: fname, Body: body, Pos: pos, End: body.End}
}

func (p *parser) parseLocalStmt() ast.Stmt {
	pos := p.val.Pos
	p.expect(token.LOCAL)

	if p.tok == token.FUNCTION {
		p.advance()
		name, _ := p.name()
		body := p.parseFuncBody(false)
		return &ast.LocalFuncStmt{Name: name, Body: body, Pos: pos, End: body.End}
	}

	var names []string
	var attribs []ast.Attrib
	for {
		name, _ := p.name()
		names = append(names, name)

		attrib := ast.NoAttrib
		if p.accept(token.LT) {
			attrName, apos := p.name()
			switch attrName {
			case "const":
				attrib = ast.ConstAttrib
			case "close":
				attrib = ast.CloseAttrib
			default:
				p.error(apos, "unknown attribute '"+attrName+"'")
			}
			p.expect(token.GT)
		}
		attribs = append(attribs, attrib)

		if !p.accept(token.COMMA) {
			break
		}
	}

	end := p.prevEnd
	var values []ast.Expr
	if p.accept(token.ASSIGN) {
		values = p.parseExprList()
		_, end = values[len(values)-1].Span()
	}
	return &ast.LocalStmt{Names: names, Attribs: attribs, Values: values, Pos: pos, End: end}
}

func (p *parser) parseLabelStmt() ast.Stmt {
	pos := p.val.Pos
	p.expect(token.DBCOLON)
	name, _ := p.name()
	p.expect(token.DBCOLON)
	return &ast.LabelStmt{Name: name, Pos: pos, End: p.prevEnd}
}

func (p *parser) parseBreakStmt() ast.Stmt {
	pos, end := p.val.Pos, p.curEnd()
	p.expect(token.BREAK)
	return &ast.BreakStmt{Pos: pos, End: end}
}

func (p *parser) parseGotoStmt() ast.Stmt {
	pos := p.val.Pos
	p.expect(token.GOTO)
	name, _ := p.name()
	return &ast.GotoStmt{Label: name, Pos: pos, End: p.prevEnd}
}

func (p *parser) parseReturnStmt() ast.Stmt {
	pos := p.val.Pos
	p.expect(token.RETURN)

	var values []ast.Expr
	end := p.prevEnd
	if !blockFollow(p.tok) && p.tok != token.SEMI {
		values = p.parseExprList()
		_, end = values[len(values)-1].Span()
	}
	if p.accept(token.SEMI) {
		end = p.prevEnd
	}
	return &ast.ReturnStmt{Values: values, Pos: pos, End: end}
}

// parseExprStmt parses either an assignment, disambiguated by a `=` or
// `,` following the first suffixed expression, or a call used as a
// statement.
func (p *parser) parseExprStmt() ast.Stmt {
	pos := p.val.Pos
	first := p.parseSuffixedExpr()

	if p.tok == token.ASSIGN || p.tok == token.COMMA {
		targets := []ast.Expr{first}
		for p.accept(token.COMMA) {
			targets = append(targets, p.parseSuffixedExpr())
		}
		for _, t := range targets {
			if !ast.IsAssignable(t) {
				tpos, _ := t.Span()
				p.error(tpos, "cannot assign to this expression")
			}
		}
		p.expect(token.ASSIGN)
		values := p.parseExprList()
		_, end := values[len(values)-1].Span()
		return &ast.AssignStmt{Targets: targets, Values: values, Pos: pos, End: end}
	}

	switch first.(type) {
	case *ast.CallExpr, *ast.MethodCallExpr:
		_, end := first.Span()
		return &ast.CallStmt{Call: first, Pos: pos, End: end}
	default:
		p.error(pos, "syntax error: unexpected expression used as a statement")
		panic(errPanicMode)
	}
}
