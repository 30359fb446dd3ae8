package ast

// Visitor is invoked by Walk for every node in a tree. If Visit returns a
// non-nil Visitor, Walk uses it to visit the node's children, then calls
// Visit(nil) on the original visitor to signal the end of the children.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order, starting at node. It panics
// if it encounters a node type it does not know about — that indicates a
// node kind was added to this package without updating Walk, a compiler
// bug rather than a malformed tree.
func Walk(v Visitor, node Node) {
	if node == nil {
		return
	}
	v = v.Visit(node)
	if v == nil {
		return
	}
	defer v.Visit(nil)

	switch n := node.(type) {
	case *Chunk:
		Walk(v, n.Block)
	case *Block:
		for _, s := range n.Stmts {
			Walk(v, s)
		}

	case *LiteralExpr, *NameExpr, *VarargExpr, *EmptyStmt, *BreakStmt, *GotoStmt, *LabelStmt:
		// leaves

	case *DotExpr:
		Walk(v, n.X)
	case *IndexExpr:
		Walk(v, n.X)
		Walk(v, n.Index)
	case *UnaryExpr:
		Walk(v, n.X)
	case *BinExpr:
		Walk(v, n.Left)
		Walk(v, n.Right)
	case *CallExpr:
		Walk(v, n.Callee)
		for _, a := range n.Args {
			Walk(v, a)
		}
	case *MethodCallExpr:
		Walk(v, n.Receiver)
		for _, a := range n.Args {
			Walk(v, a)
		}
	case *FuncBody:
		Walk(v, n.Block)
	case *FuncExpr:
		Walk(v, n.Body)
	case *TableExpr:
		for _, f := range n.Fields {
			if f.Key != nil {
				Walk(v, f.Key)
			}
			Walk(v, f.Value)
		}

	case *AssignStmt:
		for _, t := range n.Targets {
			Walk(v, t)
		}
		for _, e := range n.Values {
			Walk(v, e)
		}
	case *LocalStmt:
		for _, e := range n.Values {
			Walk(v, e)
		}
	case *IfStmt:
		for _, b := range n.Branches {
			Walk(v, b.Cond)
			Walk(v, b.Body)
		}
		if n.Else != nil {
			Walk(v, n.Else)
		}
	case *WhileStmt:
		Walk(v, n.Cond)
		Walk(v, n.Body)
	case *RepeatStmt:
		Walk(v, n.Body)
		Walk(v, n.Cond)
	case *NumForStmt:
		Walk(v, n.Start)
		Walk(v, n.Limit)
		if n.Step != nil {
			Walk(v, n.Step)
		}
		Walk(v, n.Body)
	case *GenForStmt:
		for _, e := range n.Exprs {
			Walk(v, e)
		}
		Walk(v, n.Body)
	case *ReturnStmt:
		for _, e := range n.Values {
			Walk(v, e)
		}
	case *FuncStmt:
		Walk(v, n.Body)
	case *LocalFuncStmt:
		Walk(v, n.Body)
	case *CallStmt:
		Walk(v, n.Call)
	case *BlockStmt:
		Walk(v, n.Body)

	default:
		panic("ast.Walk: unexpected node type")
	}
}
