package phpast

// Visitor traverses the AST. Each Visit method returns whether Walk should
// continue into that node's children.
type Visitor interface {
	VisitExpressionStatement(node *ExpressionStatement) bool
	VisitBlockStatement(node *BlockStatement) bool
	VisitEchoStatement(node *EchoStatement) bool
	VisitReturnStatement(node *ReturnStatement) bool
	VisitBreakStatement(node *BreakStatement) bool
	VisitContinueStatement(node *ContinueStatement) bool
	VisitIfStatement(node *IfStatement) bool
	VisitWhileStatement(node *WhileStatement) bool
	VisitDoWhileStatement(node *DoWhileStatement) bool
	VisitForStatement(node *ForStatement) bool
	VisitForeachStatement(node *ForeachStatement) bool
	VisitSwitchStatement(node *SwitchStatement) bool
	VisitTryStatement(node *TryStatement) bool
	VisitThrowStatement(node *ThrowStatement) bool
	VisitGlobalStatement(node *GlobalStatement) bool
	VisitStaticVarStatement(node *StaticVarStatement) bool
	VisitFunctionDeclaration(node *FunctionDeclaration) bool
	VisitClassDeclaration(node *ClassDeclaration) bool
	VisitInterfaceDeclaration(node *InterfaceDeclaration) bool
	VisitTraitDeclaration(node *TraitDeclaration) bool
	VisitEnumDeclaration(node *EnumDeclaration) bool
	VisitPropertyDeclaration(node *PropertyDeclaration) bool
	VisitMethodDeclaration(node *MethodDeclaration) bool
	VisitClassConstantDeclaration(node *ClassConstantDeclaration) bool
	VisitConstStatement(node *ConstStatement) bool
	VisitTraitUse(node *TraitUse) bool

	VisitIdentifier(node *Identifier) bool
	VisitIntegerLiteral(node *IntegerLiteral) bool
	VisitFloatLiteral(node *FloatLiteral) bool
	VisitStringLiteral(node *StringLiteral) bool
	VisitBooleanLiteral(node *BooleanLiteral) bool
	VisitNullLiteral(node *NullLiteral) bool
	VisitVariable(node *Variable) bool
	VisitArrayExpression(node *ArrayExpression) bool
	VisitPrefixExpression(node *PrefixExpression) bool
	VisitInfixExpression(node *InfixExpression) bool
	VisitAssignmentExpression(node *AssignmentExpression) bool
	VisitTernaryExpression(node *TernaryExpression) bool
	VisitIndexExpression(node *IndexExpression) bool
	VisitPropertyExpression(node *PropertyExpression) bool
	VisitNullsafePropertyExpression(node *NullsafePropertyExpression) bool
	VisitStaticPropertyExpression(node *StaticPropertyExpression) bool
	VisitCallExpression(node *CallExpression) bool
	VisitMethodCallExpression(node *MethodCallExpression) bool
	VisitStaticCallExpression(node *StaticCallExpression) bool
	VisitNewExpression(node *NewExpression) bool
	VisitInstanceofExpression(node *InstanceofExpression) bool
	VisitCastExpression(node *CastExpression) bool
	VisitGroupedExpression(node *GroupedExpression) bool
	VisitMatchExpression(node *MatchExpression) bool
	VisitClosureExpression(node *ClosureExpression) bool
	VisitArrowFunctionExpression(node *ArrowFunctionExpression) bool
	VisitListExpression(node *ListExpression) bool
	VisitNullableType(node *NullableType) bool
	VisitUnionType(node *UnionType) bool
	VisitIntersectionType(node *IntersectionType) bool
	VisitNamedType(node *NamedType) bool
}

// Walk traverses node and its children, invoking v's Visit methods.
func Walk(v Visitor, node Node) {
	if node == nil || isNilNode(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, stmt := range n.Statements {
			Walk(v, stmt)
		}
	case *ExpressionStatement:
		if v.VisitExpressionStatement(n) {
			Walk(v, n.Expression)
		}
	case *ConstStatement:
		if v.VisitConstStatement(n) {
			for _, c := range n.Constants {
				Walk(v, c.Value)
			}
		}
	case *BlockStatement:
		if v.VisitBlockStatement(n) {
			for _, stmt := range n.Statements {
				Walk(v, stmt)
			}
		}
	case *EchoStatement:
		if v.VisitEchoStatement(n) {
			for _, expr := range n.Expressions {
				Walk(v, expr)
			}
		}
	case *ReturnStatement:
		if v.VisitReturnStatement(n) {
			Walk(v, n.ReturnValue)
		}
	case *BreakStatement:
		if v.VisitBreakStatement(n) {
			Walk(v, n.Depth)
		}
	case *ContinueStatement:
		if v.VisitContinueStatement(n) {
			Walk(v, n.Depth)
		}
	case *IfStatement:
		if v.VisitIfStatement(n) {
			Walk(v, n.Condition)
			Walk(v, n.Consequence)
			for _, elseif := range n.ElseIfs {
				Walk(v, elseif.Condition)
				Walk(v, elseif.Consequence)
			}
			Walk(v, n.Alternative)
		}
	case *WhileStatement:
		if v.VisitWhileStatement(n) {
			Walk(v, n.Condition)
			Walk(v, n.Body)
		}
	case *DoWhileStatement:
		if v.VisitDoWhileStatement(n) {
			Walk(v, n.Body)
			Walk(v, n.Condition)
		}
	case *ForStatement:
		if v.VisitForStatement(n) {
			for _, e := range n.Init {
				Walk(v, e)
			}
			for _, e := range n.Condition {
				Walk(v, e)
			}
			for _, e := range n.Increment {
				Walk(v, e)
			}
			Walk(v, n.Body)
		}
	case *ForeachStatement:
		if v.VisitForeachStatement(n) {
			Walk(v, n.Array)
			Walk(v, n.Key)
			Walk(v, n.Value)
			Walk(v, n.Body)
		}
	case *SwitchStatement:
		if v.VisitSwitchStatement(n) {
			Walk(v, n.Subject)
			for _, c := range n.Cases {
				Walk(v, c.Value)
				for _, stmt := range c.Body {
					Walk(v, stmt)
				}
			}
		}
	case *TryStatement:
		if v.VisitTryStatement(n) {
			Walk(v, n.Body)
			for _, c := range n.CatchClauses {
				for _, t := range c.Types {
					Walk(v, t)
				}
				Walk(v, c.Variable)
				Walk(v, c.Body)
			}
			Walk(v, n.Finally)
		}
	case *ThrowStatement:
		if v.VisitThrowStatement(n) {
			Walk(v, n.Expression)
		}
	case *GlobalStatement:
		if v.VisitGlobalStatement(n) {
			for _, va := range n.Variables {
				Walk(v, va)
			}
		}
	case *StaticVarStatement:
		if v.VisitStaticVarStatement(n) {
			for _, p := range n.Variables {
				Walk(v, p.Name)
				Walk(v, p.DefaultValue)
			}
		}
	case *FunctionDeclaration:
		if v.VisitFunctionDeclaration(n) {
			Walk(v, n.Name)
			walkParams(v, n.Parameters)
			Walk(v, n.ReturnType)
			Walk(v, n.Body)
		}
	case *ClassDeclaration:
		if v.VisitClassDeclaration(n) {
			Walk(v, n.Name)
			Walk(v, n.Extends)
			for _, i := range n.Implements {
				Walk(v, i)
			}
			for _, stmt := range n.Body {
				Walk(v, stmt)
			}
		}
	case *InterfaceDeclaration:
		if v.VisitInterfaceDeclaration(n) {
			Walk(v, n.Name)
			for _, e := range n.Extends {
				Walk(v, e)
			}
			for _, c := range n.Constants {
				Walk(v, c)
			}
			for _, m := range n.Body {
				Walk(v, m.Name)
				walkParams(v, m.Parameters)
				Walk(v, m.ReturnType)
			}
		}
	case *TraitDeclaration:
		if v.VisitTraitDeclaration(n) {
			Walk(v, n.Name)
			for _, stmt := range n.Body {
				Walk(v, stmt)
			}
		}
	case *EnumDeclaration:
		if v.VisitEnumDeclaration(n) {
			Walk(v, n.Name)
			Walk(v, n.BackingType)
			for _, i := range n.Implements {
				Walk(v, i)
			}
			for _, c := range n.Cases {
				Walk(v, c.Name)
				Walk(v, c.Value)
			}
			for _, stmt := range n.Body {
				Walk(v, stmt)
			}
		}
	case *PropertyDeclaration:
		if v.VisitPropertyDeclaration(n) {
			Walk(v, n.Type)
			for _, p := range n.Properties {
				Walk(v, p.Name)
				Walk(v, p.DefaultValue)
			}
		}
	case *MethodDeclaration:
		if v.VisitMethodDeclaration(n) {
			Walk(v, n.Name)
			walkParams(v, n.Parameters)
			Walk(v, n.ReturnType)
			Walk(v, n.Body)
		}
	case *ClassConstantDeclaration:
		if v.VisitClassConstantDeclaration(n) {
			for _, c := range n.Constants {
				Walk(v, c.Name)
				Walk(v, c.Value)
			}
		}
	case *TraitUse:
		if v.VisitTraitUse(n) {
			for _, t := range n.Traits {
				Walk(v, t)
			}
		}

	case *Identifier:
		v.VisitIdentifier(n)
	case *IntegerLiteral:
		v.VisitIntegerLiteral(n)
	case *FloatLiteral:
		v.VisitFloatLiteral(n)
	case *StringLiteral:
		v.VisitStringLiteral(n)
	case *BooleanLiteral:
		v.VisitBooleanLiteral(n)
	case *NullLiteral:
		v.VisitNullLiteral(n)
	case *Variable:
		v.VisitVariable(n)
	case *ArrayExpression:
		if v.VisitArrayExpression(n) {
			for _, elem := range n.Elements {
				Walk(v, elem.Key)
				Walk(v, elem.Value)
			}
		}
	case *PrefixExpression:
		if v.VisitPrefixExpression(n) {
			Walk(v, n.Right)
		}
	case *InfixExpression:
		if v.VisitInfixExpression(n) {
			Walk(v, n.Left)
			Walk(v, n.Right)
		}
	case *AssignmentExpression:
		if v.VisitAssignmentExpression(n) {
			Walk(v, n.Left)
			Walk(v, n.Right)
		}
	case *TernaryExpression:
		if v.VisitTernaryExpression(n) {
			Walk(v, n.Condition)
			Walk(v, n.Consequence)
			Walk(v, n.Alternative)
		}
	case *IndexExpression:
		if v.VisitIndexExpression(n) {
			Walk(v, n.Left)
			Walk(v, n.Index)
		}
	case *PropertyExpression:
		if v.VisitPropertyExpression(n) {
			Walk(v, n.Object)
			Walk(v, n.Property)
		}
	case *NullsafePropertyExpression:
		if v.VisitNullsafePropertyExpression(n) {
			Walk(v, n.Object)
			Walk(v, n.Property)
		}
	case *StaticPropertyExpression:
		if v.VisitStaticPropertyExpression(n) {
			Walk(v, n.Class)
			Walk(v, n.Property)
		}
	case *CallExpression:
		if v.VisitCallExpression(n) {
			Walk(v, n.Function)
			for _, arg := range n.Arguments {
				Walk(v, arg.Value)
			}
		}
	case *MethodCallExpression:
		if v.VisitMethodCallExpression(n) {
			Walk(v, n.Object)
			Walk(v, n.Method)
			for _, arg := range n.Arguments {
				Walk(v, arg.Value)
			}
		}
	case *StaticCallExpression:
		if v.VisitStaticCallExpression(n) {
			Walk(v, n.Class)
			Walk(v, n.Method)
			for _, arg := range n.Arguments {
				Walk(v, arg.Value)
			}
		}
	case *NewExpression:
		if v.VisitNewExpression(n) {
			Walk(v, n.Class)
			for _, arg := range n.Arguments {
				Walk(v, arg.Value)
			}
			if n.AnonymousBody != nil {
				Walk(v, n.AnonymousBody)
			}
		}
	case *InstanceofExpression:
		if v.VisitInstanceofExpression(n) {
			Walk(v, n.Left)
			Walk(v, n.Right)
		}
	case *CastExpression:
		if v.VisitCastExpression(n) {
			Walk(v, n.Expr)
		}
	case *GroupedExpression:
		if v.VisitGroupedExpression(n) {
			Walk(v, n.Expr)
		}
	case *MatchExpression:
		if v.VisitMatchExpression(n) {
			Walk(v, n.Subject)
			for _, arm := range n.Arms {
				for _, cond := range arm.Conditions {
					Walk(v, cond)
				}
				Walk(v, arm.Body)
			}
		}
	case *ClosureExpression:
		if v.VisitClosureExpression(n) {
			walkParams(v, n.Parameters)
			Walk(v, n.ReturnType)
			Walk(v, n.Body)
		}
	case *ArrowFunctionExpression:
		if v.VisitArrowFunctionExpression(n) {
			walkParams(v, n.Parameters)
			Walk(v, n.ReturnType)
			Walk(v, n.Body)
		}
	case *ListExpression:
		if v.VisitListExpression(n) {
			for _, elem := range n.Elements {
				Walk(v, elem.Key)
				Walk(v, elem.Value)
			}
		}
	case *NullableType:
		if v.VisitNullableType(n) {
			Walk(v, n.Type)
		}
	case *UnionType:
		if v.VisitUnionType(n) {
			for _, t := range n.Types {
				Walk(v, t)
			}
		}
	case *IntersectionType:
		if v.VisitIntersectionType(n) {
			for _, t := range n.Types {
				Walk(v, t)
			}
		}
	case *NamedType:
		v.VisitNamedType(n)
	}
}

func walkParams(v Visitor, params []*Param) {
	for _, p := range params {
		Walk(v, p.Type)
		Walk(v, p.Name)
		Walk(v, p.DefaultValue)
	}
}

// isNilNode guards against typed-nil interface values (a *BlockStatement nil
// pointer boxed into Node is != nil as an interface but must still stop the
// walk), which show up constantly here since optional children (else
// branches, finally blocks, default values) are nil pointers of concrete
// node types.
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *BlockStatement:
		return v == nil
	case Expression:
		return isNilExpression(v)
	case TypeNode:
		return isNilType(v)
	case *Variable:
		return v == nil
	}
	return false
}

func isNilExpression(e Expression) bool {
	switch v := e.(type) {
	case *Variable:
		return v == nil
	case *Identifier:
		return v == nil
	case *IntegerLiteral:
		return v == nil
	case *FloatLiteral:
		return v == nil
	case *StringLiteral:
		return v == nil
	case *BooleanLiteral:
		return v == nil
	case *NullLiteral:
		return v == nil
	}
	return false
}

func isNilType(t TypeNode) bool {
	switch v := t.(type) {
	case *NamedType:
		return v == nil
	case *NullableType:
		return v == nil
	case *UnionType:
		return v == nil
	case *IntersectionType:
		return v == nil
	}
	return false
}

// BaseVisitor gives every Visit method a default `return true` implementation
// so callers only override the ones they need.
type BaseVisitor struct{}

func (*BaseVisitor) VisitExpressionStatement(*ExpressionStatement) bool             { return true }
func (*BaseVisitor) VisitBlockStatement(*BlockStatement) bool                       { return true }
func (*BaseVisitor) VisitEchoStatement(*EchoStatement) bool                         { return true }
func (*BaseVisitor) VisitReturnStatement(*ReturnStatement) bool                     { return true }
func (*BaseVisitor) VisitBreakStatement(*BreakStatement) bool                       { return true }
func (*BaseVisitor) VisitContinueStatement(*ContinueStatement) bool                 { return true }
func (*BaseVisitor) VisitIfStatement(*IfStatement) bool                             { return true }
func (*BaseVisitor) VisitWhileStatement(*WhileStatement) bool                       { return true }
func (*BaseVisitor) VisitDoWhileStatement(*DoWhileStatement) bool                   { return true }
func (*BaseVisitor) VisitForStatement(*ForStatement) bool                           { return true }
func (*BaseVisitor) VisitForeachStatement(*ForeachStatement) bool                   { return true }
func (*BaseVisitor) VisitSwitchStatement(*SwitchStatement) bool                     { return true }
func (*BaseVisitor) VisitTryStatement(*TryStatement) bool                           { return true }
func (*BaseVisitor) VisitThrowStatement(*ThrowStatement) bool                       { return true }
func (*BaseVisitor) VisitGlobalStatement(*GlobalStatement) bool                     { return true }
func (*BaseVisitor) VisitStaticVarStatement(*StaticVarStatement) bool               { return true }
func (*BaseVisitor) VisitFunctionDeclaration(*FunctionDeclaration) bool             { return true }
func (*BaseVisitor) VisitClassDeclaration(*ClassDeclaration) bool                   { return true }
func (*BaseVisitor) VisitInterfaceDeclaration(*InterfaceDeclaration) bool           { return true }
func (*BaseVisitor) VisitTraitDeclaration(*TraitDeclaration) bool                   { return true }
func (*BaseVisitor) VisitEnumDeclaration(*EnumDeclaration) bool                     { return true }
func (*BaseVisitor) VisitPropertyDeclaration(*PropertyDeclaration) bool             { return true }
func (*BaseVisitor) VisitMethodDeclaration(*MethodDeclaration) bool                 { return true }
func (*BaseVisitor) VisitClassConstantDeclaration(*ClassConstantDeclaration) bool   { return true }
func (*BaseVisitor) VisitConstStatement(*ConstStatement) bool                       { return true }
func (*BaseVisitor) VisitTraitUse(*TraitUse) bool                                   { return true }
func (*BaseVisitor) VisitIdentifier(*Identifier) bool                               { return true }
func (*BaseVisitor) VisitIntegerLiteral(*IntegerLiteral) bool                       { return true }
func (*BaseVisitor) VisitFloatLiteral(*FloatLiteral) bool                           { return true }
func (*BaseVisitor) VisitStringLiteral(*StringLiteral) bool                         { return true }
func (*BaseVisitor) VisitBooleanLiteral(*BooleanLiteral) bool                       { return true }
func (*BaseVisitor) VisitNullLiteral(*NullLiteral) bool                             { return true }
func (*BaseVisitor) VisitVariable(*Variable) bool                                   { return true }
func (*BaseVisitor) VisitArrayExpression(*ArrayExpression) bool                     { return true }
func (*BaseVisitor) VisitPrefixExpression(*PrefixExpression) bool                   { return true }
func (*BaseVisitor) VisitInfixExpression(*InfixExpression) bool                     { return true }
func (*BaseVisitor) VisitAssignmentExpression(*AssignmentExpression) bool           { return true }
func (*BaseVisitor) VisitTernaryExpression(*TernaryExpression) bool                 { return true }
func (*BaseVisitor) VisitIndexExpression(*IndexExpression) bool                     { return true }
func (*BaseVisitor) VisitPropertyExpression(*PropertyExpression) bool               { return true }
func (*BaseVisitor) VisitNullsafePropertyExpression(*NullsafePropertyExpression) bool {
	return true
}
func (*BaseVisitor) VisitStaticPropertyExpression(*StaticPropertyExpression) bool { return true }
func (*BaseVisitor) VisitCallExpression(*CallExpression) bool                     { return true }
func (*BaseVisitor) VisitMethodCallExpression(*MethodCallExpression) bool         { return true }
func (*BaseVisitor) VisitStaticCallExpression(*StaticCallExpression) bool         { return true }
func (*BaseVisitor) VisitNewExpression(*NewExpression) bool                       { return true }
func (*BaseVisitor) VisitInstanceofExpression(*InstanceofExpression) bool         { return true }
func (*BaseVisitor) VisitCastExpression(*CastExpression) bool                     { return true }
func (*BaseVisitor) VisitGroupedExpression(*GroupedExpression) bool               { return true }
func (*BaseVisitor) VisitMatchExpression(*MatchExpression) bool                   { return true }
func (*BaseVisitor) VisitClosureExpression(*ClosureExpression) bool               { return true }
func (*BaseVisitor) VisitArrowFunctionExpression(*ArrowFunctionExpression) bool   { return true }
func (*BaseVisitor) VisitListExpression(*ListExpression) bool                     { return true }
func (*BaseVisitor) VisitNullableType(*NullableType) bool                         { return true }
func (*BaseVisitor) VisitUnionType(*UnionType) bool                               { return true }
func (*BaseVisitor) VisitIntersectionType(*IntersectionType) bool                 { return true }
func (*BaseVisitor) VisitNamedType(*NamedType) bool                               { return true }
