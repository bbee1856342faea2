package cst

import (
	"fmt"

	ditterrors "github.com/dittolang/ditto/internal/errors"
	"github.com/dittolang/ditto/internal/lexer"
)

// Parser is a recursive-descent parser over a fully lexed token stream.
// It never partially accepts: on the first syntax error it returns the
// error and a nil File.
type Parser struct {
	toks []lexer.Token
	pos  int
	file string
}

// Parse lexes and parses a complete source file into a CST.
func Parse(source, file string) (*File, error) {
	toks, err := lexer.Tokenize(source, file)
	if err != nil {
		lexErr := err.(*lexer.Error)
		return nil, ditterrors.Wrap(ditterrors.New(ditterrors.PhaseParse, ditterrors.ParUnexpectedToken, lexErr.Message, &ditterrors.Span{
			File: lexErr.File, StartLine: lexErr.Line, StartColumn: lexErr.Column,
		}))
	}
	p := &Parser{toks: toks, file: file}
	return p.parseFile()
}

// ParseHeader lexes and parses only the module header and import list,
// stopping before any declaration is parsed. The build driver uses this
// to discover the module dependency graph over a large source tree
// without paying the cost of parsing (or checking) every declaration
// body (spec.md §4.5: "parse only the module header and imports ...
// without checking").
func ParseHeader(source, file string) (*File, error) {
	toks, err := lexer.Tokenize(source, file)
	if err != nil {
		lexErr := err.(*lexer.Error)
		return nil, ditterrors.Wrap(ditterrors.New(ditterrors.PhaseParse, ditterrors.ParUnexpectedToken, lexErr.Message, &ditterrors.Span{
			File: lexErr.File, StartLine: lexErr.Line, StartColumn: lexErr.Column,
		}))
	}
	p := &Parser{toks: toks, file: file}
	start := toPos(p.cur())
	f := &File{Pos: start}

	header, err := p.parseModuleHeader()
	if err != nil {
		return nil, err
	}
	f.Module = header

	for p.at(lexer.IMPORT) {
		imp, err := p.parseImport()
		if err != nil {
			return nil, err
		}
		f.Imports = append(f.Imports, imp)
	}

	return f, nil
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) peekN(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}
func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func toPos(t lexer.Token) Pos {
	return Pos{File: t.File, Line: t.Line, Column: t.Column, Offset: t.Offset}
}

func (p *Parser) errf(expected string) error {
	t := p.cur()
	msg := fmt.Sprintf("expected %s, found %s %q", expected, t.Type, t.Literal)
	return ditterrors.Wrap(ditterrors.New(ditterrors.PhaseParse, ditterrors.ParUnexpectedToken, msg, &ditterrors.Span{
		File: t.File, StartLine: t.Line, StartColumn: t.Column, StartOffset: t.Offset,
	}))
}

func (p *Parser) expect(tt lexer.TokenType, what string) (lexer.Token, error) {
	if p.cur().Type != tt {
		return lexer.Token{}, p.errf(what)
	}
	return p.advance(), nil
}

func (p *Parser) at(tt lexer.TokenType) bool { return p.cur().Type == tt }

// parseFile parses: ModuleHeader Import* Decl* EOF
func (p *Parser) parseFile() (*File, error) {
	start := toPos(p.cur())
	f := &File{Pos: start}

	header, err := p.parseModuleHeader()
	if err != nil {
		return nil, err
	}
	f.Module = header

	for p.at(lexer.IMPORT) {
		imp, err := p.parseImport()
		if err != nil {
			return nil, err
		}
		f.Imports = append(f.Imports, imp)
	}

	for !p.at(lexer.EOF) {
		decl, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		f.Decls = append(f.Decls, decl)
	}

	return f, nil
}

func (p *Parser) parseModuleHeader() (*ModuleHeader, error) {
	start := toPos(p.cur())
	if _, err := p.expect(lexer.MODULE, "'module'"); err != nil {
		return nil, err
	}
	name, err := p.parseQUName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.EXPORTS, "'exports'"); err != nil {
		return nil, err
	}
	exports, err := p.parseExportList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return &ModuleHeader{Name: name, Exports: exports, Pos: start}, nil
}

func (p *Parser) parseQUName() (QUName, error) {
	start := toPos(p.cur())
	first, err := p.expect(lexer.UIDENT, "a module name")
	if err != nil {
		return QUName{}, err
	}
	segs := []string{first.Literal}
	for p.at(lexer.DOT) && p.peekN(1).Type == lexer.UIDENT {
		p.advance()
		seg := p.advance()
		segs = append(segs, seg.Literal)
	}
	return QUName{Segments: segs, Pos: start}, nil
}

func (p *Parser) parseExportList() (ExportList, error) {
	start := toPos(p.cur())
	if _, err := p.expect(lexer.LPAREN, "'('"); err != nil {
		return ExportList{}, err
	}
	if p.at(lexer.DOTDOT) {
		p.advance()
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return ExportList{}, err
		}
		return ExportList{All: true, Pos: start}, nil
	}

	var items []ExportItem
	for {
		item, err := p.parseExportItem()
		if err != nil {
			return ExportList{}, err
		}
		items = append(items, item)
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
		return ExportList{}, err
	}
	return ExportList{Items: items, Pos: start}, nil
}

func (p *Parser) parseExportItem() (ExportItem, error) {
	t := p.cur()
	switch t.Type {
	case lexer.IDENT:
		p.advance()
		return ExportItem{Name: t.Literal, Pos: toPos(t)}, nil
	case lexer.UIDENT:
		p.advance()
		item := ExportItem{Name: t.Literal, IsType: true, Pos: toPos(t)}
		if p.at(lexer.LPAREN) && p.peekN(1).Type == lexer.DOTDOT {
			p.advance()
			p.advance()
			if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
				return ExportItem{}, err
			}
			item.AllCtors = true
		}
		return item, nil
	default:
		return ExportItem{}, p.errf("an exported name")
	}
}

func (p *Parser) parseImport() (*Import, error) {
	start := toPos(p.cur())
	p.advance() // 'import'

	imp := &Import{Pos: start}
	if p.at(lexer.LPAREN) {
		p.advance()
		pkg, err := p.expect(lexer.IDENT, "a package name")
		if err != nil {
			return nil, err
		}
		imp.Package = pkg.Literal
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return nil, err
		}
	}

	name, err := p.parseQUName()
	if err != nil {
		return nil, err
	}
	imp.Module = name

	if p.at(lexer.AS) {
		p.advance()
		alias, err := p.expect(lexer.UIDENT, "an alias name")
		if err != nil {
			return nil, err
		}
		imp.Alias = alias.Literal
	}

	if p.at(lexer.EXPOSING) {
		p.advance()
		list, err := p.parseExposingList()
		if err != nil {
			return nil, err
		}
		imp.Exposing = &list
	}

	if _, err := p.expect(lexer.SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return imp, nil
}

func (p *Parser) parseExposingList() (ExposingList, error) {
	start := toPos(p.cur())
	if _, err := p.expect(lexer.LPAREN, "'('"); err != nil {
		return ExposingList{}, err
	}
	if p.at(lexer.DOTDOT) {
		p.advance()
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return ExposingList{}, err
		}
		return ExposingList{All: true, Pos: start}, nil
	}
	var names []string
	for {
		t := p.cur()
		if t.Type != lexer.IDENT && t.Type != lexer.UIDENT {
			return ExposingList{}, p.errf("an exposed name")
		}
		p.advance()
		names = append(names, t.Literal)
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
		return ExposingList{}, err
	}
	return ExposingList{Names: names, Pos: start}, nil
}

func (p *Parser) parseDecl() (Decl, error) {
	switch p.cur().Type {
	case lexer.TYPE:
		return p.parseTypeDecl()
	case lexer.FOREIGN:
		return p.parseForeignDecl()
	case lexer.IDENT:
		return p.parseValueDecl()
	default:
		return nil, p.errf("a type, value, or foreign declaration")
	}
}

func (p *Parser) parseTypeDecl() (*TypeDecl, error) {
	start := toPos(p.cur())
	p.advance() // 'type'
	name, err := p.expect(lexer.UIDENT, "a type name")
	if err != nil {
		return nil, err
	}
	td := &TypeDecl{Name: name.Literal, Pos: start}

	if p.at(lexer.LPAREN) {
		p.advance()
		for {
			param, err := p.expect(lexer.IDENT, "a type parameter")
			if err != nil {
				return nil, err
			}
			td.Params = append(td.Params, param.Literal)
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.ASSIGN, "'='"); err != nil {
		return nil, err
	}

	for {
		ctor, err := p.parseCtorDecl()
		if err != nil {
			return nil, err
		}
		td.Ctors = append(td.Ctors, ctor)
		if p.at(lexer.PIPE) {
			p.advance()
			continue
		}
		break
	}

	if _, err := p.expect(lexer.SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return td, nil
}

func (p *Parser) parseCtorDecl() (CtorDecl, error) {
	start := toPos(p.cur())
	name, err := p.expect(lexer.UIDENT, "a constructor name")
	if err != nil {
		return CtorDecl{}, err
	}
	ctor := CtorDecl{Name: name.Literal, Pos: start}
	if p.at(lexer.LPAREN) {
		p.advance()
		for {
			arg, err := p.parseTypeExpr()
			if err != nil {
				return CtorDecl{}, err
			}
			ctor.Args = append(ctor.Args, arg)
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return CtorDecl{}, err
		}
	}
	return ctor, nil
}

func (p *Parser) parseForeignDecl() (*ForeignDecl, error) {
	start := toPos(p.cur())
	p.advance() // 'foreign'
	name, err := p.expect(lexer.IDENT, "a foreign value name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON, "':'"); err != nil {
		return nil, err
	}
	annot, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return &ForeignDecl{Name: name.Literal, Annotation: annot, Pos: start}, nil
}

func (p *Parser) parseValueDecl() (*ValueDecl, error) {
	start := toPos(p.cur())
	name, err := p.expect(lexer.IDENT, "a value name")
	if err != nil {
		return nil, err
	}
	vd := &ValueDecl{Name: name.Literal, Pos: start}
	if p.at(lexer.COLON) {
		p.advance()
		annot, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		vd.Annotation = annot
	}
	if _, err := p.expect(lexer.ASSIGN, "'='"); err != nil {
		return nil, err
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	vd.RHS = rhs
	if _, err := p.expect(lexer.SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return vd, nil
}

// -- Type expressions --------------------------------------------------

func (p *Parser) parseTypeExpr() (TypeExpr, error) {
	lhs, err := p.parseTypeAtom()
	if err != nil {
		return nil, err
	}
	if p.at(lexer.ARROW) {
		start := lhs.Position()
		p.advance()
		ret, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		params := flattenParenParams(lhs)
		return &TypeFunc{Params: params, Return: ret, Pos: start}, nil
	}
	if pl, ok := lhs.(*typeParenList); ok {
		// A parenthesized list not followed by '->' is a tuple type,
		// which this grammar does not support (spec.md §1 non-goals).
		_ = pl
		return nil, p.errf("'->' after a parenthesized type list")
	}
	return lhs, nil
}

// flattenParenParams turns a parenthesized param-list parsed as a
// TypeParen/tuple-like node back into the param slice for TypeFunc. A
// bare (non-parenthesized) atom becomes the sole parameter.
func flattenParenParams(t TypeExpr) []TypeExpr {
	if tp, ok := t.(*typeParenList); ok {
		return tp.items
	}
	return []TypeExpr{t}
}

// typeParenList is an internal-only node representing a parsed
// "(t1, t2, ...)" parameter list before we know whether an arrow
// follows; it never survives into the returned CST.
type typeParenList struct {
	items []TypeExpr
	pos   Pos
}

func (t *typeParenList) Position() Pos { return t.pos }
func (t *typeParenList) typeExprNode() {}

func (p *Parser) parseTypeAtom() (TypeExpr, error) {
	t := p.cur()
	switch t.Type {
	case lexer.IDENT:
		p.advance()
		return &TypeVar{Name: t.Literal, Pos: toPos(t)}, nil
	case lexer.UIDENT:
		qualifier, name, err := p.parseQualifiedUpper()
		if err != nil {
			return nil, err
		}
		con := &TypeCon{Qualifier: qualifier, Name: name, Pos: toPos(t)}
		if p.at(lexer.LPAREN) {
			p.advance()
			for {
				arg, err := p.parseTypeExpr()
				if err != nil {
					return nil, err
				}
				con.Args = append(con.Args, arg)
				if p.at(lexer.COMMA) {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
				return nil, err
			}
		}
		return con, nil
	case lexer.LPAREN:
		p.advance()
		if p.at(lexer.RPAREN) {
			p.advance()
			return &TypeCon{Name: "Unit", Pos: toPos(t)}, nil
		}
		var items []TypeExpr
		for {
			item, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return nil, err
		}
		if len(items) == 1 {
			if p.at(lexer.ARROW) {
				return &typeParenList{items: items, pos: toPos(t)}, nil
			}
			return &TypeParen{Inner: items[0], Pos: toPos(t)}, nil
		}
		return &typeParenList{items: items, pos: toPos(t)}, nil
	default:
		return nil, p.errf("a type")
	}
}

// parseQualifiedUpper parses "Alias.Name" or bare "Name" where the last
// segment is the referenced name and any earlier segments form the
// qualifier.
func (p *Parser) parseQualifiedUpper() (qualifier, name string, err error) {
	first, err := p.expect(lexer.UIDENT, "an identifier")
	if err != nil {
		return "", "", err
	}
	if p.at(lexer.DOT) && p.peekN(1).Type == lexer.UIDENT {
		p.advance()
		second := p.advance()
		return first.Literal, second.Literal, nil
	}
	return "", first.Literal, nil
}

// -- Value expressions --------------------------------------------------

func (p *Parser) parseExpr() (Expr, error) {
	switch p.cur().Type {
	case lexer.IF:
		return p.parseIf()
	case lexer.LPAREN:
		if p.looksLikeFuncLit() {
			return p.parseFuncLit()
		}
	}
	return p.parseApp()
}

func (p *Parser) parseIf() (Expr, error) {
	start := toPos(p.cur())
	p.advance() // 'if'
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.THEN, "'then'"); err != nil {
		return nil, err
	}
	thenE, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ELSE, "'else'"); err != nil {
		return nil, err
	}
	elseE, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &If{Cond: cond, Then: thenE, Else: elseE, Pos: start}, nil
}

// looksLikeFuncLit scans ahead from an '(' to see whether it opens a
// function-literal parameter list (closing ')' followed by an optional
// ": Type" and then "->") rather than a parenthesized sub-expression.
func (p *Parser) looksLikeFuncLit() bool {
	depth := 0
	i := p.pos
	for i < len(p.toks) {
		switch p.toks[i].Type {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			depth--
			if depth == 0 {
				// token after the matching ')'
				j := i + 1
				if j < len(p.toks) && p.toks[j].Type == lexer.COLON {
					// skip a return-type annotation up to '->'
					for j < len(p.toks) && p.toks[j].Type != lexer.ARROW && p.toks[j].Type != lexer.SEMICOLON {
						j++
					}
				}
				return j < len(p.toks) && p.toks[j].Type == lexer.ARROW
			}
		case lexer.EOF, lexer.SEMICOLON:
			return false
		}
		i++
	}
	return false
}

func (p *Parser) parseFuncLit() (Expr, error) {
	start := toPos(p.cur())
	if _, err := p.expect(lexer.LPAREN, "'('"); err != nil {
		return nil, err
	}
	var params []FuncParam
	if !p.at(lexer.RPAREN) {
		for {
			pstart := toPos(p.cur())
			name, err := p.expect(lexer.IDENT, "a parameter name")
			if err != nil {
				return nil, err
			}
			fp := FuncParam{Name: name.Literal, Pos: pstart}
			if p.at(lexer.COLON) {
				p.advance()
				annot, err := p.parseTypeExpr()
				if err != nil {
					return nil, err
				}
				fp.Annotation = annot
			}
			params = append(params, fp)
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
		return nil, err
	}

	fl := &FuncLit{Params: params, Pos: start}
	if p.at(lexer.COLON) {
		p.advance()
		ret, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		fl.ReturnType = ret
	}
	if _, err := p.expect(lexer.ARROW, "'->'"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	fl.Body = body
	return fl, nil
}

// parseApp parses an atom followed by zero or more argument-list
// applications, left-associative: f(a)(b) => App(App(f,[a]),[b]).
func (p *Parser) parseApp() (Expr, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.LPAREN) {
		start := atom.Position()
		p.advance()
		var args []Expr
		if !p.at(lexer.RPAREN) {
			for {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.at(lexer.COMMA) {
					p.advance()
					continue
				}
				break
			}
		}
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return nil, err
		}
		atom = &App{Callee: atom, Args: args, Pos: start}
	}
	return atom, nil
}

func (p *Parser) parseAtom() (Expr, error) {
	t := p.cur()
	switch t.Type {
	case lexer.UNIT:
		p.advance()
		return &Literal{Kind: LitUnit, Value: "()", Pos: toPos(t)}, nil
	case lexer.TRUE, lexer.FALSE:
		p.advance()
		return &Literal{Kind: LitBool, Value: t.Literal, Pos: toPos(t)}, nil
	case lexer.INT:
		p.advance()
		return &Literal{Kind: LitInt, Value: t.Literal, Pos: toPos(t)}, nil
	case lexer.FLOAT:
		p.advance()
		return &Literal{Kind: LitFloat, Value: t.Literal, Pos: toPos(t)}, nil
	case lexer.STRING:
		p.advance()
		return &Literal{Kind: LitString, Value: t.Literal, Pos: toPos(t)}, nil
	case lexer.IDENT:
		p.advance()
		return &Var{Name: t.Literal, Pos: toPos(t)}, nil
	case lexer.UIDENT:
		qualifier, name, isValue, err := p.parseQualifiedUpperOrMixed()
		if err != nil {
			return nil, err
		}
		if isValue {
			return &Var{Qualifier: qualifier, Name: name, Pos: toPos(t)}, nil
		}
		return &Ctor{Qualifier: qualifier, Name: name, Pos: toPos(t)}, nil
	case lexer.LBRACKET:
		return p.parseArray()
	case lexer.IF:
		return p.parseIf()
	case lexer.LPAREN:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return nil, err
		}
		return &Paren{Inner: inner, Pos: toPos(t)}, nil
	default:
		return nil, p.errf("an expression")
	}
}

// parseQualifiedUpperOrMixed parses a reference starting with a
// capitalized segment: either a bare constructor ("Just"), a qualified
// constructor ("Maybe.Just"), or a qualified value ("List.map"). isValue
// is true when the final segment is lower-case.
func (p *Parser) parseQualifiedUpperOrMixed() (qualifier, name string, isValue bool, err error) {
	first, err := p.expect(lexer.UIDENT, "an identifier")
	if err != nil {
		return "", "", false, err
	}
	if p.at(lexer.DOT) && (p.peekN(1).Type == lexer.UIDENT || p.peekN(1).Type == lexer.IDENT) {
		p.advance()
		second := p.advance()
		return first.Literal, second.Literal, second.Type == lexer.IDENT, nil
	}
	return "", first.Literal, false, nil
}

func (p *Parser) parseArray() (Expr, error) {
	start := toPos(p.cur())
	p.advance() // '['
	var elems []Expr
	if !p.at(lexer.RBRACKET) {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(lexer.RBRACKET, "']'"); err != nil {
		return nil, err
	}
	return &Array{Elems: elems, Pos: start}, nil
}
