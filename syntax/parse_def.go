package syntax

import (
	"daisyc/ast"
)

// parseDef parses a single top level definition.
func (p *Parser) parseDef() ast.Def {
	switch p.tok().Kind {
	case TOK_PUBLIC, TOK_PRIVATE:
		public := p.got(TOK_PUBLIC)
		p.next()

		switch p.tok().Kind {
		case TOK_EXTERN:
			return p.parseExtern(public)
		case TOK_TRAIT:
			return p.parseTrait(public)
		case TOK_STRUCT:
			return p.parseStruct(public)
		case TOK_ENUM:
			return p.parseEnum(public)
		case TOK_FN:
			return p.parseFunc(public)
		default:
			p.reject("visibility must be followed by a definition")
			return nil
		}
	case TOK_IMPORT, TOK_USE, TOK_MODULE:
		return p.parseImport()
	case TOK_EXTERN:
		return p.parseExtern(false)
	case TOK_TRAIT:
		return p.parseTrait(false)
	case TOK_IMPL:
		return p.parseImpl()
	case TOK_STRUCT:
		return p.parseStruct(false)
	case TOK_ENUM:
		return p.parseEnum(false)
	case TOK_FN:
		return p.parseFunc(false)
	default:
		p.reject("expected a top level definition")
		return nil
	}
}

// -----------------------------------------------------------------------------

// parseImport parses an import or use declaration.
//
//	import a.b [as x]
//	use a.b.sym [as x]
//	모듈을 math [별칭으로 m]
//	사용 math.sqrt
func (p *Parser) parseImport() *ast.ImportDef {
	start := p.tok()
	isUse := p.got(TOK_USE)
	p.next()

	// Skip the particle attached to the Korean module keyword.
	if p.got(TOK_PARTICLE) {
		p.next()
	}

	p.assert(TOK_IDENT)
	path := []string{p.tok().Value}
	end := p.tok().Span
	p.next()

	for p.got(TOK_DOT) {
		p.next()
		p.assert(TOK_IDENT)
		path = append(path, p.tok().Value)
		end = p.tok().Span
		p.next()
	}

	if p.got(TOK_PARTICLE) {
		p.next()
	}

	alias := ""
	if p.got(TOK_AS) {
		p.next()

		if p.got(TOK_PARTICLE) {
			p.next()
		}

		p.assert(TOK_IDENT)
		alias = p.tok().Value
		end = p.tok().Span
		p.next()
	}

	// Tolerate the trailing Korean verb form: `모듈을 math를 사용한다`.
	if p.got(TOK_USE) {
		p.next()
	}

	p.assertAndNext(TOK_NEWLINE)

	return &ast.ImportDef{
		ASTBase: ast.NewASTBaseOver(start.Span, end),
		Path:    path,
		Alias:   alias,
		IsUse:   isUse,
	}
}

// -----------------------------------------------------------------------------

// parseExtern parses an external function declaration.
//
//	extern fn name(params) -> ret
//	외부 함수 name(params) -> ret
func (p *Parser) parseExtern(public bool) *ast.ExternDef {
	start := p.tok()
	p.next()
	p.assertAndNext(TOK_FN)

	p.assert(TOK_IDENT)
	name := p.tok()
	p.next()

	params := p.parseParams()

	p.assertAndNext(TOK_ARROW)
	retType := p.parseTypeRef()

	p.assertAndNext(TOK_NEWLINE)

	return &ast.ExternDef{
		ASTBase:    ast.NewASTBaseOver(start.Span, name.Span),
		Name:       name.Value,
		Public:     public,
		Params:     params,
		ReturnType: retType,
	}
}

// -----------------------------------------------------------------------------

// parseStruct parses a struct definition and its indented field block.
func (p *Parser) parseStruct(public bool) *ast.StructDef {
	start := p.tok()
	p.next()

	p.assert(TOK_IDENT)
	name := p.tok()
	p.next()

	typeParams := p.parseTypeParams()

	p.assertAndNext(TOK_COLON)
	p.assertAndNext(TOK_NEWLINE)
	p.assertAndNext(TOK_INDENT)

	var fields []ast.StructField
	for !p.got(TOK_DEDENT) && !p.got(TOK_EOF) {
		if p.got(TOK_NEWLINE) {
			p.next()
			continue
		}

		p.assert(TOK_IDENT)
		fieldName := p.tok()
		p.next()

		p.assertAndNext(TOK_COLON)
		fieldType := p.parseTypeRef()
		p.assertAndNext(TOK_NEWLINE)

		fields = append(fields, ast.StructField{
			Name: fieldName.Value,
			Type: fieldType,
			Pos:  ast.NewASTBaseOn(fieldName.Span),
		})
	}

	if p.got(TOK_DEDENT) {
		p.next()
	}

	return &ast.StructDef{
		ASTBase:    ast.NewASTBaseOver(start.Span, name.Span),
		Name:       name.Value,
		Public:     public,
		TypeParams: typeParams,
		Fields:     fields,
	}
}

// parseEnum parses an enum definition and its indented case block.
func (p *Parser) parseEnum(public bool) *ast.EnumDef {
	start := p.tok()
	p.next()

	p.assert(TOK_IDENT)
	name := p.tok()
	p.next()

	typeParams := p.parseTypeParams()

	p.assertAndNext(TOK_COLON)
	p.assertAndNext(TOK_NEWLINE)
	p.assertAndNext(TOK_INDENT)

	var cases []ast.EnumCase
	for !p.got(TOK_DEDENT) && !p.got(TOK_EOF) {
		if p.got(TOK_NEWLINE) {
			p.next()
			continue
		}

		if !p.got(TOK_CASE) {
			p.reject("expected a case in enum body")
		}
		p.next()

		p.assert(TOK_IDENT)
		caseName := p.tok()
		p.next()

		var elems []*ast.TypeRef
		if p.got(TOK_COLON) {
			p.next()
			elems = append(elems, p.parseTypeRef())
		}

		p.assertAndNext(TOK_NEWLINE)

		cases = append(cases, ast.EnumCase{
			Name:  caseName.Value,
			Elems: elems,
			Pos:   ast.NewASTBaseOn(caseName.Span),
		})
	}

	if p.got(TOK_DEDENT) {
		p.next()
	}

	return &ast.EnumDef{
		ASTBase:    ast.NewASTBaseOver(start.Span, name.Span),
		Name:       name.Value,
		Public:     public,
		TypeParams: typeParams,
		Cases:      cases,
	}
}

// -----------------------------------------------------------------------------

// parseTrait parses a trait definition and its indented method block.  Each
// method line is a bodiless function signature.
func (p *Parser) parseTrait(public bool) *ast.TraitDef {
	start := p.tok()
	p.next()

	p.assert(TOK_IDENT)
	name := p.tok()
	p.next()

	typeParams := p.parseTypeParams()

	p.assertAndNext(TOK_COLON)
	p.assertAndNext(TOK_NEWLINE)
	p.assertAndNext(TOK_INDENT)

	var methods []ast.TraitMethod
	for !p.got(TOK_DEDENT) && !p.got(TOK_EOF) {
		if p.got(TOK_NEWLINE) {
			p.next()
			continue
		}

		methods = append(methods, p.parseTraitMethod(p.consumeLine()))
		p.assertAndNext(TOK_NEWLINE)
	}

	if p.got(TOK_DEDENT) {
		p.next()
	}

	return &ast.TraitDef{
		ASTBase:    ast.NewASTBaseOver(start.Span, name.Span),
		Name:       name.Value,
		Public:     public,
		TypeParams: typeParams,
		Methods:    methods,
	}
}

// parseTraitMethod parses one trait method signature from its line tokens.
func (p *Parser) parseTraitMethod(toks []*Token) ast.TraitMethod {
	if len(toks) == 0 {
		p.reject("expected a trait method signature")
	}

	if toks[0].Kind != TOK_FN {
		p.rejectOn(toks[0], "trait method must start with fn")
	}

	if len(toks) < 2 || toks[1].Kind != TOK_IDENT {
		p.rejectOn(toks[0], "trait method missing name")
	}
	name := toks[1]

	idx := 2
	if idx >= len(toks) || toks[idx].Kind != TOK_LPAREN {
		p.rejectOn(name, "trait method missing parameter list")
	}
	idx++

	var params []*ast.Param
	if idx < len(toks) && toks[idx].Kind == TOK_RPAREN {
		idx++
	} else {
		for idx < len(toks) {
			if toks[idx].Kind != TOK_IDENT {
				p.rejectOn(toks[idx], "expected parameter name")
			}
			paramName := toks[idx]
			idx++

			if idx >= len(toks) || toks[idx].Kind != TOK_COLON {
				p.rejectOn(paramName, "parameter missing type")
			}
			idx++

			var paramType *ast.TypeRef
			paramType, idx = p.parseTypeRefToks(toks, idx)

			params = append(params, &ast.Param{
				ASTBase: ast.NewASTBaseOn(paramName.Span),
				Name:    paramName.Value,
				Type:    paramType,
			})

			if idx < len(toks) && toks[idx].Kind == TOK_COMMA {
				idx++
				continue
			}
			if idx < len(toks) && toks[idx].Kind == TOK_RPAREN {
				idx++
				break
			}

			p.rejectOn(toks[len(toks)-1], "expected `,` or `)` in parameter list")
		}
	}

	if idx >= len(toks) || toks[idx].Kind != TOK_ARROW {
		p.rejectOn(toks[len(toks)-1], "trait method missing return type")
	}
	idx++

	retType, _ := p.parseTypeRefToks(toks, idx)

	return ast.TraitMethod{
		Name:       name.Value,
		Params:     params,
		ReturnType: retType,
		Pos:        ast.NewASTBaseOn(spanOver(toks)),
	}
}

// -----------------------------------------------------------------------------

// parseImpl parses an impl block attaching methods to a type.
//
//	impl Trait for Type:
//	impl Type:
//	구현 Trait for Type:
func (p *Parser) parseImpl() *ast.ImplDef {
	start := p.tok()
	toks := p.consumeLine()

	if len(toks) > 0 && toks[len(toks)-1].Kind == TOK_COLON {
		toks = toks[:len(toks)-1]
	}

	traitName := ""
	var forToks []*Token

	forIdx := -1
	for i, tok := range toks {
		if tok.Kind == TOK_FOR {
			forIdx = i
			break
		}
	}

	if forIdx >= 0 {
		if forIdx >= 2 {
			traitName = toks[1].Value
		}
		forToks = toks[forIdx+1:]
	} else {
		forToks = toks[1:]
	}

	if len(forToks) == 0 {
		p.rejectOn(start, "impl requires a target type")
	}

	forType, _ := p.parseTypeRefToks(forToks, 0)

	p.assertAndNext(TOK_NEWLINE)
	p.assertAndNext(TOK_INDENT)

	var methods []*ast.FuncDef
	for !p.got(TOK_DEDENT) && !p.got(TOK_EOF) {
		if p.got(TOK_NEWLINE) {
			p.next()
			continue
		}

		methods = append(methods, p.parseFunc(false))
	}

	if p.got(TOK_DEDENT) {
		p.next()
	}

	return &ast.ImplDef{
		ASTBase:   ast.NewASTBaseOn(spanOver(append([]*Token{start}, toks...))),
		TraitName: traitName,
		ForType:   forType,
		Methods:   methods,
	}
}

// -----------------------------------------------------------------------------

// parseFunc parses a function definition in either surface.
//
//	fn name<T: Trait>(params) -> ret:
//	함수 name 정의:
//	함수 name은 p: int를 받고 int를 반환한다를 정의한다:
func (p *Parser) parseFunc(public bool) *ast.FuncDef {
	if !p.lineContains(TOK_DEFINE) {
		return p.parseEnglishFunc(public)
	}

	return p.parseKoreanFunc(public)
}

// parseEnglishFunc parses the English surface function form.
func (p *Parser) parseEnglishFunc(public bool) *ast.FuncDef {
	start := p.tok()
	p.next()

	p.assert(TOK_IDENT)
	name := p.tok()
	p.next()

	typeParams := p.parseTypeParams()
	params := p.parseParams()

	p.assertAndNext(TOK_ARROW)
	retType := p.parseTypeRef()

	p.assertAndNext(TOK_COLON)
	p.assertAndNext(TOK_NEWLINE)
	p.assertAndNext(TOK_INDENT)

	body := p.parseBlock()

	return &ast.FuncDef{
		ASTBase:    ast.NewASTBaseOver(start.Span, name.Span),
		Name:       name.Value,
		Public:     public,
		TypeParams: typeParams,
		Params:     params,
		ReturnType: normalizeReturnType(retType),
		Body:       body,
	}
}

// parseKoreanFunc parses the Korean surface function form from its header
// line tokens.
func (p *Parser) parseKoreanFunc(public bool) *ast.FuncDef {
	toks := p.consumeLine()

	if len(toks) > 0 && toks[len(toks)-1].Kind == TOK_COLON {
		toks = toks[:len(toks)-1]
	}

	if len(toks) < 3 || toks[0].Kind != TOK_FN || toks[1].Kind != TOK_IDENT {
		p.rejectOn(toks[0], "malformed function header")
	}
	name := toks[1]

	var params []*ast.Param
	var retType *ast.TypeRef

	// The short form `함수 name 정의:` declares a function taking and
	// returning nothing.
	if !(len(toks) == 3 && toks[2].Kind == TOK_DEFINE) {
		params = p.parseKoreanParams(toks)
		retType = p.koreanReturnType(toks)
	}

	p.assertAndNext(TOK_NEWLINE)
	p.assertAndNext(TOK_INDENT)

	body := p.parseBlock()

	return &ast.FuncDef{
		ASTBase:    ast.NewASTBaseOver(toks[0].Span, name.Span),
		Name:       name.Value,
		Public:     public,
		Params:     params,
		ReturnType: retType,
		Body:       body,
	}
}

// parseKoreanParams extracts the parameter list between the topic particle
// and the receives keyword of a Korean function header.
func (p *Parser) parseKoreanParams(toks []*Token) []*ast.Param {
	recvIdx := -1
	for i, tok := range toks {
		if tok.Kind == TOK_RECEIVES {
			recvIdx = i
			break
		}
	}

	if recvIdx < 0 {
		return nil
	}

	startIdx := -1
	for i := 0; i < recvIdx; i++ {
		if toks[i].Kind == TOK_PARTICLE && (toks[i].Value == "은" || toks[i].Value == "는") {
			startIdx = i + 1
			break
		}
	}

	if startIdx < 0 || startIdx >= recvIdx {
		return nil
	}

	window := toks[startIdx:recvIdx]

	// Strip a particle attached to the last parameter type.
	if window[len(window)-1].Kind == TOK_PARTICLE {
		window = window[:len(window)-1]
	}

	if len(window) == 1 && window[0].Kind == TOK_NOTHING {
		return nil
	}

	var params []*ast.Param
	idx := 0
	for idx < len(window) {
		if window[idx].Kind != TOK_IDENT {
			p.rejectOn(window[idx], "expected parameter name")
		}
		paramName := window[idx]
		idx++

		if idx >= len(window) || window[idx].Kind != TOK_COLON {
			p.rejectOn(paramName, "parameter missing type")
		}
		idx++

		var paramType *ast.TypeRef
		paramType, idx = p.parseTypeRefToks(window, idx)

		params = append(params, &ast.Param{
			ASTBase: ast.NewASTBaseOn(paramName.Span),
			Name:    paramName.Value,
			Type:    paramType,
		})

		if idx < len(window) && window[idx].Kind == TOK_COMMA {
			idx++
			continue
		}

		break
	}

	return params
}

// koreanReturnType extracts the declared return type of a Korean function
// header: the token before the return keyword, skipping particles.
func (p *Parser) koreanReturnType(toks []*Token) *ast.TypeRef {
	for i, tok := range toks {
		if tok.Kind == TOK_RETURN {
			j := i - 1
			for j >= 0 && toks[j].Kind == TOK_PARTICLE {
				j--
			}

			if j < 0 || toks[j].Kind == TOK_NOTHING {
				return nil
			}

			return normalizeReturnType(&ast.TypeRef{
				ASTBase: ast.NewASTBaseOn(toks[j].Span),
				Name:    toks[j].Value,
			})
		}
	}

	return nil
}

// normalizeReturnType maps the spelled unit type names onto a nil return.
func normalizeReturnType(tr *ast.TypeRef) *ast.TypeRef {
	if tr != nil && len(tr.Args) == 0 && (tr.Name == "unit" || tr.Name == "nothing") {
		return nil
	}

	return tr
}

// -----------------------------------------------------------------------------

// parseParams parses a parenthesized parameter list.
func (p *Parser) parseParams() []*ast.Param {
	p.assertAndNext(TOK_LPAREN)

	var params []*ast.Param
	if p.got(TOK_RPAREN) {
		p.next()
		return params
	}

	for {
		p.assert(TOK_IDENT)
		name := p.tok()
		p.next()

		p.assertAndNext(TOK_COLON)
		paramType := p.parseTypeRef()

		params = append(params, &ast.Param{
			ASTBase: ast.NewASTBaseOn(name.Span),
			Name:    name.Value,
			Type:    paramType,
		})

		if p.got(TOK_COMMA) {
			p.next()
			continue
		}

		break
	}

	p.assertAndNext(TOK_RPAREN)
	return params
}

// parseTypeParams parses an optional angle-bracketed generic parameter list
// with trait bounds.
func (p *Parser) parseTypeParams() []*ast.TypeParam {
	if !p.got(TOK_LT) {
		return nil
	}
	p.next()

	var params []*ast.TypeParam
	for {
		p.assert(TOK_IDENT)
		name := p.tok()
		p.next()

		var bounds []string
		if p.got(TOK_COLON) {
			p.next()

			for {
				p.assert(TOK_IDENT)
				bounds = append(bounds, p.tok().Value)
				p.next()

				if p.got(TOK_PLUS) {
					p.next()
					continue
				}

				break
			}
		}

		params = append(params, &ast.TypeParam{
			ASTBase: ast.NewASTBaseOn(name.Span),
			Name:    name.Value,
			Bounds:  bounds,
		})

		if p.got(TOK_COMMA) {
			p.next()
			continue
		}

		p.assertAndNext(TOK_GT)
		break
	}

	return params
}

// parseTypeRef parses a type reference at the parser's position.
func (p *Parser) parseTypeRef() *ast.TypeRef {
	if !p.got(TOK_BUFFER) {
		p.assert(TOK_IDENT)
	}
	name := p.tok()
	p.next()

	var args []*ast.TypeRef
	if p.got(TOK_LT) {
		p.next()

		for {
			args = append(args, p.parseTypeRef())

			if p.got(TOK_COMMA) {
				p.next()
				continue
			}

			p.assertAndNext(TOK_GT)
			break
		}
	}

	return &ast.TypeRef{
		ASTBase: ast.NewASTBaseOn(name.Span),
		Name:    name.Value,
		Args:    args,
	}
}

// parseTypeRefToks parses a type reference from a token slice starting at
// idx, returning the reference and the index past it.
func (p *Parser) parseTypeRefToks(toks []*Token, idx int) (*ast.TypeRef, int) {
	if idx >= len(toks) || toks[idx].Kind != TOK_IDENT {
		tok := toks[len(toks)-1]
		if idx < len(toks) {
			tok = toks[idx]
		}

		p.rejectOn(tok, "expected a type name")
	}

	name := toks[idx]
	idx++

	var args []*ast.TypeRef
	if idx < len(toks) && toks[idx].Kind == TOK_LT {
		idx++

		for {
			var arg *ast.TypeRef
			arg, idx = p.parseTypeRefToks(toks, idx)
			args = append(args, arg)

			if idx < len(toks) && toks[idx].Kind == TOK_COMMA {
				idx++
				continue
			}
			if idx < len(toks) && toks[idx].Kind == TOK_GT {
				idx++
				break
			}

			p.rejectOn(toks[len(toks)-1], "expected `,` or `>` in type arguments")
		}
	}

	return &ast.TypeRef{
		ASTBase: ast.NewASTBaseOn(name.Span),
		Name:    name.Value,
		Args:    args,
	}, idx
}
