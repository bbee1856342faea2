package ast

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/maloquacious/semver"

	"github.com/dittolang/ditto/internal/types"
)

// magic identifies a .ast file (spec.md §6); astFormatVersion is the
// version integer stamped at offset 4, mirroring internal/iface/codec.go's
// scheme for .ast-exports. A mismatched major version is a fatal "clean
// your build directory" error, surfaced by the build driver.
var astMagic = [4]byte{'D', 'T', 'A', 'S'}

var astFormatVersion = semver.Version{Major: 1, Minor: 0, Patch: 0}

func astFormatVersionInt() uint32 {
	return uint32(astFormatVersion.Major)<<16 | uint32(astFormatVersion.Minor)<<8 | uint32(astFormatVersion.Patch)
}

// VersionError reports a magic or format-version mismatch decoding a
// .ast file.
type VersionError struct {
	Reason string
	Got    uint32
	Want   uint32
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("ast: %s (got format version %06x, want %06x) — clean the build directory", e.Reason, e.Got, e.Want)
}

// tags for the TypeExpr tagged-variant encoding.
const (
	tagTEVar byte = iota
	tagTECon
	tagTEFunc
)

// tags for the Expr tagged-variant encoding.
const (
	tagLiteral byte = iota
	tagVar
	tagCtorRef
	tagArrayLit
	tagFuncLit
	tagApp
	tagIf
)

// tags mirroring internal/types' own Type variants, duplicated here
// (rather than imported from internal/iface, which keeps its encoding
// private) since an elaborated Module's expression nodes carry inferred
// types that must round-trip through the same .ast file.
const (
	tagTVar byte = iota
	tagTCon
	tagTFunc
)

// EncodeModule serializes an elaborated module as a tag-length-value
// binary blob (spec.md §6): a 4-byte magic, a format-version integer,
// then the module's imports, type declarations, value declarations, and
// foreign declarations, each expression node carrying its inferred type
// and resolved bindings. Only a module that has gone through
// internal/checker.Check should be passed here — see
// internal/builddriver, which writes this as a module's .ast target.
func EncodeModule(w io.Writer, m *Module) error {
	var buf bytes.Buffer
	buf.Write(astMagic[:])
	writeU32(&buf, astFormatVersionInt())

	writeString(&buf, m.Name)
	writeBool(&buf, m.ExportAll)
	writePos(&buf, m.Pos)

	writeU32(&buf, uint32(len(m.ExportItems)))
	for _, it := range m.ExportItems {
		writeString(&buf, it.Name)
		writeBool(&buf, it.IsType)
		writeBool(&buf, it.AllCtors)
		writePos(&buf, it.Pos)
	}

	writeU32(&buf, uint32(len(m.Imports)))
	for _, imp := range m.Imports {
		writeString(&buf, imp.Package)
		writeString(&buf, imp.Module)
		writeString(&buf, imp.Alias)
		writeBool(&buf, imp.ExposeAll)
		writeU32(&buf, uint32(len(imp.Exposed)))
		for _, e := range imp.Exposed {
			writeString(&buf, e)
		}
		writePos(&buf, imp.Pos)
	}

	writeU32(&buf, uint32(len(m.Types)))
	for _, td := range m.Types {
		writeString(&buf, td.Name)
		writeU32(&buf, uint32(len(td.Params)))
		for _, p := range td.Params {
			writeString(&buf, p)
		}
		writeU32(&buf, uint32(len(td.Ctors)))
		for _, c := range td.Ctors {
			writeString(&buf, c.Name)
			writeU32(&buf, uint32(len(c.Args)))
			for _, a := range c.Args {
				writeTypeExpr(&buf, a)
			}
			writePos(&buf, c.Pos)
		}
		writePos(&buf, td.Pos)
	}

	writeU32(&buf, uint32(len(m.Values)))
	for _, vd := range m.Values {
		writeString(&buf, vd.Name)
		writeOptTypeExpr(&buf, vd.Annotation)
		writeExpr(&buf, vd.RHS)
		writePos(&buf, vd.Pos)
	}

	writeU32(&buf, uint32(len(m.Foreigns)))
	for _, fd := range m.Foreigns {
		writeString(&buf, fd.Name)
		writeTypeExpr(&buf, fd.Annotation)
		writePos(&buf, fd.Pos)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// DecodeModule reads a module previously written by EncodeModule.
func DecodeModule(r io.Reader) (*Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	br := bytes.NewReader(data)

	var gotMagic [4]byte
	if _, err := io.ReadFull(br, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("ast: reading magic: %w", err)
	}
	if gotMagic != astMagic {
		return nil, &VersionError{Reason: "bad magic"}
	}
	gotVersion, err := readU32(br)
	if err != nil {
		return nil, err
	}
	if gotVersion>>16 != uint32(astFormatVersion.Major) {
		return nil, &VersionError{Reason: "incompatible major version", Got: gotVersion, Want: astFormatVersionInt()}
	}

	m := &Module{}
	if m.Name, err = readString(br); err != nil {
		return nil, err
	}
	if m.ExportAll, err = readBool(br); err != nil {
		return nil, err
	}
	if m.Pos, err = readPos(br); err != nil {
		return nil, err
	}

	nExports, err := readU32(br)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nExports; i++ {
		var it ExportItem
		if it.Name, err = readString(br); err != nil {
			return nil, err
		}
		if it.IsType, err = readBool(br); err != nil {
			return nil, err
		}
		if it.AllCtors, err = readBool(br); err != nil {
			return nil, err
		}
		if it.Pos, err = readPos(br); err != nil {
			return nil, err
		}
		m.ExportItems = append(m.ExportItems, it)
	}

	nImports, err := readU32(br)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nImports; i++ {
		imp := &Import{}
		if imp.Package, err = readString(br); err != nil {
			return nil, err
		}
		if imp.Module, err = readString(br); err != nil {
			return nil, err
		}
		if imp.Alias, err = readString(br); err != nil {
			return nil, err
		}
		if imp.ExposeAll, err = readBool(br); err != nil {
			return nil, err
		}
		nExposed, err := readU32(br)
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < nExposed; j++ {
			e, err := readString(br)
			if err != nil {
				return nil, err
			}
			imp.Exposed = append(imp.Exposed, e)
		}
		if imp.Pos, err = readPos(br); err != nil {
			return nil, err
		}
		m.Imports = append(m.Imports, imp)
	}

	nTypes, err := readU32(br)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nTypes; i++ {
		td := &TypeDecl{}
		if td.Name, err = readString(br); err != nil {
			return nil, err
		}
		nParams, err := readU32(br)
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < nParams; j++ {
			p, err := readString(br)
			if err != nil {
				return nil, err
			}
			td.Params = append(td.Params, p)
		}
		nCtors, err := readU32(br)
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < nCtors; j++ {
			var c DataCtor
			if c.Name, err = readString(br); err != nil {
				return nil, err
			}
			nArgs, err := readU32(br)
			if err != nil {
				return nil, err
			}
			for k := uint32(0); k < nArgs; k++ {
				a, err := readTypeExpr(br)
				if err != nil {
					return nil, err
				}
				c.Args = append(c.Args, a)
			}
			if c.Pos, err = readPos(br); err != nil {
				return nil, err
			}
			td.Ctors = append(td.Ctors, c)
		}
		if td.Pos, err = readPos(br); err != nil {
			return nil, err
		}
		m.Types = append(m.Types, td)
	}

	nValues, err := readU32(br)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nValues; i++ {
		vd := &ValueDecl{}
		if vd.Name, err = readString(br); err != nil {
			return nil, err
		}
		if vd.Annotation, err = readOptTypeExpr(br); err != nil {
			return nil, err
		}
		if vd.RHS, err = readExpr(br); err != nil {
			return nil, err
		}
		if vd.Pos, err = readPos(br); err != nil {
			return nil, err
		}
		m.Values = append(m.Values, vd)
	}

	nForeigns, err := readU32(br)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nForeigns; i++ {
		fd := &ForeignDecl{}
		if fd.Name, err = readString(br); err != nil {
			return nil, err
		}
		if fd.Annotation, err = readTypeExpr(br); err != nil {
			return nil, err
		}
		if fd.Pos, err = readPos(br); err != nil {
			return nil, err
		}
		m.Foreigns = append(m.Foreigns, fd)
	}

	return m, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func readBool(r io.ByteReader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func writePos(buf *bytes.Buffer, p Pos) {
	writeString(buf, p.File)
	writeU32(buf, uint32(p.Line))
	writeU32(buf, uint32(p.Column))
	writeU32(buf, uint32(p.Offset))
}

func readPos(r io.Reader) (Pos, error) {
	file, err := readString(r)
	if err != nil {
		return Pos{}, err
	}
	line, err := readU32(r)
	if err != nil {
		return Pos{}, err
	}
	col, err := readU32(r)
	if err != nil {
		return Pos{}, err
	}
	off, err := readU32(r)
	if err != nil {
		return Pos{}, err
	}
	return Pos{File: file, Line: int(line), Column: int(col), Offset: int(off)}, nil
}

func writeQName(buf *bytes.Buffer, q QName) {
	writeString(buf, q.Qualifier)
	writeString(buf, q.Name)
}

func readQName(r io.Reader) (QName, error) {
	qual, err := readString(r)
	if err != nil {
		return QName{}, err
	}
	name, err := readString(r)
	if err != nil {
		return QName{}, err
	}
	return QName{Qualifier: qual, Name: name}, nil
}

func writeOptTypeExpr(buf *bytes.Buffer, t TypeExpr) {
	if t == nil {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	writeTypeExpr(buf, t)
}

func readOptTypeExpr(r *bytes.Reader) (TypeExpr, error) {
	present, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	return readTypeExpr(r)
}

func writeTypeExpr(buf *bytes.Buffer, t TypeExpr) {
	switch v := t.(type) {
	case *TEVar:
		buf.WriteByte(tagTEVar)
		writeString(buf, v.Name)
		writePos(buf, v.Pos)
	case *TECon:
		buf.WriteByte(tagTECon)
		writeQName(buf, v.Name)
		writeU32(buf, uint32(len(v.Args)))
		for _, a := range v.Args {
			writeTypeExpr(buf, a)
		}
		writePos(buf, v.Pos)
	case *TEFunc:
		buf.WriteByte(tagTEFunc)
		writeU32(buf, uint32(len(v.Params)))
		for _, p := range v.Params {
			writeTypeExpr(buf, p)
		}
		writeTypeExpr(buf, v.Return)
		writePos(buf, v.Pos)
	default:
		panic(fmt.Sprintf("ast: unhandled TypeExpr %T", t))
	}
}

func readTypeExpr(r *bytes.Reader) (TypeExpr, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagTEVar:
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		pos, err := readPos(r)
		if err != nil {
			return nil, err
		}
		return &TEVar{Name: name, Pos: pos}, nil
	case tagTECon:
		name, err := readQName(r)
		if err != nil {
			return nil, err
		}
		n, err := readU32(r)
		if err != nil {
			return nil, err
		}
		args := make([]TypeExpr, n)
		for i := range args {
			a, err := readTypeExpr(r)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		pos, err := readPos(r)
		if err != nil {
			return nil, err
		}
		return &TECon{Name: name, Args: args, Pos: pos}, nil
	case tagTEFunc:
		n, err := readU32(r)
		if err != nil {
			return nil, err
		}
		params := make([]TypeExpr, n)
		for i := range params {
			p, err := readTypeExpr(r)
			if err != nil {
				return nil, err
			}
			params[i] = p
		}
		ret, err := readTypeExpr(r)
		if err != nil {
			return nil, err
		}
		pos, err := readPos(r)
		if err != nil {
			return nil, err
		}
		return &TEFunc{Params: params, Return: ret, Pos: pos}, nil
	default:
		return nil, fmt.Errorf("ast: unknown type-expr tag %d", tag)
	}
}

func writeType(buf *bytes.Buffer, t types.Type) {
	switch v := t.(type) {
	case *types.TVar:
		buf.WriteByte(tagTVar)
		writeString(buf, v.Name)
	case *types.TCon:
		buf.WriteByte(tagTCon)
		writeString(buf, v.Name)
		writeU32(buf, uint32(len(v.Args)))
		for _, a := range v.Args {
			writeType(buf, a)
		}
	case *types.TFunc:
		buf.WriteByte(tagTFunc)
		writeU32(buf, uint32(len(v.Params)))
		for _, p := range v.Params {
			writeType(buf, p)
		}
		writeType(buf, v.Return)
	default:
		panic(fmt.Sprintf("ast: unhandled Type %T", t))
	}
}

func readType(r *bytes.Reader) (types.Type, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagTVar:
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		return &types.TVar{Name: name}, nil
	case tagTCon:
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		n, err := readU32(r)
		if err != nil {
			return nil, err
		}
		args := make([]types.Type, n)
		for i := range args {
			a, err := readType(r)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return &types.TCon{Name: name, Args: args}, nil
	case tagTFunc:
		n, err := readU32(r)
		if err != nil {
			return nil, err
		}
		params := make([]types.Type, n)
		for i := range params {
			p, err := readType(r)
			if err != nil {
				return nil, err
			}
			params[i] = p
		}
		ret, err := readType(r)
		if err != nil {
			return nil, err
		}
		return &types.TFunc{Params: params, Return: ret}, nil
	default:
		return nil, fmt.Errorf("ast: unknown type tag %d", tag)
	}
}

func writeExpr(buf *bytes.Buffer, e Expr) {
	switch v := e.(type) {
	case *Literal:
		buf.WriteByte(tagLiteral)
		writeU32(buf, uint32(v.Kind))
		writeString(buf, v.Value)
		writePos(buf, v.Pos)
		writeType(buf, v.ExprType())
	case *Var:
		buf.WriteByte(tagVar)
		writeQName(buf, v.Name)
		writeQName(buf, v.Resolved)
		writePos(buf, v.Pos)
		writeType(buf, v.ExprType())
	case *ConstructorRef:
		buf.WriteByte(tagCtorRef)
		writeQName(buf, v.Name)
		writeQName(buf, v.Resolved)
		writePos(buf, v.Pos)
		writeType(buf, v.ExprType())
	case *ArrayLit:
		buf.WriteByte(tagArrayLit)
		writeU32(buf, uint32(len(v.Elems)))
		for _, el := range v.Elems {
			writeExpr(buf, el)
		}
		writePos(buf, v.Pos)
		writeType(buf, v.ExprType())
	case *FuncLit:
		buf.WriteByte(tagFuncLit)
		writeU32(buf, uint32(len(v.Params)))
		for _, p := range v.Params {
			writeString(buf, p.Name)
			writeOptTypeExpr(buf, p.Annotation)
			writePos(buf, p.Pos)
		}
		writeOptTypeExpr(buf, v.ReturnType)
		writeExpr(buf, v.Body)
		writePos(buf, v.Pos)
		writeType(buf, v.ExprType())
	case *App:
		buf.WriteByte(tagApp)
		writeExpr(buf, v.Callee)
		writeU32(buf, uint32(len(v.Args)))
		for _, a := range v.Args {
			writeExpr(buf, a)
		}
		writePos(buf, v.Pos)
		writeType(buf, v.ExprType())
	case *If:
		buf.WriteByte(tagIf)
		writeExpr(buf, v.Cond)
		writeExpr(buf, v.Then)
		writeExpr(buf, v.Else)
		writePos(buf, v.Pos)
		writeType(buf, v.ExprType())
	default:
		panic(fmt.Sprintf("ast: unhandled Expr %T", e))
	}
}

func readExpr(r *bytes.Reader) (Expr, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagLiteral:
		kind, err := readU32(r)
		if err != nil {
			return nil, err
		}
		val, err := readString(r)
		if err != nil {
			return nil, err
		}
		pos, err := readPos(r)
		if err != nil {
			return nil, err
		}
		typ, err := readType(r)
		if err != nil {
			return nil, err
		}
		l := &Literal{Kind: LiteralKind(kind), Value: val, Pos: pos}
		l.SetExprType(typ)
		return l, nil
	case tagVar:
		name, err := readQName(r)
		if err != nil {
			return nil, err
		}
		resolved, err := readQName(r)
		if err != nil {
			return nil, err
		}
		pos, err := readPos(r)
		if err != nil {
			return nil, err
		}
		typ, err := readType(r)
		if err != nil {
			return nil, err
		}
		v := &Var{Name: name, Resolved: resolved, Pos: pos}
		v.SetExprType(typ)
		return v, nil
	case tagCtorRef:
		name, err := readQName(r)
		if err != nil {
			return nil, err
		}
		resolved, err := readQName(r)
		if err != nil {
			return nil, err
		}
		pos, err := readPos(r)
		if err != nil {
			return nil, err
		}
		typ, err := readType(r)
		if err != nil {
			return nil, err
		}
		c := &ConstructorRef{Name: name, Resolved: resolved, Pos: pos}
		c.SetExprType(typ)
		return c, nil
	case tagArrayLit:
		n, err := readU32(r)
		if err != nil {
			return nil, err
		}
		elems := make([]Expr, n)
		for i := range elems {
			el, err := readExpr(r)
			if err != nil {
				return nil, err
			}
			elems[i] = el
		}
		pos, err := readPos(r)
		if err != nil {
			return nil, err
		}
		typ, err := readType(r)
		if err != nil {
			return nil, err
		}
		a := &ArrayLit{Elems: elems, Pos: pos}
		a.SetExprType(typ)
		return a, nil
	case tagFuncLit:
		n, err := readU32(r)
		if err != nil {
			return nil, err
		}
		params := make([]FuncParam, n)
		for i := range params {
			name, err := readString(r)
			if err != nil {
				return nil, err
			}
			ann, err := readOptTypeExpr(r)
			if err != nil {
				return nil, err
			}
			pos, err := readPos(r)
			if err != nil {
				return nil, err
			}
			params[i] = FuncParam{Name: name, Annotation: ann, Pos: pos}
		}
		ret, err := readOptTypeExpr(r)
		if err != nil {
			return nil, err
		}
		body, err := readExpr(r)
		if err != nil {
			return nil, err
		}
		pos, err := readPos(r)
		if err != nil {
			return nil, err
		}
		typ, err := readType(r)
		if err != nil {
			return nil, err
		}
		f := &FuncLit{Params: params, ReturnType: ret, Body: body, Pos: pos}
		f.SetExprType(typ)
		return f, nil
	case tagApp:
		callee, err := readExpr(r)
		if err != nil {
			return nil, err
		}
		n, err := readU32(r)
		if err != nil {
			return nil, err
		}
		args := make([]Expr, n)
		for i := range args {
			a, err := readExpr(r)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		pos, err := readPos(r)
		if err != nil {
			return nil, err
		}
		typ, err := readType(r)
		if err != nil {
			return nil, err
		}
		app := &App{Callee: callee, Args: args, Pos: pos}
		app.SetExprType(typ)
		return app, nil
	case tagIf:
		cond, err := readExpr(r)
		if err != nil {
			return nil, err
		}
		then, err := readExpr(r)
		if err != nil {
			return nil, err
		}
		els, err := readExpr(r)
		if err != nil {
			return nil, err
		}
		pos, err := readPos(r)
		if err != nil {
			return nil, err
		}
		typ, err := readType(r)
		if err != nil {
			return nil, err
		}
		ifE := &If{Cond: cond, Then: then, Else: els, Pos: pos}
		ifE.SetExprType(typ)
		return ifE, nil
	default:
		return nil, fmt.Errorf("ast: unknown expr tag %d", tag)
	}
}
