package iface

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/maloquacious/semver"

	"github.com/dittolang/ditto/internal/types"
)

// magic identifies a .ast-exports file; formatVersion is the
// version integer stamped at offset 4 (spec.md §6). A mismatched major
// version is a fatal "clean your build directory" error.
var magic = [4]byte{'D', 'T', 'I', 'F'}

var formatVersion = semver.Version{Major: 1, Minor: 0, Patch: 0}

func formatVersionInt() uint32 {
	return uint32(formatVersion.Major)<<16 | uint32(formatVersion.Minor)<<8 | uint32(formatVersion.Patch)
}

// VersionError reports a magic or format-version mismatch on decode.
type VersionError struct {
	Reason string
	Got    uint32
	Want   uint32
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("iface: %s (got format version %06x, want %06x) — clean the build directory", e.Reason, e.Got, e.Want)
}

// tags for the tagged-variant Type encoding.
const (
	tagTVar  byte = 0
	tagTCon  byte = 1
	tagTFunc byte = 2
)

// Encode serializes an ExportInterface as a tag-length-value binary
// blob: a 4-byte magic, a format-version integer, the module name, then
// a count-prefixed list each of value exports, type exports, and
// constructor exports, in that order. The interface is normalized before encoding so
// semantically identical interfaces always produce identical bytes.
func Encode(w io.Writer, e *ExportInterface) error {
	norm := *e
	norm.Normalize()

	var buf bytes.Buffer
	buf.Write(magic[:])
	writeU32(&buf, formatVersionInt())
	writeString(&buf, norm.Module)

	writeU32(&buf, uint32(len(norm.Values)))
	for _, v := range norm.Values {
		writeString(&buf, v.Name)
		writeScheme(&buf, v.Scheme)
	}

	writeU32(&buf, uint32(len(norm.Types)))
	for _, t := range norm.Types {
		writeString(&buf, t.Name)
		writeU32(&buf, uint32(t.Arity))
	}

	writeU32(&buf, uint32(len(norm.Constructors)))
	for _, c := range norm.Constructors {
		writeString(&buf, c.Name)
		writeString(&buf, c.TypeName)
		writeU32(&buf, uint32(len(c.Args)))
		for _, a := range c.Args {
			writeType(&buf, a)
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// Decode reads an ExportInterface previously written by Encode.
func Decode(r io.Reader) (*ExportInterface, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	br := bytes.NewReader(data)

	var gotMagic [4]byte
	if _, err := io.ReadFull(br, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("iface: reading magic: %w", err)
	}
	if gotMagic != magic {
		return nil, &VersionError{Reason: "bad magic"}
	}
	gotVersion, err := readU32(br)
	if err != nil {
		return nil, err
	}
	if gotVersion>>16 != uint32(formatVersion.Major) {
		return nil, &VersionError{Reason: "incompatible major version", Got: gotVersion, Want: formatVersionInt()}
	}

	module, err := readString(br)
	if err != nil {
		return nil, err
	}
	e := New(module)

	nValues, err := readU32(br)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nValues; i++ {
		name, err := readString(br)
		if err != nil {
			return nil, err
		}
		sch, err := readScheme(br)
		if err != nil {
			return nil, err
		}
		e.AddValue(name, sch)
	}

	nTypes, err := readU32(br)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nTypes; i++ {
		name, err := readString(br)
		if err != nil {
			return nil, err
		}
		arity, err := readU32(br)
		if err != nil {
			return nil, err
		}
		e.AddType(name, int(arity))
	}

	nCtors, err := readU32(br)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nCtors; i++ {
		name, err := readString(br)
		if err != nil {
			return nil, err
		}
		typeName, err := readString(br)
		if err != nil {
			return nil, err
		}
		nArgs, err := readU32(br)
		if err != nil {
			return nil, err
		}
		args := make([]types.Type, nArgs)
		for j := uint32(0); j < nArgs; j++ {
			t, err := readType(br)
			if err != nil {
				return nil, err
			}
			args[j] = t
		}
		e.AddConstructor(name, typeName, args)
	}

	return e, nil
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

func writeScheme(buf *bytes.Buffer, s *types.Scheme) {
	writeU32(buf, uint32(len(s.Vars)))
	for _, v := range s.Vars {
		writeString(buf, v)
	}
	writeType(buf, s.Body)
}

func readScheme(r *bytes.Reader) (*types.Scheme, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	vars := make([]string, n)
	for i := range vars {
		v, err := readString(r)
		if err != nil {
			return nil, err
		}
		vars[i] = v
	}
	body, err := readType(r)
	if err != nil {
		return nil, err
	}
	return &types.Scheme{Vars: vars, Body: body}, nil
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
		panic(fmt.Sprintf("iface: unhandled Type %T", t))
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
		return nil, fmt.Errorf("iface: unknown type tag %d", tag)
	}
}
