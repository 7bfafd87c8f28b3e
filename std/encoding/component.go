package encoding

import (
	"bytes"
	"strconv"
	"strings"
)

const (
	TypeInvalidComponent                TLNum = 0x00
	TypeImplicitSha256DigestComponent   TLNum = 0x01
	TypeParametersSha256DigestComponent TLNum = 0x02
	TypeGenericNameComponent            TLNum = 0x08
	TypeKeywordNameComponent            TLNum = 0x20
	TypeSegmentNameComponent            TLNum = 0x32
	TypeByteOffsetNameComponent         TLNum = 0x34
	TypeVersionNameComponent            TLNum = 0x36
	TypeTimestampNameComponent          TLNum = 0x38
	TypeSequenceNumNameComponent        TLNum = 0x3a
)

// Component is a single typed name component.
type Component struct {
	Typ TLNum
	Val []byte
}

func NewStringComponent(typ TLNum, val string) Component {
	return Component{Typ: typ, Val: []byte(val)}
}

// NewGenericComponent creates a generic (type 8) component from a string.
func NewGenericComponent(val string) Component {
	return NewStringComponent(TypeGenericNameComponent, val)
}

func NewNumberComponent(typ TLNum, val uint64) Component {
	return Component{Typ: typ, Val: Nat(val).Bytes()}
}

func NewVersionComponent(v uint64) Component {
	return NewNumberComponent(TypeVersionNameComponent, v)
}

func NewSegmentComponent(seg uint64) Component {
	return NewNumberComponent(TypeSegmentNameComponent, seg)
}

func NewSequenceNumComponent(seq uint64) Component {
	return NewNumberComponent(TypeSequenceNumNameComponent, seq)
}

func (c Component) Clone() Component {
	return Component{
		Typ: c.Typ,
		Val: append([]byte(nil), c.Val...),
	}
}

func (c Component) String() string {
	sb := strings.Builder{}
	c.WriteTo(&sb)
	return sb.String()
}

// WriteTo writes the URI form of the component and returns the number of bytes written.
func (c Component) WriteTo(sb *strings.Builder) int {
	size := 0

	vFmt := compValFmt(compValFmtText{})
	if conv, ok := compConvByType[c.Typ]; ok {
		vFmt = conv.vFmt
		sb.WriteString(conv.name)
		sb.WriteByte('=')
		size += len(conv.name) + 1
	} else if c.Typ != TypeGenericNameComponent {
		typ := strconv.FormatUint(uint64(c.Typ), 10)
		sb.WriteString(typ)
		sb.WriteByte('=')
		size += len(typ) + 1
	}

	size += vFmt.WriteTo(c.Val, sb)
	return size
}

func (c Component) EncodingLength() int {
	l := len(c.Val)
	return c.Typ.EncodingLength() + TLNum(l).EncodingLength() + l
}

func (c Component) EncodeInto(buf []byte) int {
	p1 := c.Typ.EncodeInto(buf)
	p2 := TLNum(len(c.Val)).EncodeInto(buf[p1:])
	copy(buf[p1+p2:], c.Val)
	return p1 + p2 + len(c.Val)
}

// Bytes returns the TLV encoding of the component.
func (c Component) Bytes() []byte {
	buf := make([]byte, c.EncodingLength())
	c.EncodeInto(buf)
	return buf
}

// Compare orders components by type, then length, then value (NDN canonical order).
func (c Component) Compare(rhs Component) int {
	if c.Typ != rhs.Typ {
		if c.Typ < rhs.Typ {
			return -1
		}
		return 1
	}
	if len(c.Val) != len(rhs.Val) {
		if len(c.Val) < len(rhs.Val) {
			return -1
		}
		return 1
	}
	return bytes.Compare(c.Val, rhs.Val)
}

func (c Component) Equal(rhs Component) bool {
	return c.Typ == rhs.Typ && bytes.Equal(c.Val, rhs.Val)
}

// NumberVal returns the value of the component as a number
func (c Component) NumberVal() uint64 {
	ret := uint64(0)
	for _, v := range c.Val {
		ret = (ret << 8) | uint64(v)
	}
	return ret
}

// IsVersion reports whether the component is a version component.
func (c Component) IsVersion() bool {
	return c.Typ == TypeVersionNameComponent
}

// Hash returns the hash of the component
func (c Component) Hash() uint64 {
	xx := getHasher(c.EncodingLength())
	defer putHasher(xx)
	c.EncodeInto(xx.buffer)
	xx.hash.Write(xx.buffer)
	return xx.hash.Sum64()
}

// ComponentFromStr parses the URI form of a single component.
func ComponentFromStr(s string) (Component, error) {
	ret := Component{}
	if err := componentFromStrInto(s, &ret); err != nil {
		return Component{}, err
	}
	return ret, nil
}

func componentFromStrInto(s string, ret *Component) error {
	typStr, valStr, hasEq := strings.Cut(s, "=")
	if !hasEq {
		valStr = s
	} else if strings.Contains(valStr, "=") {
		return ErrFormat{"too many '=' in component: " + s}
	}

	ret.Typ = TypeGenericNameComponent
	vFmt := compValFmt(compValFmtText{})
	if hasEq {
		var err error
		ret.Typ, vFmt, err = parseCompTypeFromStr(typStr)
		if err != nil {
			return err
		}
		if ret.Typ <= TypeInvalidComponent || ret.Typ > 0xffff {
			return ErrFormat{"invalid component type: " + typStr}
		}
	}

	val, err := vFmt.FromString(valStr)
	if err != nil {
		return err
	}
	ret.Val = val
	return nil
}

func parseCompTypeFromStr(s string) (TLNum, compValFmt, error) {
	if len(s) == 0 {
		return 0, nil, ErrFormat{"empty component type"}
	}
	if isAlphabet(s[0]) {
		if conv, ok := compConvByStr[s]; ok {
			return conv.typ, conv.vFmt, nil
		}
		return 0, nil, ErrFormat{"unknown component type: " + s}
	}
	typ, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, nil, ErrFormat{"invalid component type: " + s}
	}
	return TLNum(typ), compValFmtText{}, nil
}
