package encoding

import (
	"strconv"
	"strings"
)

var hexUpper = "0123456789ABCDEF"
var hexLower = "0123456789abcdef"

type compValFmt interface {
	WriteTo(val []byte, sb *strings.Builder) int
	FromString(s string) ([]byte, error)
}

type compValFmtText struct{}
type compValFmtDec struct{}
type compValFmtHex struct{}

// WriteTo percent-encodes every byte that is not legal in a component.
func (compValFmtText) WriteTo(val []byte, sb *strings.Builder) int {
	size := 0
	for _, b := range val {
		if isLegalCompText(b) {
			sb.WriteByte(b)
			size++
		} else {
			sb.WriteByte('%')
			sb.WriteByte(hexUpper[b>>4])
			sb.WriteByte(hexUpper[b&0x0F])
			size += 3
		}
	}
	return size
}

func (compValFmtText) FromString(valStr string) ([]byte, error) {
	if !strings.ContainsAny(valStr, "%=/\\") {
		return []byte(valStr), nil
	}

	val := make([]byte, 0, len(valStr))
	for i := 0; i < len(valStr); {
		switch c := valStr[i]; {
		case c == '%' && i+2 < len(valStr):
			v, err := strconv.ParseUint(valStr[i+1:i+3], 16, 8)
			if err != nil {
				return nil, ErrFormat{"invalid component value: " + valStr}
			}
			val = append(val, byte(v))
			i += 3
		case c == '%' || c == '=' || c == '/' || c == '\\':
			return nil, ErrFormat{"invalid component value: " + valStr}
		default:
			// Gracefully accept other characters
			val = append(val, c)
			i++
		}
	}
	return val, nil
}

func (compValFmtDec) WriteTo(val []byte, sb *strings.Builder) int {
	x := uint64(0)
	for _, b := range val {
		x = (x << 8) | uint64(b)
	}
	vstr := strconv.FormatUint(x, 10)
	sb.WriteString(vstr)
	return len(vstr)
}

func (compValFmtDec) FromString(s string) ([]byte, error) {
	x, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, ErrFormat{"invalid decimal component value: " + s}
	}
	return Nat(x).Bytes(), nil
}

func (compValFmtHex) WriteTo(val []byte, sb *strings.Builder) int {
	for _, b := range val {
		sb.WriteByte(hexLower[b>>4])
		sb.WriteByte(hexLower[b&0x0F])
	}
	return len(val) * 2
}

func (compValFmtHex) FromString(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, ErrFormat{"invalid hexadecimal component value: " + s}
	}
	val := make([]byte, len(s)/2)
	for i := range val {
		b, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, ErrFormat{"invalid hexadecimal component value: " + s}
		}
		val[i] = byte(b)
	}
	return val, nil
}

type componentConvention struct {
	typ  TLNum
	name string
	vFmt compValFmt
}

var compConvByType = map[TLNum]*componentConvention{
	TypeImplicitSha256DigestComponent:   {TypeImplicitSha256DigestComponent, "sha256digest", compValFmtHex{}},
	TypeParametersSha256DigestComponent: {TypeParametersSha256DigestComponent, "params-sha256", compValFmtHex{}},
	TypeSegmentNameComponent:            {TypeSegmentNameComponent, "seg", compValFmtDec{}},
	TypeByteOffsetNameComponent:         {TypeByteOffsetNameComponent, "off", compValFmtDec{}},
	TypeVersionNameComponent:            {TypeVersionNameComponent, "v", compValFmtDec{}},
	TypeTimestampNameComponent:          {TypeTimestampNameComponent, "t", compValFmtDec{}},
	TypeSequenceNumNameComponent:        {TypeSequenceNumNameComponent, "seq", compValFmtDec{}},
}

var compConvByStr = func() map[string]*componentConvention {
	m := make(map[string]*componentConvention, len(compConvByType))
	for _, c := range compConvByType {
		m[c.name] = c
	}
	return m
}()

func isAlphabet(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func isLegalCompText(b byte) bool {
	return isAlphabet(b) || ('0' <= b && b <= '9') || b == '-' || b == '_' || b == '.' || b == '~'
}
