package encoding

import "strings"

// Name is a hierarchical NDN name.
type Name []Component

var LOCALHOST = NewGenericComponent("localhost")
var LOCALHOP = NewGenericComponent("localhop")

func (n Name) String() string {
	sb := strings.Builder{}
	for i, c := range n {
		sb.WriteByte('/')
		sz := c.WriteTo(&sb)
		if i == len(n)-1 && sz == 0 {
			sb.WriteByte('/')
		}
	}
	if sb.Len() == 0 {
		return "/"
	}
	return sb.String()
}

// EncodingLength computes a Name's length after encoding **excluding** the TL prefix.
func (n Name) EncodingLength() int {
	ret := 0
	for _, c := range n {
		ret += c.EncodingLength()
	}
	return ret
}

// EncodeInto encodes a Name into a buffer **excluding** the TL prefix.
func (n Name) EncodeInto(buf []byte) int {
	pos := 0
	for _, c := range n {
		pos += c.EncodeInto(buf[pos:])
	}
	return pos
}

// Clone returns a deep copy of a Name
func (n Name) Clone() Name {
	if n == nil {
		return nil
	}
	ret := make(Name, len(n))
	for i, c := range n {
		ret[i] = c.Clone()
	}
	return ret
}

// At returns the ith component of a Name.
// If i is out of range, a zero component is returned.
// Negative values start from the end.
func (n Name) At(i int) Component {
	if i < -len(n) || i >= len(n) {
		return Component{}
	} else if i < 0 {
		return n[len(n)+i]
	}
	return n[i]
}

// Prefix returns a name prefix with the first i components.
// If i is negative, i components are removed from the end.
// The returned name is not a deep copy.
func (n Name) Prefix(i int) Name {
	if i < 0 {
		i = len(n) + i
	}
	if i <= 0 {
		return Name{}
	}
	if i >= len(n) {
		return n
	}
	return n[:i]
}

// Append appends one or more components to a copy of the name.
// The receiver is never modified.
func (n Name) Append(rest ...Component) Name {
	ret := make(Name, len(n), len(n)+len(rest))
	copy(ret, n)
	return append(ret, rest...)
}

func (n Name) Compare(rhs Name) int {
	for i := 0; i < min(len(n), len(rhs)); i++ {
		if ret := n[i].Compare(rhs[i]); ret != 0 {
			return ret
		}
	}
	switch {
	case len(n) < len(rhs):
		return -1
	case len(n) > len(rhs):
		return 1
	default:
		return 0
	}
}

func (n Name) Equal(rhs Name) bool {
	if len(n) != len(rhs) {
		return false
	}
	for i := range n {
		if !n[i].Equal(rhs[i]) {
			return false
		}
	}
	return true
}

// IsPrefix returns true if n is a prefix of rhs.
func (n Name) IsPrefix(rhs Name) bool {
	if len(n) > len(rhs) {
		return false
	}
	for i := range n {
		if !n[i].Equal(rhs[i]) {
			return false
		}
	}
	return true
}

// Hash returns the hash of the name
func (n Name) Hash() uint64 {
	xx := getHasher(n.EncodingLength())
	defer putHasher(xx)
	n.EncodeInto(xx.buffer)
	xx.hash.Write(xx.buffer)
	return xx.hash.Sum64()
}

// NameFromStr parses a URI string into a Name
func NameFromStr(s string) (Name, error) {
	strs := strings.Split(s, "/")
	// Removing leading and trailing empty strings given by /
	if strs[0] == "" {
		strs = strs[1:]
	}
	if len(strs) > 0 && strs[len(strs)-1] == "" {
		strs = strs[:len(strs)-1]
	}
	ret := make(Name, len(strs))
	for i, str := range strs {
		if err := componentFromStrInto(str, &ret[i]); err != nil {
			return nil, err
		}
	}
	return ret, nil
}
