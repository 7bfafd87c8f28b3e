package encoding_test

import (
	"testing"

	enc "github.com/named-data/kite/std/encoding"
	"github.com/stretchr/testify/require"
)

func TestComponentFromStr(t *testing.T) {
	comp, err := enc.ComponentFromStr("aa")
	require.NoError(t, err)
	require.Equal(t, enc.Component{Typ: enc.TypeGenericNameComponent, Val: []byte("aa")}, comp)

	comp, err = enc.ComponentFromStr("a%20a")
	require.NoError(t, err)
	require.Equal(t, []byte("a a"), comp.Val)

	comp, err = enc.ComponentFromStr("v=10")
	require.NoError(t, err)
	require.Equal(t, enc.Component{Typ: enc.TypeVersionNameComponent, Val: []byte{0x0a}}, comp)
	require.True(t, comp.IsVersion())
	require.Equal(t, uint64(10), comp.NumberVal())

	comp, err = enc.ComponentFromStr("sha256digest=0a0b")
	require.NoError(t, err)
	require.Equal(t, enc.TypeImplicitSha256DigestComponent, comp.Typ)
	require.Equal(t, "sha256digest=0a0b", comp.String())

	_, err = enc.ComponentFromStr("a=b=c")
	require.IsType(t, enc.ErrFormat{}, err)
	_, err = enc.ComponentFromStr("nope=1")
	require.IsType(t, enc.ErrFormat{}, err)
	_, err = enc.ComponentFromStr("/")
	require.IsType(t, enc.ErrFormat{}, err)
}

func TestComponentString(t *testing.T) {
	c := enc.Component{Typ: enc.TypeGenericNameComponent, Val: []byte("foo%bar")}
	require.Equal(t, "foo%25bar", c.String())

	c = enc.Component{Typ: 200, Val: []byte("x")}
	require.Equal(t, "200=x", c.String())

	require.Equal(t, "seq=7", enc.NewSequenceNumComponent(7).String())
}

func TestNameFromStr(t *testing.T) {
	name, err := enc.NameFromStr("/localhost/nfd/strategy/trace-forwarding/v=1")
	require.NoError(t, err)
	require.Equal(t, 5, len(name))
	require.True(t, name[0].Equal(enc.LOCALHOST))
	require.Equal(t, "/localhost/nfd/strategy/trace-forwarding/v=1", name.String())

	root, err := enc.NameFromStr("/")
	require.NoError(t, err)
	require.Equal(t, 0, len(root))
	require.Equal(t, "/", root.String())

	_, err = enc.NameFromStr("/a/b=c=d")
	require.Error(t, err)
}

func TestNamePrefixAndCompare(t *testing.T) {
	a, _ := enc.NameFromStr("/kite/mobile")
	b, _ := enc.NameFromStr("/kite/mobile/seq=1")
	c, _ := enc.NameFromStr("/kite/rv")

	require.True(t, a.IsPrefix(b))
	require.False(t, b.IsPrefix(a))
	require.False(t, c.IsPrefix(b))
	require.True(t, enc.Name{}.IsPrefix(a))

	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))
	require.Equal(t, 0, a.Compare(a.Clone()))

	require.True(t, b.Prefix(2).Equal(a))
	require.True(t, b.Prefix(-1).Equal(a))
	require.Equal(t, 0, len(b.Prefix(0)))
	require.True(t, b.At(-1).Equal(enc.NewSequenceNumComponent(1)))
	require.Equal(t, enc.Component{}, b.At(10))
}

func TestNameAppendDoesNotAlias(t *testing.T) {
	base, _ := enc.NameFromStr("/a/b")
	x := base.Append(enc.NewGenericComponent("x"))
	y := base.Append(enc.NewGenericComponent("y"))
	require.Equal(t, "/a/b/x", x.String())
	require.Equal(t, "/a/b/y", y.String())
	require.Equal(t, "/a/b", base.String())
}

func TestNameHash(t *testing.T) {
	a, _ := enc.NameFromStr("/kite/mobile/seq=1")
	b, _ := enc.NameFromStr("/kite/mobile/seq=1")
	c, _ := enc.NameFromStr("/kite/mobile/seq=2")

	require.Equal(t, a.Hash(), b.Hash())
	require.NotEqual(t, a.Hash(), c.Hash())
}
