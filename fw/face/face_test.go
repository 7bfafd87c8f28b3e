package face_test

import (
	"testing"

	"github.com/named-data/kite/fw/defn"
	"github.com/named-data/kite/fw/face"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableAdd(t *testing.T) {
	tab := face.NewTable()
	a := face.MakeMemoryFace(defn.Local, defn.PointToPoint)
	b := face.MakeNullFace()

	assert.Equal(t, uint64(1), tab.Add(a))
	assert.Equal(t, uint64(2), tab.Add(b))
	assert.Equal(t, uint64(1), a.FaceID())
	assert.Equal(t, face.Face(b), tab.Get(2))
	assert.Nil(t, tab.Get(3))
}

func TestTableAddWithID(t *testing.T) {
	tab := face.NewTable()
	require.NoError(t, tab.AddWithID(10, face.MakeNullFace()))
	assert.Error(t, tab.AddWithID(10, face.MakeNullFace()))
	assert.Error(t, tab.AddWithID(0, face.MakeNullFace()))

	// automatic IDs continue after explicit ones
	assert.Equal(t, uint64(11), tab.Add(face.MakeNullFace()))
}

func TestTableGetAllRemove(t *testing.T) {
	tab := face.NewTable()
	require.NoError(t, tab.AddWithID(5, face.MakeNullFace()))
	require.NoError(t, tab.AddWithID(2, face.MakeNullFace()))
	require.NoError(t, tab.AddWithID(9, face.MakeNullFace()))

	ids := []uint64{}
	for _, f := range tab.GetAll() {
		ids = append(ids, f.FaceID())
	}
	assert.Equal(t, []uint64{2, 5, 9}, ids)

	tab.Remove(5)
	tab.Remove(42)
	assert.Nil(t, tab.Get(5))
	assert.Len(t, tab.GetAll(), 2)
}

func TestMemoryFace(t *testing.T) {
	f := face.MakeMemoryFace(defn.NonLocal, defn.AdHoc)
	assert.Equal(t, defn.NonLocal, f.Scope())
	assert.Equal(t, defn.AdHoc, f.LinkType())

	f.SendPacket(face.OutPkt{InFace: 3})
	f.SendPacket(face.OutPkt{InFace: 4})
	sent := f.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, uint64(3), sent[0].InFace)

	// returned slice is a copy
	sent[0].InFace = 99
	assert.Equal(t, uint64(3), f.Sent()[0].InFace)

	f.Reset()
	assert.Empty(t, f.Sent())
	assert.Contains(t, f.String(), "memory-face")
}
