package encoding

import (
	"hash"

	"github.com/cespare/xxhash"
	"github.com/named-data/kite/std/types/sync_pool"
)

type hashPoolObj struct {
	hash   hash.Hash64
	buffer []byte
}

var xxHashPool = sync_pool.New(
	func() *hashPoolObj { return &hashPoolObj{hash: xxhash.New()} },
	func(obj *hashPoolObj) { obj.hash.Reset() },
)

// getHasher returns a reset hasher with a scratch buffer of at least size bytes.
func getHasher(size int) *hashPoolObj {
	obj := xxHashPool.Get()
	if cap(obj.buffer) < size {
		obj.buffer = make([]byte, size)
	}
	obj.buffer = obj.buffer[:size]
	return obj
}

func putHasher(obj *hashPoolObj) {
	xxHashPool.Put(obj)
}
