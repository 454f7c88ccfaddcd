// Package mempool keeps sized pools of scratch buffers for the per-frame image
// passes (depth crops, binary masks, label images) so repeated frames do not
// churn the allocator.
package mempool

import (
	"sync"
)

var (
	float32Pools sync.Map // key: size class (int), value: *sync.Pool
	uint8Pools   sync.Map
	int32Pools   sync.Map
)

// sizeClass rounds n up to the next multiple of 1024, with 1024 as the floor.
func sizeClass(n int) int {
	if n <= 1024 {
		return 1024
	}
	const step = 1024
	r := (n + step - 1) / step
	return r * step
}

func poolFor[T any](pools *sync.Map, cls int) *sync.Pool {
	pAny, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]T, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return nil
	}
	return p
}

func get[T any](pools *sync.Map, n int) []T {
	cls := sizeClass(n)
	p := poolFor[T](pools, cls)
	if p == nil {
		return make([]T, cls)[:n]
	}
	buf, ok := p.Get().([]T)
	if !ok || cap(buf) < cls {
		buf = make([]T, cls)
	}
	buf = buf[:n]
	var zero T
	for i := range buf {
		buf[i] = zero
	}
	return buf
}

func put[T any](pools *sync.Map, buf []T) {
	if buf == nil {
		return
	}
	p := poolFor[T](pools, sizeClass(cap(buf)))
	if p == nil {
		return
	}
	p.Put(buf[:cap(buf)]) //nolint:staticcheck
}

// GetFloat32 returns a zeroed []float32 of length n. Return it with PutFloat32.
func GetFloat32(n int) []float32 { return get[float32](&float32Pools, n) }

// PutFloat32 returns a buffer to the pool. Nil is ignored.
func PutFloat32(buf []float32) { put(&float32Pools, buf) }

// GetUint8 returns a zeroed []uint8 of length n. Return it with PutUint8.
func GetUint8(n int) []uint8 { return get[uint8](&uint8Pools, n) }

// PutUint8 returns a buffer to the pool. Nil is ignored.
func PutUint8(buf []uint8) { put(&uint8Pools, buf) }

// GetInt32 returns a zeroed []int32 of length n. Return it with PutInt32.
func GetInt32(n int) []int32 { return get[int32](&int32Pools, n) }

// PutInt32 returns a buffer to the pool. Nil is ignored.
func PutInt32(buf []int32) { put(&int32Pools, buf) }
