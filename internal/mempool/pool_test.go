package mempool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"small size gets minimum", 1, 1024},
		{"exactly 1024", 1024, 1024},
		{"just over 1024", 1025, 2048},
		{"large size", 10000, 10240},
		{"zero size", 0, 1024},
		{"negative size", -1, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sizeClass(tt.input))
		})
	}
}

func TestGetReturnsZeroedBuffers(t *testing.T) {
	f := GetFloat32(300)
	require.Len(t, f, 300)
	for i := range f {
		f[i] = 7
	}
	PutFloat32(f)

	again := GetFloat32(300)
	for _, v := range again {
		require.Zero(t, v)
	}
	PutFloat32(again)

	b := GetUint8(2000)
	require.Len(t, b, 2000)
	assert.GreaterOrEqual(t, cap(b), 2048)
	b[0] = 255
	PutUint8(b)
	assert.Zero(t, GetUint8(2000)[0])

	l := GetInt32(5)
	l[4] = -1
	PutInt32(l)
	assert.Equal(t, []int32{0, 0, 0, 0, 0}, GetInt32(5))
}

func TestPutNil(t *testing.T) {
	assert.NotPanics(t, func() {
		PutFloat32(nil)
		PutUint8(nil)
		PutInt32(nil)
	})
}

func TestConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for range 50 {
				buf := GetInt32(512 + n*100)
				buf[len(buf)-1] = int32(n)
				PutInt32(buf)
			}
		}(i)
	}
	wg.Wait()
}
