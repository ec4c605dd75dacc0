package pool

import "sync"

var float32SlicePool = sync.Pool{
	New: func() any { return &[]float32{} },
}

// GetFloat32Slice retrieves a zeroed float32 slice of length size from the pool.
//
// The caller must call the returned cleanup function to return the slice to the pool.
//
// Example:
//
//	block, cleanup := pool.GetFloat32Slice(blockValues)
//	defer cleanup()
func GetFloat32Slice(size int) ([]float32, func()) {
	ptr, _ := float32SlicePool.Get().(*[]float32)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]float32, size)
	} else {
		slice = slice[:size]
		clear(slice)
	}
	*ptr = slice

	return slice, func() { float32SlicePool.Put(ptr) }
}
