// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package gifload

import "sync"

// Allocator supplies and reclaims the raster buffer Load uses during
// extraction. It is the Go-idiomatic rendition of the original C
// source's GIF_MGET macro (Design Note "Allocator hook as policy
// object"): a single hook called at most twice per Load call, once
// to obtain a buffer, once to release it.
//
// The original C source allocates the raster and its 4096-entry LZW
// dictionary scratch as one block, recovering the dictionary via
// pointer arithmetic behind the raster pointer. Design Note
// "Scratch-before-pointer trick" explicitly permits two separate
// allocations in a target language instead; this module takes that
// option, so Allocator governs only the raster. The dictionary
// scratch is a fixed 4096-entry table with no caller-visible sizing
// decision to make, so it is pooled internally (see dictPool in
// lzw.go) rather than exposed through this hook.
type Allocator interface {
	// Get returns a buffer of at least size bytes; its initial
	// contents are unspecified.
	Get(size int) []byte
	// Put releases a buffer previously returned by Get. Load always
	// passes back exactly the slice Get returned.
	Put(buf []byte)
}

// pooledAllocator is the default Allocator: a sync.Pool of reusable
// byte slices, grown on demand and truncated back to zero length
// before being returned to the pool.
type pooledAllocator struct {
	pool sync.Pool
}

var defaultAllocator Allocator = newPooledAllocator()

func newPooledAllocator() *pooledAllocator {
	return &pooledAllocator{
		pool: sync.Pool{
			New: func() any {
				return make([]byte, 0, 4096)
			},
		},
	}
}

func (p *pooledAllocator) Get(size int) []byte {
	buf := p.pool.Get().([]byte)
	if cap(buf) < size {
		return make([]byte, size)
	}
	return buf[:size]
}

func (p *pooledAllocator) Put(buf []byte) {
	p.pool.Put(buf[:0])
}
