// Package staging_belt implements the upload coordinator shared by every pass of a frame: a ring of host-mapped
// staging chunks that CPU data is copied into, with a buffer-to-buffer copy recorded into the caller's encoder.
package staging_belt

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
)

// CopyAlignment is the required alignment of copy sizes and offsets.
const CopyAlignment = 4

// MapAlignment is the alignment of sub-allocations inside a chunk.
const MapAlignment = 8

// DefaultChunkSize is the size of a regular staging chunk. Writes larger than this get a dedicated chunk.
const DefaultChunkSize = 1 << 20

type chunk struct {
	buffer gpu.Buffer
	size   uint64
	offset uint64
}

// StagingBelt is a single-writer upload ring. Write, Finish and Recall must be called from one goroutine; only the
// map callbacks fired by Device.Poll touch the belt concurrently, and they only append to the returned list.
//
// Frame usage:
//  1. Recall at the start of the frame, after the previous frame was submitted.
//  2. Write any number of times while recording the upload encoder.
//  3. Finish before the upload encoder is submitted.
type StagingBelt struct {
	device    gpu.Device
	chunkSize uint64

	active []*chunk
	closed []*chunk
	free   []*chunk

	mu       sync.Mutex
	returned []*chunk

	// allocated counts every chunk ever created.
	allocated int
}

// NewStagingBelt creates a staging belt allocating chunks of at least chunkSize bytes.
//
// Parameters:
//   - device: the device used to create staging buffers
//   - chunkSize: the minimum chunk size in bytes (DefaultChunkSize if 0)
//
// Returns:
//   - *StagingBelt: the created belt
func NewStagingBelt(device gpu.Device, chunkSize uint64) *StagingBelt {
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	return &StagingBelt{
		device:    device,
		chunkSize: common.AlignUp(chunkSize, MapAlignment),
	}
}

// Write copies data into staging memory and records a copy into target at offset.
// The data length must be a non-zero multiple of CopyAlignment.
//
// Parameters:
//   - encoder: the encoder the copy is recorded into
//   - target: the destination buffer
//   - offset: the byte offset into target
//   - data: the bytes to upload
func (b *StagingBelt) Write(encoder gpu.CommandEncoder, target gpu.Buffer, offset uint64, data []byte) {
	size := uint64(len(data))
	if size == 0 || size%CopyAlignment != 0 || offset%CopyAlignment != 0 {
		panic(fmt.Sprintf("staging belt: unaligned write of %d bytes at offset %d into %q", size, offset, target.Label()))
	}
	if offset+size > target.Size() {
		panic(fmt.Sprintf("staging belt: write of %d bytes at offset %d overflows %q (%d bytes)", size, offset, target.Label(), target.Size()))
	}

	c := b.acquire(size)
	copy(c.buffer.MappedRange(c.offset, size), data)
	encoder.CopyBufferToBuffer(c.buffer, c.offset, target, offset, size)
	c.offset = common.AlignUp(c.offset+size, MapAlignment)
}

// Finish unmaps every chunk written this frame so the GPU can read them. Call before submitting the encoder.
func (b *StagingBelt) Finish() {
	for _, c := range b.active {
		c.buffer.Unmap()
	}
	b.closed = append(b.closed, b.active...)
	b.active = b.active[:0]
}

// Recall requests re-mapping of every chunk closed by Finish. Chunks return to the free list once the GPU has
// finished reading them, which is observed on a later Device.Poll.
func (b *StagingBelt) Recall() {
	b.drainReturned()
	for _, c := range b.closed {
		c.buffer.MapAsync(gpu.MapModeWrite, 0, c.size, func(ok bool) {
			if !ok {
				// A failed mapping drops the chunk; a fresh one is allocated on demand.
				c.buffer.Release()
				return
			}
			c.offset = 0
			b.mu.Lock()
			b.returned = append(b.returned, c)
			b.mu.Unlock()
		})
	}
	b.closed = b.closed[:0]
}

// Stats returns the number of active, closed, and free chunks plus the total ever allocated.
func (b *StagingBelt) Stats() (active, closed, free, allocated int) {
	b.drainReturned()
	return len(b.active), len(b.closed), len(b.free), b.allocated
}

func (b *StagingBelt) acquire(size uint64) *chunk {
	for _, c := range b.active {
		if c.offset+size <= c.size {
			return c
		}
	}

	b.drainReturned()
	for i, c := range b.free {
		if c.size >= size {
			b.free = append(b.free[:i], b.free[i+1:]...)
			b.active = append(b.active, c)
			return c
		}
	}

	chunkSize := max(b.chunkSize, common.AlignUp(size, MapAlignment))
	buffer, err := b.device.CreateBuffer(gpu.BufferDescriptor{
		Label:            fmt.Sprintf("Staging Belt Chunk %d", b.allocated),
		Size:             chunkSize,
		Usage:            gpu.BufferUsageMapWrite | gpu.BufferUsageCopySrc,
		MappedAtCreation: true,
	})
	if err != nil {
		panic(fmt.Sprintf("staging belt: failed to allocate chunk of %d bytes: %v", chunkSize, err))
	}
	b.allocated++
	c := &chunk{buffer: buffer, size: chunkSize}
	b.active = append(b.active, c)
	return c
}

func (b *StagingBelt) drainReturned() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.free = append(b.free, b.returned...)
	b.returned = b.returned[:0]
}
