package pass

import "github.com/Carmen-Shannon/oxy-ro/engine/gpu"

// readBack is a pair of mappable buffers used alternately: frame N copies into buffer N%2 while the copy of frame
// N-1 is mapped during frame N's device poll. Values therefore lag the GPU work by one frame.
type readBack struct {
	buffers [2]gpu.Buffer
	// copied marks buffers holding a submitted, not yet read copy.
	copied [2]bool
	frame  uint64
	size   uint64
}

// newReadBack creates two buffers of bufferSize bytes of which the first size bytes are read.
func newReadBack(device gpu.Device, label string, bufferSize, size uint64) readBack {
	r := readBack{size: size}
	for i := range r.buffers {
		r.buffers[i] = createBuffer(device, label, bufferSize, gpu.BufferUsageMapRead|gpu.BufferUsageCopyDst)
	}
	return r
}

// target returns the buffer receiving this frame's copy and marks it as copied.
func (r *readBack) target() gpu.Buffer {
	index := r.frame % 2
	r.copied[index] = true
	return r.buffers[index]
}

// request maps the buffer copied in the previous frame and advances the frame counter. read runs during the next
// device poll with the mapped bytes, which are only valid for the duration of the call.
func (r *readBack) request(read func(data []byte)) {
	index := (r.frame + 1) % 2
	r.frame++
	if !r.copied[index] {
		return
	}
	r.copied[index] = false

	buffer, size := r.buffers[index], r.size
	buffer.MapAsync(gpu.MapModeRead, 0, size, func(ok bool) {
		if !ok {
			return
		}
		read(buffer.MappedRange(0, size))
		buffer.Unmap()
	})
}
