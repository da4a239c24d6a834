package instruction

// SortEntities stable-sorts entities back to front.
// Equal distances keep their submission order so ties do not flicker between frames.
//
// Parameters:
//   - entities: the entities to sort in place
//   - buffer: scratch space reused across frames; truncated but never freed
func SortEntities(entities []EntityInstruction, buffer *[]EntityInstruction) {
	mergeSort(entities, buffer, func(a, b *EntityInstruction) bool {
		return a.Distance > b.Distance
	})
}

// SortModelBatches sorts the models of every batch in place: opaque models front to back, then transparent
// models back to front. Batches whose ranges overlap are not supported.
//
// Parameters:
//   - batches: the batches addressing models
//   - models: the flat model slice
//   - buffer: scratch space reused across frames; truncated but never freed
func SortModelBatches(batches []ModelBatch, models []ModelInstruction, buffer *[]ModelInstruction) {
	for _, batch := range batches {
		mergeSort(models[batch.Models.Offset:batch.Models.End()], buffer, modelLess)
	}
}

func modelLess(a, b *ModelInstruction) bool {
	switch {
	case a.Transparent != b.Transparent:
		return !a.Transparent
	case a.Transparent:
		return a.Distance > b.Distance
	default:
		return a.Distance < b.Distance
	}
}

// mergeSort is a stable bottom-up merge sort that ping-pongs between data and the scratch buffer.
func mergeSort[T any](data []T, buffer *[]T, less func(a, b *T) bool) {
	n := len(data)
	if n < 2 {
		return
	}
	if cap(*buffer) < n {
		*buffer = make([]T, n)
	}
	scratch := (*buffer)[:n]
	defer func() {
		clear(scratch)
		*buffer = scratch[:0]
	}()

	src, dst := data, scratch
	for width := 1; width < n; width *= 2 {
		for lo := 0; lo < n; lo += 2 * width {
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			merge(src[lo:mid], src[mid:hi], dst[lo:hi], less)
		}
		src, dst = dst, src
	}
	if &src[0] != &data[0] {
		copy(data, src)
	}
}

func merge[T any](left, right, out []T, less func(a, b *T) bool) {
	i, j, k := 0, 0, 0
	for i < len(left) && j < len(right) {
		// Take from the right only when strictly less to keep equal elements in order.
		if less(&right[j], &left[i]) {
			out[k] = right[j]
			j++
		} else {
			out[k] = left[i]
			i++
		}
		k++
	}
	k += copy(out[k:], left[i:])
	copy(out[k:], right[j:])
}
