package pngimage

// unpackRow expands n packed samples of the given depth from src into
// one byte each in dst. Depths 8 and 16 are copied unchanged.
func unpackRow(dst, src []byte, n, depth int) {
	if depth >= 8 {
		copy(dst, src[:n*depth/8])
		return
	}
	mask := byte(1<<uint(depth) - 1)
	perByte := 8 / depth
	for i := 0; i < n; i++ {
		b := src[i/perByte]
		shift := uint(8 - depth - (i%perByte)*depth)
		dst[i] = (b >> shift) & mask
	}
}

// packRow is the inverse of unpackRow. Unused low bits of the final
// byte are zero.
func packRow(dst, src []byte, n, depth int) {
	if depth >= 8 {
		copy(dst, src[:n*depth/8])
		return
	}
	mask := byte(1<<uint(depth) - 1)
	perByte := 8 / depth
	for i := range dst[:(n*depth+7)/8] {
		dst[i] = 0
	}
	for i := 0; i < n; i++ {
		shift := uint(8 - depth - (i%perByte)*depth)
		dst[i/perByte] |= (src[i] & mask) << shift
	}
}

// packedRowBytes is the on-disk length of a row of w pixels, without
// the filter tag.
func packedRowBytes(h header, w int) int {
	return (h.colorType.Channels()*h.depth*w + 7) / 8
}

// filterBPP is the filter's left-neighbour distance: bytes per complete
// pixel, rounded up to 1 for sub-byte pixels.
func filterBPP(h header) int {
	return (h.colorType.Channels()*h.depth + 7) / 8
}
