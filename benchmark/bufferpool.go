package benchmark

import "sync"

const copyBufferSize = 256 << 10

// copyBufPool holds the buffers segment reads drain response bodies through.
var copyBufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, copyBufferSize)
		return &buf
	},
}

func getBuffer() *[]byte {
	return copyBufPool.Get().(*[]byte)
}

func putBuffer(buf *[]byte) {
	copyBufPool.Put(buf)
}
