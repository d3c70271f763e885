package mpedit

import "sync"

// Scratch space for compact text while decoding; the final text is copied
// into a string, so the buffer can be reused right away.
var textBytesPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 65536)
	},
}

const maxPooledTextBytes = 1 << 20

func getTextBytes() []byte {
	return textBytesPool.Get().([]byte)
}

func releaseTextBytes(b []byte) {
	if cap(b) > maxPooledTextBytes {
		return
	}
	textBytesPool.Put(b[:0])
}
