package history

import (
	"bytes"
	"errors"
	"slices"
	"sync"
)

var (
	errStorageClosed = errors.New("history: storage closed")
	errReadOnlyTx    = errors.New("history: tx not writable")
	errTxDone        = errors.New("history: tx already finished")
)

type bucketID struct {
	doc string
	sub string
}

// memStorage backs OpenMemory. A writable tx works on a deep copy of the
// buckets and publishes it on Commit; readers take the published map as is,
// since nobody mutates it after publication. One writer at a time.
type memStorage struct {
	writeMu sync.Mutex

	mu      sync.Mutex
	buckets map[bucketID]*memBucket
	closed  bool
}

func newMemStorage() storage {
	return &memStorage{buckets: make(map[bucketID]*memBucket)}
}

func (s *memStorage) snapshot(deep bool) (map[bucketID]*memBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errStorageClosed
	}
	if !deep {
		return s.buckets, nil
	}
	snap := make(map[bucketID]*memBucket, len(s.buckets))
	for id, b := range s.buckets {
		snap[id] = b.clone()
	}
	return snap, nil
}

func (s *memStorage) BeginTx(writable bool) (storageTx, error) {
	if writable {
		s.writeMu.Lock()
	}
	buckets, err := s.snapshot(writable)
	if err != nil {
		if writable {
			s.writeMu.Unlock()
		}
		return nil, err
	}
	return &memTx{s: s, writable: writable, buckets: buckets}, nil
}

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buckets = nil
	return nil
}

type memTx struct {
	s        *memStorage
	writable bool
	done     bool
	buckets  map[bucketID]*memBucket
}

func (tx *memTx) Writable() bool { return tx.writable }

func (tx *memTx) Bucket(doc, sub string) storageBucket {
	b := tx.buckets[bucketID{doc, sub}]
	if b == nil || tx.done {
		return nil
	}
	return memBucketRef{tx, b}
}

func (tx *memTx) CreateBucket(doc, sub string) (storageBucket, error) {
	switch {
	case tx.done:
		return nil, errTxDone
	case !tx.writable:
		return nil, errReadOnlyTx
	}
	root := bucketID{doc, ""}
	if tx.buckets[root] == nil {
		tx.buckets[root] = &memBucket{}
	}
	id := bucketID{doc, sub}
	b := tx.buckets[id]
	if b == nil {
		b = &memBucket{}
		tx.buckets[id] = b
	}
	return memBucketRef{tx, b}, nil
}

func (tx *memTx) Commit() error {
	switch {
	case tx.done:
		return errTxDone
	case !tx.writable:
		return errReadOnlyTx
	}
	defer tx.finish()

	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	if tx.s.closed {
		return errStorageClosed
	}
	tx.s.buckets = tx.buckets
	return nil
}

func (tx *memTx) Rollback() error {
	if !tx.done {
		tx.finish()
	}
	return nil
}

func (tx *memTx) finish() {
	tx.done = true
	tx.buckets = nil
	if tx.writable {
		tx.s.writeMu.Unlock()
	}
}

type memKV struct {
	key   []byte
	value []byte
}

// memBucket is a key-sorted slice; history buckets hold one entry per saved
// version, so binary search over a slice is plenty.
type memBucket struct {
	items []memKV
	seq   uint64
}

func (b *memBucket) clone() *memBucket {
	items := make([]memKV, len(b.items))
	for i, kv := range b.items {
		items[i] = memKV{slices.Clone(kv.key), slices.Clone(kv.value)}
	}
	return &memBucket{items: items, seq: b.seq}
}

func (b *memBucket) search(key []byte) (int, bool) {
	return slices.BinarySearchFunc(b.items, key, func(kv memKV, key []byte) int {
		return bytes.Compare(kv.key, key)
	})
}

type memBucketRef struct {
	tx *memTx
	b  *memBucket
}

func (r memBucketRef) Get(key []byte) []byte {
	if i, ok := r.b.search(key); ok {
		return r.b.items[i].value
	}
	return nil
}

func (r memBucketRef) Put(key, value []byte) error {
	if !r.tx.writable || r.tx.done {
		return errReadOnlyTx
	}
	i, ok := r.b.search(key)
	if ok {
		r.b.items[i].value = slices.Clone(value)
	} else {
		r.b.items = slices.Insert(r.b.items, i, memKV{slices.Clone(key), slices.Clone(value)})
	}
	return nil
}

func (r memBucketRef) Delete(key []byte) error {
	if !r.tx.writable || r.tx.done {
		return errReadOnlyTx
	}
	if i, ok := r.b.search(key); ok {
		r.b.items = slices.Delete(r.b.items, i, i+1)
	}
	return nil
}

func (r memBucketRef) Cursor() storageCursor {
	return &memCursor{items: r.b.items, pos: -1}
}

func (r memBucketRef) KeyCount() int {
	return len(r.b.items)
}

func (r memBucketRef) NextSequence() (uint64, error) {
	if !r.tx.writable || r.tx.done {
		return 0, errReadOnlyTx
	}
	r.b.seq++
	return r.b.seq, nil
}

// memCursor iterates over the items as they were when the cursor was made.
type memCursor struct {
	items []memKV
	pos   int
}

func (c *memCursor) at() ([]byte, []byte) {
	if c.pos < 0 || c.pos >= len(c.items) {
		return nil, nil
	}
	return c.items[c.pos].key, c.items[c.pos].value
}

func (c *memCursor) First() ([]byte, []byte) {
	c.pos = 0
	return c.at()
}

func (c *memCursor) Last() ([]byte, []byte) {
	c.pos = len(c.items) - 1
	return c.at()
}

func (c *memCursor) Next() ([]byte, []byte) {
	if c.pos < len(c.items) {
		c.pos++
	}
	return c.at()
}
