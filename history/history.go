// Package history keeps every saved version of a document, so an editor
// can list and restore earlier buffers.
//
// Each document name gets a root bucket with two nested buckets keyed by a
// big-endian sequence number: "meta" holds a msgpack-encoded Entry, "data"
// holds the raw buffer. Saving a buffer identical to the latest one is a
// no-op, detected by an xxhash of the contents.
package history

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

var ErrNotFound = errors.New("history: not found")

const (
	metaBucket = "meta"
	dataBucket = "data"
)

type Options struct {
	Context context.Context
	Logger  *slog.Logger
	Now     func() time.Time
	// Timeout is how long Open waits for the Bolt file lock; 0 waits forever.
	Timeout time.Duration
}

func (o *Options) setDefaults() {
	if o.Context == nil {
		o.Context = context.Background()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Entry describes one saved buffer.
type Entry struct {
	Seq  uint64    `msgpack:"-"`
	Time time.Time `msgpack:"t"`
	Size int       `msgpack:"n"`
	Hash uint64    `msgpack:"h"`
}

type Store struct {
	s      storage
	ctx    context.Context
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (creating if needed) a Bolt-backed history file.
func Open(path string, o Options) (*Store, error) {
	o.setDefaults()
	bdb, err := bbolt.Open(path, 0o666, &bbolt.Options{Timeout: o.Timeout})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	return newStore(newBoltStorage(bdb), o), nil
}

// OpenMemory returns a Store that lives only as long as the process.
func OpenMemory(o Options) *Store {
	o.setDefaults()
	return newStore(newMemStorage(), o)
}

func newStore(s storage, o Options) *Store {
	return &Store{
		s:      s,
		ctx:    o.Context,
		logger: o.Logger,
		now:    o.Now,
	}
}

func (st *Store) Close() error {
	return st.s.Close()
}

// Record appends data as the next version of the named document. It returns
// recorded=false, and the sequence number of the latest version, when data
// equals the latest version.
func (st *Store) Record(name string, data []byte) (seq uint64, recorded bool, err error) {
	if name == "" {
		return 0, false, errors.New("history: empty document name")
	}
	hash := xxhash.Sum64(data)

	err = st.update(func(tx storageTx) error {
		meta, err := tx.CreateBucket(name, metaBucket)
		if err != nil {
			return err
		}
		blobs, err := tx.CreateBucket(name, dataBucket)
		if err != nil {
			return err
		}

		if k, v := meta.Cursor().Last(); k != nil {
			last, err := decodeEntry(k, v)
			if err != nil {
				return err
			}
			if last.Hash == hash && last.Size == len(data) && bytes.Equal(blobs.Get(k), data) {
				seq = last.Seq
				return nil
			}
		}
		// numbers are never reused, even after Prune removes every entry
		seq, err = meta.NextSequence()
		if err != nil {
			return err
		}

		e := Entry{Seq: seq, Time: st.now(), Size: len(data), Hash: hash}
		raw, err := msgpack.Marshal(&e)
		if err != nil {
			return err
		}
		key := seqKey(seq)
		if err := meta.Put(key, raw); err != nil {
			return err
		}
		if err := blobs.Put(key, data); err != nil {
			return err
		}
		recorded = true
		return nil
	})
	if err != nil {
		st.logger.LogAttrs(st.ctx, slog.LevelError, "history: record failed", slog.String("doc", name), slog.Any("err", err))
		return 0, false, err
	}
	if recorded {
		st.logger.LogAttrs(st.ctx, slog.LevelDebug, "history: recorded", slog.String("doc", name), slog.Uint64("seq", seq), slog.Int("size", len(data)))
	}
	return seq, recorded, nil
}

// Entries lists the saved versions of a document, oldest first.
func (st *Store) Entries(name string) ([]Entry, error) {
	var result []Entry
	err := st.view(func(tx storageTx) error {
		meta := tx.Bucket(name, metaBucket)
		if meta == nil {
			return nil
		}
		result = make([]Entry, 0, meta.KeyCount())
		c := meta.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			e, err := decodeEntry(k, v)
			if err != nil {
				return err
			}
			result = append(result, e)
		}
		return nil
	})
	return result, err
}

// Latest returns the most recent entry, or ErrNotFound.
func (st *Store) Latest(name string) (Entry, error) {
	var e Entry
	err := st.view(func(tx storageTx) error {
		meta := tx.Bucket(name, metaBucket)
		if meta == nil {
			return ErrNotFound
		}
		k, v := meta.Cursor().Last()
		if k == nil {
			return ErrNotFound
		}
		var err error
		e, err = decodeEntry(k, v)
		return err
	})
	return e, err
}

// Load returns a copy of the buffer saved under seq.
func (st *Store) Load(name string, seq uint64) ([]byte, error) {
	var data []byte
	err := st.view(func(tx storageTx) error {
		blobs := tx.Bucket(name, dataBucket)
		if blobs == nil {
			return ErrNotFound
		}
		v := blobs.Get(seqKey(seq))
		if v == nil {
			return ErrNotFound
		}
		data = bytes.Clone(v)
		return nil
	})
	return data, err
}

// Prune drops all but the newest keep versions and returns how many were
// removed.
func (st *Store) Prune(name string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	var removed int
	err := st.update(func(tx storageTx) error {
		meta := tx.Bucket(name, metaBucket)
		blobs := tx.Bucket(name, dataBucket)
		if meta == nil || blobs == nil {
			return nil
		}
		excess := meta.KeyCount() - keep
		if excess <= 0 {
			return nil
		}
		// Collect first: deleting under a live cursor skips keys in Bolt.
		keys := make([][]byte, 0, excess)
		c := meta.Cursor()
		for k, _ := c.First(); k != nil && len(keys) < excess; k, _ = c.Next() {
			keys = append(keys, bytes.Clone(k))
		}
		for _, k := range keys {
			if err := meta.Delete(k); err != nil {
				return err
			}
			if err := blobs.Delete(k); err != nil {
				return err
			}
		}
		removed = len(keys)
		return nil
	})
	if err == nil && removed > 0 {
		st.logger.LogAttrs(st.ctx, slog.LevelDebug, "history: pruned", slog.String("doc", name), slog.Int("removed", removed))
	}
	return removed, err
}

func (st *Store) view(f func(tx storageTx) error) error {
	tx, err := st.s.BeginTx(false)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return f(tx)
}

func (st *Store) update(f func(tx storageTx) error) error {
	tx, err := st.s.BeginTx(true)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	err = f(tx)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func seqKey(seq uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return b[:]
}

func decodeEntry(k, v []byte) (Entry, error) {
	if len(k) != 8 {
		return Entry{}, fmt.Errorf("history: invalid key %x", k)
	}
	var e Entry
	err := msgpack.Unmarshal(v, &e)
	if err != nil {
		return Entry{}, fmt.Errorf("history: entry %x: %w", k, err)
	}
	e.Seq = binary.BigEndian.Uint64(k)
	return e, nil
}
