package storage

// PrefixDB wraps a DB and prepends a fixed prefix to all keys. The sync
// state keeps one namespace per account inside a single database.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB creates a new PrefixDB wrapping inner with the given prefix.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	return &PrefixDB{inner: inner, prefix: copyBytes(prefix)}
}

func (p *PrefixDB) key(k []byte) []byte {
	out := make([]byte, len(p.prefix)+len(k))
	copy(out, p.prefix)
	copy(out[len(p.prefix):], k)
	return out
}

// Get retrieves a value by key.
func (p *PrefixDB) Get(key []byte) ([]byte, error) {
	return p.inner.Get(p.key(key))
}

// Put stores a key-value pair.
func (p *PrefixDB) Put(key, value []byte) error {
	return p.inner.Put(p.key(key), value)
}

// Delete removes a key.
func (p *PrefixDB) Delete(key []byte) error {
	return p.inner.Delete(p.key(key))
}

// Has checks if a key exists.
func (p *PrefixDB) Has(key []byte) (bool, error) {
	return p.inner.Has(p.key(key))
}

// ForEach iterates over keys with the given prefix inside the namespace.
// Keys passed to fn have the namespace stripped.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return p.inner.ForEach(p.key(prefix), func(key, value []byte) error {
		return fn(key[len(p.prefix):], value)
	})
}

// DeleteAll removes every key in the namespace, atomically when the inner
// DB supports batches.
func (p *PrefixDB) DeleteAll() error {
	var keys [][]byte
	err := p.inner.ForEach(p.prefix, func(key, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return err
	}
	b := batchFor(p.inner)
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return b.Commit()
}

// Close is a no-op; the inner DB owns its lifecycle.
func (p *PrefixDB) Close() error {
	return nil
}

// NewBatch creates a batch that writes into the namespace.
func (p *PrefixDB) NewBatch() Batch {
	return &prefixBatch{inner: batchFor(p.inner), p: p}
}

type prefixBatch struct {
	inner Batch
	p     *PrefixDB
}

func (pb *prefixBatch) Put(key, value []byte) error {
	return pb.inner.Put(pb.p.key(key), value)
}

func (pb *prefixBatch) Delete(key []byte) error {
	return pb.inner.Delete(pb.p.key(key))
}

func (pb *prefixBatch) Commit() error {
	return pb.inner.Commit()
}

// batchFor returns db's own batch or a buffered, non-atomic fallback.
func batchFor(db DB) Batch {
	if b, ok := db.(Batcher); ok {
		return b.NewBatch()
	}
	return &fallbackBatch{db: db}
}

type fallbackBatch struct {
	db  DB
	ops []batchOp
}

func (fb *fallbackBatch) Put(key, value []byte) error {
	v := copyBytes(value)
	if v == nil {
		v = []byte{}
	}
	fb.ops = append(fb.ops, batchOp{key: copyBytes(key), value: v})
	return nil
}

func (fb *fallbackBatch) Delete(key []byte) error {
	fb.ops = append(fb.ops, batchOp{key: copyBytes(key)})
	return nil
}

func (fb *fallbackBatch) Commit() error {
	for _, op := range fb.ops {
		var err error
		if op.value == nil {
			err = fb.db.Delete(op.key)
		} else {
			err = fb.db.Put(op.key, op.value)
		}
		if err != nil {
			return err
		}
	}
	fb.ops = nil
	return nil
}
