// Package store persists objects in a Pebble key-value database. Each object
// is stored compacted under its schema type and a KSUID, so objects of one
// type are contiguous and ordered by creation time.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/joshuapare/zerobuf/internal/logger"
	"github.com/joshuapare/zerobuf/object"
	"github.com/joshuapare/zerobuf/schema"
)

// ErrNotFound reports a missing object.
var ErrNotFound = errors.New("store: object not found")

const (
	typeLen = 8
	idLen   = 20
	keyLen  = typeLen + idLen
)

// Options configures Open.
type Options struct {
	// Sync makes every write durable before it returns.
	Sync bool
}

// Store is a Pebble-backed object store. It is safe for concurrent use to
// the extent Pebble is; objects passed in and handed out are not shared.
type Store struct {
	db *pebble.DB
	wo *pebble.WriteOptions
}

// Open opens or creates the database in dir.
func Open(dir string, opts Options) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dir, err)
	}
	wo := pebble.NoSync
	if opts.Sync {
		wo = pebble.Sync
	}
	return &Store{db: db, wo: wo}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func typePrefix(t schema.TypeID) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, keyLen), uint64(t))
}

func key(t schema.TypeID, id ksuid.KSUID) []byte {
	return append(typePrefix(t), id.Bytes()...)
}

func (s *Store) write(id ksuid.KSUID, o *object.Object) error {
	c, err := o.Clone()
	if err != nil {
		return err
	}
	if err := c.Compact(0); err != nil {
		return err
	}
	if err := s.db.Set(key(o.Type(), id), c.Bytes(), s.wo); err != nil {
		return fmt.Errorf("store: put %s: %w", id, err)
	}
	logger.Debug("store: wrote object", "type", o.Schema().Name, "id", id.String(), "size", c.Size())
	return nil
}

// Put stores a compacted copy of o under a new identifier.
func (s *Store) Put(o *object.Object) (ksuid.KSUID, error) {
	id := ksuid.New()
	if err := s.write(id, o); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

// Update replaces the object stored under id.
func (s *Store) Update(id ksuid.KSUID, o *object.Object) error {
	_, closer, err := s.db.Get(key(o.Type(), id))
	if err != nil {
		return s.notFound(id, err)
	}
	_ = closer.Close()
	return s.write(id, o)
}

// Get returns a mutable copy of the object of schema sch stored under id.
func (s *Store) Get(id ksuid.KSUID, sch *schema.Schema) (*object.Object, error) {
	data, closer, err := s.db.Get(key(sch.Type, id))
	if err != nil {
		return nil, s.notFound(id, err)
	}
	defer closer.Close()
	o, err := object.FromBytes(sch, data)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", id, err)
	}
	return o, nil
}

// View calls fn with a read-only object over the stored bytes. The object
// must not be used after fn returns.
func (s *Store) View(id ksuid.KSUID, sch *schema.Schema, fn func(*object.Object) error) error {
	data, closer, err := s.db.Get(key(sch.Type, id))
	if err != nil {
		return s.notFound(id, err)
	}
	defer closer.Close()
	o, err := object.Decode(sch, data)
	if err != nil {
		return fmt.Errorf("store: %s: %w", id, err)
	}
	return fn(o)
}

// Delete removes the object of schema sch stored under id. It returns
// ErrNotFound when nothing is stored there.
func (s *Store) Delete(id ksuid.KSUID, sch *schema.Schema) error {
	k := key(sch.Type, id)
	_, closer, err := s.db.Get(k)
	if err != nil {
		return s.notFound(id, err)
	}
	_ = closer.Close()
	if err := s.db.Delete(k, s.wo); err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	return nil
}

// List calls fn for every object of schema sch in identifier order, with a
// read-only view valid only during the call. A non-nil error from fn stops
// the iteration and is returned.
func (s *Store) List(sch *schema.Schema, fn func(ksuid.KSUID, *object.Object) error) error {
	lower := typePrefix(sch.Type)
	opts := &pebble.IterOptions{LowerBound: lower}
	if sch.Type != ^schema.TypeID(0) {
		opts.UpperBound = typePrefix(sch.Type + 1)
	}
	it, err := s.db.NewIter(opts)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	for it.First(); it.Valid(); it.Next() {
		k := it.Key()
		if len(k) != keyLen {
			continue
		}
		id, err := ksuid.FromBytes(k[typeLen:])
		if err != nil {
			_ = it.Close()
			return fmt.Errorf("store: key %x: %w", k, err)
		}
		o, err := object.Decode(sch, it.Value())
		if err != nil {
			_ = it.Close()
			return fmt.Errorf("store: %s: %w", id, err)
		}
		if err := fn(id, o); err != nil {
			_ = it.Close()
			return err
		}
	}
	return it.Close()
}

func (s *Store) notFound(id ksuid.KSUID, err error) error {
	if errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return fmt.Errorf("store: get %s: %w", id, err)
}
