package leveldb

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/gurrpi/codechain/storage/base"
)

// LDBDatabase goleveldb实例封装
type LDBDatabase struct {
	fn string
	db *leveldb.DB
}

var _ base.Database = (*LDBDatabase)(nil)

func setDefaultOptions(options map[string]interface{}) {
	if _, ok := options["cache"]; !ok {
		options["cache"] = 16
	}
	if _, ok := options["fds"]; !ok {
		options["fds"] = 64
	}
}

// Open opens an instance of LDB with parameters (ldb path and other options)
func (ldb *LDBDatabase) Open(path string, options map[string]interface{}) error {
	setDefaultOptions(options)
	cache := options["cache"].(int)
	fds := options["fds"].(int)

	// Open the db and recover any potential corruptions
	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: fds,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB, // Two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
	})
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(path, nil)
	}
	// (Re)check for errors and abort if opening of the db failed
	if err != nil {
		return err
	}
	ldb.fn = path
	ldb.db = db
	return nil
}

// NewLDBDatabase open a leveldb database at the given path
func NewLDBDatabase(path string, options map[string]interface{}) (*LDBDatabase, error) {
	if options == nil {
		options = make(map[string]interface{})
	}

	ldb := new(LDBDatabase)
	if err := ldb.Open(path, options); err != nil {
		return nil, err
	}

	return ldb, nil
}

// Path returns the path to the database directory.
func (ldb *LDBDatabase) Path() string {
	return ldb.fn
}

func (ldb *LDBDatabase) Put(key []byte, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

func (ldb *LDBDatabase) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, nil)
}

func (ldb *LDBDatabase) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, nil)
}

func (ldb *LDBDatabase) Delete(key []byte) error {
	return ldb.db.Delete(key, nil)
}

func (ldb *LDBDatabase) NewIteratorWithPrefix(prefix []byte) base.Iterator {
	return &ldbIterator{iter: ldb.db.NewIterator(util.BytesPrefix(prefix), nil)}
}

func (ldb *LDBDatabase) Close() {
	ldb.db.Close()
}

type ldbIterator struct {
	iter iterator.Iterator
}

func (it *ldbIterator) Next() bool {
	return it.iter.Next()
}

func (it *ldbIterator) Key() []byte {
	return it.iter.Key()
}

func (it *ldbIterator) Value() []byte {
	return it.iter.Value()
}

func (it *ldbIterator) Error() error {
	return it.iter.Error()
}

func (it *ldbIterator) Release() {
	it.iter.Release()
}
