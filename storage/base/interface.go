package base

// Database KV存储约束接口
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	NewIteratorWithPrefix(prefix []byte) Iterator
	Close()
}

// Iterator iterates over a key/value range in ascending key order
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Release()
}

// Table wraps a Database so that all keys share a fixed prefix
type Table struct {
	db     Database
	prefix string
}

func NewTable(db Database, prefix string) *Table {
	return &Table{
		db:     db,
		prefix: prefix,
	}
}

func (t *Table) Put(key []byte, value []byte) error {
	return t.db.Put(append([]byte(t.prefix), key...), value)
}

func (t *Table) Get(key []byte) ([]byte, error) {
	return t.db.Get(append([]byte(t.prefix), key...))
}

func (t *Table) Has(key []byte) (bool, error) {
	return t.db.Has(append([]byte(t.prefix), key...))
}

func (t *Table) Delete(key []byte) error {
	return t.db.Delete(append([]byte(t.prefix), key...))
}
