package rtm

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/rlp"
)

// templateKeyPrefix namespaces template records in a shared database.
var templateKeyPrefix = []byte("rtm-template-")

// templateRecordVersion is the current record layout.
const templateRecordVersion = 1

var (
	errRecordVersion = errors.New("unsupported record version")
	errDigest        = errors.New("digest mismatch")
)

// templateRecord is the RLP layout of a stored template.
type templateRecord struct {
	Version uint64
	Digest  common.Hash // keccak256 of Text
	Text    []byte
}

// DBStore keeps templates in a key-value database. Each record carries a
// digest of its text so corrupt entries are detected on load.
type DBStore struct {
	db ethdb.KeyValueStore
}

// NewDBStore wraps db, e.g. memorydb.New() or a leveldb database.
func NewDBStore(db ethdb.KeyValueStore) *DBStore {
	return &DBStore{db: db}
}

// OpenLevelDBStore opens (or creates) a leveldb template database at path.
func OpenLevelDBStore(path string) (*DBStore, error) {
	db, err := leveldb.New(path, 16, 16, "rtm/templates/", false)
	if err != nil {
		return nil, fmt.Errorf("rtm: open template database: %w", err)
	}
	return NewDBStore(db), nil
}

// Close closes the underlying database.
func (s *DBStore) Close() error {
	return s.db.Close()
}

func templateKey(name string) []byte {
	return append(append([]byte{}, templateKeyPrefix...), name...)
}

// Load implements TemplateStore.
func (s *DBStore) Load(name string) (string, bool, error) {
	key := templateKey(name)
	has, err := s.db.Has(key)
	if err != nil {
		return "", false, fmt.Errorf("rtm: template lookup %q: %w", name, err)
	}
	if !has {
		return "", false, nil
	}
	blob, err := s.db.Get(key)
	if err != nil {
		return "", true, &MalformedTemplateError{Name: name, Err: err}
	}

	var rec templateRecord
	if err := rlp.DecodeBytes(blob, &rec); err != nil {
		return "", true, &MalformedTemplateError{Name: name, Err: err}
	}
	if rec.Version != templateRecordVersion {
		return "", true, &MalformedTemplateError{Name: name, Err: errRecordVersion}
	}
	if crypto.Keccak256Hash(rec.Text) != rec.Digest {
		return "", true, &MalformedTemplateError{Name: name, Err: errDigest}
	}
	return string(rec.Text), true, nil
}

// Save implements TemplateStore.
func (s *DBStore) Save(name, text string) error {
	rec := templateRecord{
		Version: templateRecordVersion,
		Digest:  crypto.Keccak256Hash([]byte(text)),
		Text:    []byte(text),
	}
	blob, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return fmt.Errorf("rtm: encode template %q: %w", name, err)
	}
	if err := s.db.Put(templateKey(name), blob); err != nil {
		return fmt.Errorf("rtm: store template %q: %w", name, err)
	}
	return nil
}
