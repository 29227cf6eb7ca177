package store

import (
	"errors"
	"fmt"

	"github.com/golang/snappy"
	"github.com/google/orderedcode"
	lru "github.com/hashicorp/golang-lru"
	dbm "github.com/tendermint/tm-db"

	"github.com/starknode/starknode/types"
)

/*
ClassStore persists downloaded class artifacts keyed by class hash.

Two kinds of records are stored:
 - Class definition: the gateway's class JSON, tagged with its kind
 - Compiled class:   the CASM of a Sierra class, tagged with its compiled class hash

Values are snappy compressed. Classes are immutable once declared, so a
class that is already present is never rewritten. A ClassStore is safe for
concurrent use.
*/
type ClassStore struct {
	db dbm.DB

	// hashes known to be present; absence is never cached
	known *lru.Cache
}

// NewClassStore returns a ClassStore backed by db which caches the presence
// of up to cacheSize class hashes.
func NewClassStore(db dbm.DB, cacheSize int) (*ClassStore, error) {
	known, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating class cache: %w", err)
	}
	return &ClassStore{db: db, known: known}, nil
}

// HasClass reports whether the definition of hash is stored.
func (cs *ClassStore) HasClass(hash types.ClassHash) (bool, error) {
	if cs.known.Contains(hash) {
		return true, nil
	}

	ok, err := cs.db.Has(classDefinitionKey(hash))
	if err != nil {
		return false, fmt.Errorf("checking class %s: %w", hash, err)
	}
	if ok {
		cs.known.Add(hash, struct{}{})
	}
	return ok, nil
}

// LoadClass returns the stored artifact for hash, or nil if there is none.
func (cs *ClassStore) LoadClass(hash types.ClassHash) (*types.ClassDefinition, error) {
	raw, err := cs.db.Get(classDefinitionKey(hash))
	if err != nil {
		return nil, fmt.Errorf("loading class %s: %w", hash, err)
	}
	if raw == nil {
		return nil, nil
	}

	kind, definition, err := decodeClassValue(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding class %s: %w", hash, err)
	}

	class := &types.ClassDefinition{
		Hash:       hash,
		Kind:       types.ClassKind(kind),
		Definition: definition,
	}
	if class.Kind != types.ClassKindSierra {
		return class, nil
	}

	raw, err = cs.db.Get(compiledClassKey(hash))
	if err != nil {
		return nil, fmt.Errorf("loading compiled class %s: %w", hash, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("sierra class %s has no compiled class", hash)
	}
	if len(raw) < types.FeltLength {
		return nil, fmt.Errorf("compiled class %s: value too short", hash)
	}
	copy(class.CompiledClassHash.Felt[:], raw[:types.FeltLength])
	class.Compiled, err = snappy.Decode(nil, raw[types.FeltLength:])
	if err != nil {
		return nil, fmt.Errorf("decoding compiled class %s: %w", hash, err)
	}
	return class, nil
}

// StoreClasses writes all classes that are not yet stored in a single
// synchronous batch. Either every class is persisted or none is. It returns
// the number of classes written.
func (cs *ClassStore) StoreClasses(classes []types.ClassDefinition) (int, error) {
	batch := cs.db.NewBatch()
	defer batch.Close()

	written := make([]types.ClassHash, 0, len(classes))
	seen := make(map[types.ClassHash]struct{}, len(classes))
	for _, class := range classes {
		if _, dup := seen[class.Hash]; dup {
			continue
		}
		seen[class.Hash] = struct{}{}

		ok, err := cs.HasClass(class.Hash)
		if err != nil {
			return 0, err
		}
		if ok {
			continue
		}

		if err := addClass(batch, class); err != nil {
			return 0, err
		}
		written = append(written, class.Hash)
	}

	if len(written) == 0 {
		return 0, nil
	}
	if err := batch.WriteSync(); err != nil {
		return 0, fmt.Errorf("writing classes: %w", err)
	}

	for _, hash := range written {
		cs.known.Add(hash, struct{}{})
	}
	return len(written), nil
}

// Close closes the underlying database.
func (cs *ClassStore) Close() error {
	return cs.db.Close()
}

func addClass(batch dbm.Batch, class types.ClassDefinition) error {
	switch class.Kind {
	case types.ClassKindCairo:
	case types.ClassKindSierra:
		if len(class.Compiled) == 0 {
			return fmt.Errorf("sierra class %s has no compiled class", class.Hash)
		}
		value := append(class.CompiledClassHash.Bytes(), snappy.Encode(nil, class.Compiled)...)
		if err := batch.Set(compiledClassKey(class.Hash), value); err != nil {
			return err
		}
	default:
		return fmt.Errorf("class %s has unknown kind %s", class.Hash, class.Kind)
	}

	if len(class.Definition) == 0 {
		return fmt.Errorf("class %s has an empty definition", class.Hash)
	}
	return batch.Set(classDefinitionKey(class.Hash), encodeClassValue(class.Kind, class.Definition))
}

func encodeClassValue(kind types.ClassKind, definition []byte) []byte {
	return append([]byte{byte(kind)}, snappy.Encode(nil, definition)...)
}

func decodeClassValue(raw []byte) (byte, []byte, error) {
	if len(raw) < 1 {
		return 0, nil, errors.New("empty value")
	}
	definition, err := snappy.Decode(nil, raw[1:])
	if err != nil {
		return 0, nil, err
	}
	return raw[0], definition, nil
}

//---------------------------------- KEY ENCODING -----------------------------------------

// key prefixes
const (
	prefixClassDefinition = int64(0)
	prefixCompiledClass   = int64(1)
)

func classDefinitionKey(hash types.ClassHash) []byte {
	key, err := orderedcode.Append(nil, prefixClassDefinition, string(hash.Felt[:]))
	if err != nil {
		panic(err)
	}
	return key
}

func compiledClassKey(hash types.ClassHash) []byte {
	key, err := orderedcode.Append(nil, prefixCompiledClass, string(hash.Felt[:]))
	if err != nil {
		panic(err)
	}
	return key
}
