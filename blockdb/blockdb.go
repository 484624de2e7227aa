// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/container/lru"
	"github.com/plasma-network/exitgame/framework"
	"github.com/plasma-network/exitgame/plasma"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	// currentDatabaseVersion indicates the current block database version.
	currentDatabaseVersion = 1

	// dbName is the name of the block database within the data directory.
	dbName = "blocks"

	// DefaultCacheSize is the number of blocks cached when no cache size is
	// given.
	DefaultCacheSize = 1024

	// serializedBlockSize is the size of a serialized block.
	serializedBlockSize = chainhash.HashSize + 8
)

// byteOrder is the preferred byte order used for serializing numeric fields
// for storage in the database.
var byteOrder = binary.BigEndian

// -----------------------------------------------------------------------------
// keySet represents a top level key set in the block database.  All keys
// start with a serialized prefix consisting of the key set and version of that
// key set as follows:
//
//	<key set><version>
//
//	Key        Value    Size      Description
//	key set    uint8    1 byte    The key set identifier, as defined below
//	version    uint8    1 byte    The version of the key set
//
// -----------------------------------------------------------------------------
type keySet uint8

// These constants define the available key sets.
const (
	keySetDbInfo keySet = iota + 1 // 1
	keySetBlocks                   // 2
)

// These variables define the serialized prefix for each key set and
// associated version.
var (
	prefixDbInfo = []byte{byte(keySetDbInfo), 0}
	prefixBlocks = []byte{byte(keySetBlocks), 1}
)

// prefixedKey returns a new byte slice that consists of the provided prefix
// appended with the provided key.
func prefixedKey(prefix []byte, key []byte) []byte {
	lenPrefix := len(prefix)
	prefixedKey := make([]byte, lenPrefix+len(key))
	_ = copy(prefixedKey, prefix)
	_ = copy(prefixedKey[lenPrefix:], key)
	return prefixedKey
}

var (
	// dbInfoVersionKey houses the database version.
	dbInfoVersionKey = prefixedKey(prefixDbInfo, []byte("version"))

	// dbInfoCreatedKey houses the date the database was created.
	dbInfoCreatedKey = prefixedKey(prefixDbInfo, []byte("created"))
)

// blockKey returns the database key of the block with the passed number.
//
// -----------------------------------------------------------------------------
// The serialized block key format is:
//
//	<prefix><block number>
//
//	Field          Type     Size
//	prefix         []byte   2
//	block number   uint64   8
// -----------------------------------------------------------------------------
func blockKey(blockNum uint64) []byte {
	key := make([]byte, len(prefixBlocks)+8)
	copy(key, prefixBlocks)
	byteOrder.PutUint64(key[len(prefixBlocks):], blockNum)
	return key
}

// -----------------------------------------------------------------------------
// The serialized block format is:
//
//	<root><timestamp>
//
//	Field          Type     Size
//	root           hash     32
//	timestamp      uint64   8    unix seconds
// -----------------------------------------------------------------------------

// serializeBlock returns the serialization of the passed block.
func serializeBlock(block *plasma.Block) []byte {
	serialized := make([]byte, serializedBlockSize)
	copy(serialized, block.Root[:])
	byteOrder.PutUint64(serialized[chainhash.HashSize:],
		uint64(block.Timestamp.Unix()))
	return serialized
}

// deserializeBlock decodes the passed serialized block.
func deserializeBlock(serialized []byte) (*plasma.Block, error) {
	if len(serialized) != serializedBlockSize {
		str := fmt.Sprintf("unexpected serialized block size %d, want %d",
			len(serialized), serializedBlockSize)
		return nil, contextError(ErrDeserialize, str)
	}
	var block plasma.Block
	copy(block.Root[:], serialized)
	ts := byteOrder.Uint64(serialized[chainhash.HashSize:])
	block.Timestamp = time.Unix(int64(ts), 0)
	return &block, nil
}

// convertLdbErr converts the passed leveldb error into a context error with an
// equivalent error kind and the passed description.  It also sets the passed
// error as the underlying error and adds its error string to the description.
func convertLdbErr(ldbErr error, desc string) ContextError {
	var kind = ErrBackend
	switch {
	case ldberrors.IsCorrupted(ldbErr):
		kind = ErrCorruption
	case errors.Is(ldbErr, leveldb.ErrClosed):
		kind = ErrNotOpen
	}

	desc = fmt.Sprintf("%s: %v", desc, ldbErr)
	err := contextError(kind, desc)
	err.RawErr = ldbErr
	return err
}

// DB is a framework.BlockStore backed by leveldb.
//
// All methods are safe for concurrent access.
type DB struct {
	ldb   *leveldb.DB
	cache *lru.Map[uint64, plasma.Block]
}

// Ensure DB implements the framework.BlockStore interface.
var _ framework.BlockStore = (*DB)(nil)

// dbOptions returns the leveldb options used for the block database.
func dbOptions() *opt.Options {
	return &opt.Options{
		Strict:      opt.DefaultStrict,
		Compression: opt.NoCompression,
		Filter:      filter.NewBloomFilter(10),
	}
}

// newDB wraps the passed leveldb database and loads or initializes its
// versioning information.
func newDB(ldb *leveldb.DB, cacheSize uint32) (*DB, error) {
	if cacheSize == 0 {
		cacheSize = DefaultCacheSize
	}
	db := &DB{
		ldb:   ldb,
		cache: lru.NewMap[uint64, plasma.Block](cacheSize),
	}
	if err := db.initInfo(); err != nil {
		_ = ldb.Close()
		return nil, err
	}
	return db, nil
}

// Open loads, creating it when needed, the block database in the passed data
// directory.  A cache size of zero selects DefaultCacheSize.
func Open(dataDir string, cacheSize uint32) (*DB, error) {
	dbPath := filepath.Join(dataDir, dbName)

	// The error can be ignored here since opening the database fails when
	// the directory could not be created.
	_ = os.MkdirAll(dataDir, 0700)

	log.Infof("Loading block database from '%s'", dbPath)
	ldb, err := leveldb.OpenFile(dbPath, dbOptions())
	if err != nil {
		return nil, convertLdbErr(err, "failed to open block database")
	}
	db, err := newDB(ldb, cacheSize)
	if err != nil {
		return nil, err
	}
	log.Info("Block database loaded")
	return db, nil
}

// OpenMem returns a block database that is only kept in memory.
func OpenMem(cacheSize uint32) (*DB, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), dbOptions())
	if err != nil {
		return nil, convertLdbErr(err, "failed to open memory block database")
	}
	return newDB(ldb, cacheSize)
}

// Close closes the database.
func (db *DB) Close() error {
	if err := db.ldb.Close(); err != nil {
		return convertLdbErr(err, "failed to close block database")
	}
	return nil
}

// initInfo stores the database version and creation date of a new database
// and ensures an existing one is not newer than this software.
func (db *DB) initInfo() error {
	serialized, err := db.ldb.Get(dbInfoVersionKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		var version [4]byte
		byteOrder.PutUint32(version[:], currentDatabaseVersion)
		var created [8]byte
		byteOrder.PutUint64(created[:], uint64(time.Now().Unix()))

		batch := new(leveldb.Batch)
		batch.Put(dbInfoVersionKey, version[:])
		batch.Put(dbInfoCreatedKey, created[:])
		if err := db.ldb.Write(batch, nil); err != nil {
			return convertLdbErr(err, "failed to store database info")
		}
		log.Debugf("Created block database version %d",
			currentDatabaseVersion)
		return nil
	}
	if err != nil {
		return convertLdbErr(err, "failed to load database info")
	}
	if len(serialized) != 4 {
		str := fmt.Sprintf("unexpected database version size %d",
			len(serialized))
		return contextError(ErrCorruption, str)
	}
	if version := byteOrder.Uint32(serialized); version > currentDatabaseVersion {
		str := fmt.Sprintf("the current block database is no longer "+
			"compatible with this version of the software (%d > %d)",
			version, currentDatabaseVersion)
		return contextError(ErrTooNew, str)
	}
	return nil
}

// Created returns when the database was created.
func (db *DB) Created() (time.Time, error) {
	serialized, err := db.ldb.Get(dbInfoCreatedKey, nil)
	if err != nil {
		return time.Time{}, convertLdbErr(err, "failed to load creation date")
	}
	if len(serialized) != 8 {
		str := fmt.Sprintf("unexpected creation date size %d",
			len(serialized))
		return time.Time{}, contextError(ErrCorruption, str)
	}
	return time.Unix(int64(byteOrder.Uint64(serialized)), 0), nil
}

// PutBlock stores the block with the passed number.  It is part of the
// framework.BlockStore interface.
func (db *DB) PutBlock(blockNum uint64, block *plasma.Block) error {
	err := db.ldb.Put(blockKey(blockNum), serializeBlock(block), nil)
	if err != nil {
		str := fmt.Sprintf("failed to store block %d", blockNum)
		return convertLdbErr(err, str)
	}
	stored := *block
	stored.Timestamp = time.Unix(block.Timestamp.Unix(), 0)
	db.cache.Put(blockNum, stored)
	return nil
}

// FetchBlock returns the block with the passed number or nil when there is
// no such block.  It is part of the framework.BlockStore interface.
func (db *DB) FetchBlock(blockNum uint64) (*plasma.Block, error) {
	if block, ok := db.cache.Get(blockNum); ok {
		return &block, nil
	}

	serialized, err := db.ldb.Get(blockKey(blockNum), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, nil
		}
		str := fmt.Sprintf("failed to fetch block %d", blockNum)
		return nil, convertLdbErr(err, str)
	}
	block, err := deserializeBlock(serialized)
	if err != nil {
		return nil, err
	}
	db.cache.Put(blockNum, *block)
	return block, nil
}

// LastBlockNum returns the highest stored block number.  The boolean is false
// when no block was stored.  It is part of the framework.BlockStore interface.
func (db *DB) LastBlockNum() (uint64, bool, error) {
	iter := db.ldb.NewIterator(util.BytesPrefix(prefixBlocks), nil)
	defer iter.Release()

	if !iter.Last() {
		if err := iter.Error(); err != nil {
			return 0, false, convertLdbErr(err, "failed to find last block")
		}
		return 0, false, nil
	}
	key := iter.Key()
	if len(key) != len(prefixBlocks)+8 {
		str := fmt.Sprintf("unexpected block key %x", key)
		return 0, false, contextError(ErrCorruption, str)
	}
	return byteOrder.Uint64(key[len(prefixBlocks):]), true, nil
}

// ForEachBlock calls the passed function with every stored block in block
// number order starting at the passed block number.  Iteration stops at the
// first error returned by the function, which is then returned.
func (db *DB) ForEachBlock(from uint64, fn func(blockNum uint64, block *plasma.Block) error) error {
	iter := db.ldb.NewIterator(&util.Range{
		Start: blockKey(from),
		Limit: util.BytesPrefix(prefixBlocks).Limit,
	}, nil)
	defer iter.Release()

	for iter.Next() {
		key := iter.Key()
		if len(key) != len(prefixBlocks)+8 {
			str := fmt.Sprintf("unexpected block key %x", key)
			return contextError(ErrCorruption, str)
		}
		block, err := deserializeBlock(iter.Value())
		if err != nil {
			return err
		}
		if err := fn(byteOrder.Uint64(key[len(prefixBlocks):]), block); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return convertLdbErr(err, "failed to iterate blocks")
	}
	return nil
}
