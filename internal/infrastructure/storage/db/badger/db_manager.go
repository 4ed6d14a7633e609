package dbbadger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vesper-wallet/vesper/internal/core/domain"
	"github.com/vesper-wallet/vesper/internal/core/ports"
)

// repoManager holds the badgerhold store shared by every repository.
type repoManager struct {
	store *badgerhold.Store

	addressCacheRepository domain.AddressCacheRepository
	txCacheRepository      domain.TransactionCacheRepository
	pendingTxRepository    domain.PendingTransactionRepository
}

// NewRepoManager opens (or creates if missing) the badger store under the
// given data dir and returns the repositories backed by it. An empty dir
// means a volatile in-memory store.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, "cache")
	}

	store, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	return &repoManager{
		store:                  store,
		addressCacheRepository: newAddressCacheRepositoryImpl(store),
		txCacheRepository:      newTxCacheRepositoryImpl(store),
		pendingTxRepository:    newPendingTxRepositoryImpl(store),
	}, nil
}

func (d *repoManager) AddressCacheRepository() domain.AddressCacheRepository {
	return d.addressCacheRepository
}

func (d *repoManager) TransactionCacheRepository() domain.TransactionCacheRepository {
	return d.txCacheRepository
}

func (d *repoManager) PendingTransactionRepository() domain.PendingTransactionRepository {
	return d.pendingTxRepository
}

func (d *repoManager) Close() {
	d.store.Close()
}

// JSONEncode is a custom JSON based encoder for badger
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer

	en := json.NewEncoder(&buff)
	if err := en.Encode(value); err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger
func JSONDecode(data []byte, value interface{}) error {
	de := json.NewDecoder(bytes.NewReader(data))
	return de.Decode(value)
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	if len(dbDir) <= 0 {
		opts = opts.WithInMemory(true)
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
