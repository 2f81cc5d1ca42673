package reconcile

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/insightwallet/insightwallet/internal/storage"
	"github.com/insightwallet/insightwallet/pkg/crypto"
)

const (
	syncPrefix = "sync/"
	keyLast    = "last"
)

// SyncState is the last reconciliation outcome for one (account, coin).
type SyncState struct {
	Height   int64     `json:"height"`
	SyncedAt time.Time `json:"synced_at"`
	Records  int       `json:"records"`
}

// StateStore persists sync state. Accounts are namespaced under a BLAKE3
// digest of their name so the state database never holds account names.
type StateStore struct {
	db storage.DB
}

// NewStateStore wraps db.
func NewStateStore(db storage.DB) *StateStore {
	return &StateStore{db: db}
}

func (s *StateStore) account(account string) *storage.PrefixDB {
	h := crypto.HashParts("insightwallet/sync", account)
	return storage.NewPrefixDB(s.db, []byte("acct/"+hex.EncodeToString(h[:16])+"/"))
}

// Load returns the state for (account, coin), or nil if none was saved.
func (s *StateStore) Load(account, coin string) (*SyncState, error) {
	data, err := s.account(account).Get([]byte(syncPrefix + coin))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load sync state: %w", err)
	}
	var st SyncState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode sync state: %w", err)
	}
	return &st, nil
}

// Save stores st for (account, coin) and stamps the account's last sync
// time in the same batch.
func (s *StateStore) Save(account, coin string, st SyncState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	stamp, err := st.SyncedAt.UTC().MarshalText()
	if err != nil {
		return err
	}
	b := s.account(account).NewBatch()
	if err := b.Put([]byte(syncPrefix+coin), data); err != nil {
		return err
	}
	if err := b.Put([]byte(keyLast), stamp); err != nil {
		return err
	}
	return b.Commit()
}

// All returns every saved coin state of account, keyed by coin.
func (s *StateStore) All(account string) (map[string]*SyncState, error) {
	out := make(map[string]*SyncState)
	err := s.account(account).ForEach([]byte(syncPrefix), func(k, v []byte) error {
		var st SyncState
		if err := json.Unmarshal(v, &st); err != nil {
			return fmt.Errorf("decode sync state %s: %w", k, err)
		}
		out[strings.TrimPrefix(string(k), syncPrefix)] = &st
		return nil
	})
	return out, err
}

// LastSync returns the last time any coin of account was saved.
func (s *StateStore) LastSync(account string) (time.Time, error) {
	var t time.Time
	data, err := s.account(account).Get([]byte(keyLast))
	if errors.Is(err, storage.ErrNotFound) {
		return t, nil
	}
	if err != nil {
		return t, err
	}
	err = t.UnmarshalText(data)
	return t, err
}

// Forget removes all state of account.
func (s *StateStore) Forget(account string) error {
	return s.account(account).DeleteAll()
}
