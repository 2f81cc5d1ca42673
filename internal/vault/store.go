// Package vault stores one encrypted SQLite database per account. Address
// and WIF columns are sealed under a password-derived key; a verifier row
// authenticates every open.
package vault

import (
	"database/sql"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/insightwallet/insightwallet/internal/log"
	"github.com/insightwallet/insightwallet/internal/wallet"
)

//go:embed schema.sql
var schemaSQL string

const (
	filePrefix = "wallet_"
	fileSuffix = ".db"

	// Verifier is the plaintext sealed into every vault's meta table.
	Verifier = "vault-ok"

	metaSalt     = "salt"
	metaVerifier = "verifier"
	metaKDF      = "kdf"

	// maxKDFMemory caps the memory cost read from a vault file (4 GiB).
	maxKDFMemory = 4 * 1024 * 1024

	dsnParams = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
)

// Store manages the vault files in one directory.
type Store struct {
	dir         string
	params      wallet.EncryptionParams
	maxAccounts int
}

// NewStore creates a store rooted at dir. New vaults use params; existing
// vaults use the parameters recorded in their meta table. maxAccounts <= 0
// disables the account limit.
func NewStore(dir string, params wallet.EncryptionParams, maxAccounts int) (*Store, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	return &Store{dir: dir, params: params, maxAccounts: maxAccounts}, nil
}

// Path returns the vault file path for account.
func (s *Store) Path(account string) string {
	return filepath.Join(s.dir, filePrefix+SanitizeAccount(account)+fileSuffix)
}

// Exists reports whether account has a vault file.
func (s *Store) Exists(account string) bool {
	_, err := os.Stat(s.Path(account))
	return err == nil
}

// ListAccounts returns the account tokens of all vault files, sorted.
func (s *Store) ListAccounts() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read vault dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
	}
	sort.Strings(names)
	return names, nil
}

// Register applies the account rules and creates the vault. It returns the
// trimmed account name.
func (s *Store) Register(account string, password []byte) (string, error) {
	account, err := ValidateAccountName(account)
	if err != nil {
		return "", err
	}
	if err := CheckPassword(password); err != nil {
		return "", err
	}
	if s.maxAccounts > 0 {
		names, err := s.ListAccounts()
		if err != nil {
			return "", err
		}
		if len(names) >= s.maxAccounts {
			return "", fmt.Errorf("%w: %d accounts", ErrAccountLimit, len(names))
		}
	}
	if err := s.Create(account, password); err != nil {
		return "", err
	}
	return account, nil
}

// Create writes a new vault: schema, salt, verifier and KDF parameters in
// one transaction. A failed create leaves no file behind.
func (s *Store) Create(account string, password []byte) (err error) {
	path := s.Path(account)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, account)
	}
	if err != nil {
		return fmt.Errorf("create vault file: %w", err)
	}
	f.Close()
	defer func() {
		if err != nil {
			os.Remove(path)
		}
	}()

	salt, err := wallet.NewSalt()
	if err != nil {
		return err
	}
	key := wallet.DeriveKey(password, salt, s.params)
	defer key.Zero()

	verifier, err := wallet.Seal(key, []byte(Verifier))
	if err != nil {
		return fmt.Errorf("seal verifier: %w", err)
	}

	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	const insert = `INSERT INTO meta (key, value) VALUES (?, ?)`
	for _, row := range []struct {
		key   string
		value []byte
	}{
		{metaSalt, salt},
		{metaVerifier, verifier},
		{metaKDF, encodeParams(s.params)},
	} {
		if _, err := tx.Exec(insert, row.key, row.value); err != nil {
			return fmt.Errorf("write meta %s: %w", row.key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	log.Vault.Info().Str("account", account).Msg("Vault created")
	return nil
}

// Open authenticates password against the vault and returns a connection
// holding the derived key.
func (s *Store) Open(account string, password []byte) (*Conn, error) {
	path := s.Path(account)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, account)
		}
		return nil, err
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	salt, err := readMeta(db, metaSalt)
	if err != nil {
		db.Close()
		return nil, err
	}
	verifier, err := readMeta(db, metaVerifier)
	if err != nil {
		db.Close()
		return nil, err
	}
	params := wallet.DefaultParams()
	if raw, err := readMeta(db, metaKDF); err == nil {
		if params, err = decodeParams(raw); err != nil {
			db.Close()
			return nil, err
		}
	} else if !errors.Is(err, ErrInvalidFormat) {
		db.Close()
		return nil, err
	}

	key := wallet.DeriveKey(password, salt, params)
	plain, err := wallet.Open(key, verifier)
	if err != nil || string(plain) != Verifier {
		key.Zero()
		db.Close()
		log.Vault.Debug().Str("account", account).Msg("Vault authentication failed")
		return nil, ErrWrongPassword
	}
	return &Conn{db: db, key: key, account: account}, nil
}

// withConn opens the vault, runs fn and closes it again.
func (s *Store) withConn(account string, password []byte, fn func(*Conn) error) error {
	c, err := s.Open(account, password)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

// AddCoin stores an encrypted coin entry. It returns false if the coin is
// already present.
func (s *Store) AddCoin(account string, password []byte, coin, address, wif string) (added bool, err error) {
	err = s.withConn(account, password, func(c *Conn) error {
		added, err = c.AddCoin(coin, address, wif)
		return err
	})
	return added, err
}

// CoinAddress returns the decrypted address for coin.
func (s *Store) CoinAddress(account string, password []byte, coin string) (addr string, err error) {
	err = s.withConn(account, password, func(c *Conn) error {
		addr, err = c.CoinAddress(coin)
		return err
	})
	return addr, err
}

// CoinWIF returns the decrypted WIF for coin.
func (s *Store) CoinWIF(account string, password []byte, coin string) (wif string, err error) {
	err = s.withConn(account, password, func(c *Conn) error {
		wif, err = c.CoinWIF(coin)
		return err
	})
	return wif, err
}

// Coins lists coin symbols in the order they were added.
func (s *Store) Coins(account string, password []byte) (coins []string, err error) {
	err = s.withConn(account, password, func(c *Conn) error {
		coins, err = c.Coins()
		return err
	})
	return coins, err
}

// AddTransaction records a transaction. It returns false if (coin, txid)
// is already recorded.
func (s *Store) AddTransaction(account string, password []byte, rec Record) (added bool, err error) {
	err = s.withConn(account, password, func(c *Conn) error {
		added, err = c.AddTransaction(rec)
		return err
	})
	return added, err
}

// Transactions returns the records for coin, most recently inserted first.
func (s *Store) Transactions(account string, password []byte, coin string) (recs []Record, err error) {
	err = s.withConn(account, password, func(c *Conn) error {
		recs, err = c.Transactions(coin)
		return err
	})
	return recs, err
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open vault db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(time.Minute)
	return db, nil
}

func readMeta(db *sql.DB, key string) ([]byte, error) {
	var v []byte
	err := db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidFormat, key)
	case isFormatError(err):
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	case err != nil:
		return nil, fmt.Errorf("read meta %s: %w", key, err)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty %s", ErrInvalidFormat, key)
	}
	return v, nil
}

func encodeParams(p wallet.EncryptionParams) []byte {
	b := make([]byte, 9)
	binary.LittleEndian.PutUint32(b[0:], p.Memory)
	binary.LittleEndian.PutUint32(b[4:], p.Iterations)
	b[8] = p.Parallelism
	return b
}

func decodeParams(b []byte) (wallet.EncryptionParams, error) {
	if len(b) != 9 {
		return wallet.EncryptionParams{}, fmt.Errorf("%w: kdf row is %d bytes", ErrInvalidFormat, len(b))
	}
	p := wallet.EncryptionParams{
		Memory:      binary.LittleEndian.Uint32(b[0:]),
		Iterations:  binary.LittleEndian.Uint32(b[4:]),
		Parallelism: b[8],
	}
	if err := p.Validate(); err != nil || p.Memory > maxKDFMemory {
		return wallet.EncryptionParams{}, fmt.Errorf("%w: bad kdf parameters", ErrInvalidFormat)
	}
	return p, nil
}

// isFormatError reports errors from a file that is not a vault database.
func isFormatError(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_ERROR:
		return true
	}
	return false
}

// isConstraint reports a primary key or unique violation.
func isConstraint(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
