package vault

import (
	"sync"
)

// Session is an unlocked account. It keeps a private copy of the password
// and re-authenticates through the Store on every call; no derived key
// outlives a call. Session is safe for concurrent use.
type Session struct {
	store   *Store
	account string

	mu       sync.RWMutex
	password []byte
}

// Login authenticates once and returns a session for account.
func (s *Store) Login(account string, password []byte) (*Session, error) {
	c, err := s.Open(account, password)
	if err != nil {
		return nil, err
	}
	c.Close()

	pw := make([]byte, len(password))
	copy(pw, password)
	return &Session{store: s, account: account, password: pw}, nil
}

// Account returns the session's account name.
func (s *Session) Account() string {
	return s.account
}

// Close wipes the password. Later calls return ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.password {
		s.password[i] = 0
	}
	s.password = nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.password == nil
}

func (s *Session) with(fn func(*Conn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.password == nil {
		return ErrSessionClosed
	}
	return s.store.withConn(s.account, s.password, fn)
}

// AddCoin stores a coin entry; false means the coin already exists.
func (s *Session) AddCoin(coin, address, wif string) (added bool, err error) {
	err = s.with(func(c *Conn) error {
		added, err = c.AddCoin(coin, address, wif)
		return err
	})
	return added, err
}

func (s *Session) CoinAddress(coin string) (addr string, err error) {
	err = s.with(func(c *Conn) error {
		addr, err = c.CoinAddress(coin)
		return err
	})
	return addr, err
}

func (s *Session) CoinWIF(coin string) (wif string, err error) {
	err = s.with(func(c *Conn) error {
		wif, err = c.CoinWIF(coin)
		return err
	})
	return wif, err
}

func (s *Session) Coins() (coins []string, err error) {
	err = s.with(func(c *Conn) error {
		coins, err = c.Coins()
		return err
	})
	return coins, err
}

// AddTransaction records rec; false means it was already recorded.
func (s *Session) AddTransaction(rec Record) (added bool, err error) {
	err = s.with(func(c *Conn) error {
		added, err = c.AddTransaction(rec)
		return err
	})
	return added, err
}

func (s *Session) Transactions(coin string) (recs []Record, err error) {
	err = s.with(func(c *Conn) error {
		recs, err = c.Transactions(coin)
		return err
	})
	return recs, err
}

// TxIDs returns the recorded txids for coin.
func (s *Session) TxIDs(coin string) (ids map[string]struct{}, err error) {
	err = s.with(func(c *Conn) error {
		ids, err = c.TxIDs(coin)
		return err
	})
	return ids, err
}

func (s *Session) Export(coin string) (report string, err error) {
	err = s.with(func(c *Conn) error {
		report, err = c.Export(coin)
		return err
	})
	return report, err
}
