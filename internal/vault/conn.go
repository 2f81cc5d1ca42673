package vault

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightwallet/insightwallet/internal/wallet"
)

// TxType is the wallet-relative direction of a recorded transaction.
type TxType string

const (
	TxSend    TxType = "send"
	TxReceive TxType = "receive"
)

// Record is one transaction history entry.
type Record struct {
	Coin      string
	TxID      string
	Type      TxType
	Amount    decimal.Decimal
	Timestamp int64 // unix seconds
}

// Conn is an authenticated vault connection. It holds the derived key
// until Close.
type Conn struct {
	db      *sql.DB
	key     *wallet.Key
	account string
}

// Account returns the account the connection was opened for.
func (c *Conn) Account() string {
	return c.account
}

// Close zeroes the key and closes the database.
func (c *Conn) Close() error {
	c.key.Zero()
	return c.db.Close()
}

// AddCoin seals address and wif and inserts them. It returns false if the
// coin is already present.
func (c *Conn) AddCoin(coin, address, wif string) (bool, error) {
	encAddr, err := wallet.Seal(c.key, []byte(address))
	if err != nil {
		return false, fmt.Errorf("seal address: %w", err)
	}
	encWIF, err := wallet.Seal(c.key, []byte(wif))
	if err != nil {
		return false, fmt.Errorf("seal wif: %w", err)
	}
	_, err = c.db.Exec(`INSERT INTO coins (coin, address, wif, created_at) VALUES (?, ?, ?, ?)`,
		coin, encAddr, encWIF, time.Now().Unix())
	if isConstraint(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert coin: %w", err)
	}
	return true, nil
}

// CoinAddress decrypts the address stored for coin.
func (c *Conn) CoinAddress(coin string) (string, error) {
	return c.coinField("address", coin)
}

// CoinWIF decrypts the WIF stored for coin.
func (c *Conn) CoinWIF(coin string) (string, error) {
	return c.coinField("wif", coin)
}

func (c *Conn) coinField(column, coin string) (string, error) {
	var enc []byte
	err := c.db.QueryRow(`SELECT `+column+` FROM coins WHERE coin = ?`, coin).Scan(&enc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrCoinNotFound, coin)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", column, err)
	}
	plain, err := wallet.Open(c.key, enc)
	if err != nil {
		return "", fmt.Errorf("decrypt %s for %s: %w", column, coin, err)
	}
	return string(plain), nil
}

// Coins lists coin symbols in insertion order.
func (c *Conn) Coins() ([]string, error) {
	rows, err := c.db.Query(`SELECT coin FROM coins ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list coins: %w", err)
	}
	defer rows.Close()

	var coins []string
	for rows.Next() {
		var coin string
		if err := rows.Scan(&coin); err != nil {
			return nil, err
		}
		coins = append(coins, coin)
	}
	return coins, rows.Err()
}

// AddTransaction inserts rec. It returns false if (coin, txid) is already
// recorded.
func (c *Conn) AddTransaction(rec Record) (bool, error) {
	if rec.Type != TxSend && rec.Type != TxReceive {
		return false, fmt.Errorf("invalid transaction type %q", rec.Type)
	}
	_, err := c.db.Exec(`INSERT INTO transactions (coin, txid, type, amount, timestamp) VALUES (?, ?, ?, ?, ?)`,
		rec.Coin, rec.TxID, string(rec.Type), rec.Amount.StringFixed(wallet.Decimals), rec.Timestamp)
	if isConstraint(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert transaction: %w", err)
	}
	return true, nil
}

// Transactions returns the records for coin, most recently inserted first.
func (c *Conn) Transactions(coin string) ([]Record, error) {
	rows, err := c.db.Query(`SELECT txid, type, amount, timestamp FROM transactions WHERE coin = ? ORDER BY id DESC`, coin)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var (
			r      = Record{Coin: coin}
			typ    string
			amount string
		)
		if err := rows.Scan(&r.TxID, &typ, &amount, &r.Timestamp); err != nil {
			return nil, err
		}
		r.Type = TxType(typ)
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s amount %q: %w", r.TxID, amount, err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// TxIDs returns the set of recorded txids for coin.
func (c *Conn) TxIDs(coin string) (map[string]struct{}, error) {
	rows, err := c.db.Query(`SELECT txid FROM transactions WHERE coin = ?`, coin)
	if err != nil {
		return nil, fmt.Errorf("list txids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}
