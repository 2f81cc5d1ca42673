package vault

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/insightwallet/insightwallet/internal/wallet"
)

const (
	ruleWide   = 40
	labelWidth = 15
	fieldWidth = 12
)

// Export builds the plaintext backup report for one coin. The report
// contains the private key.
func (s *Store) Export(account string, password []byte, coin string) (report string, err error) {
	err = s.withConn(account, password, func(c *Conn) error {
		report, err = c.Export(coin)
		return err
	})
	return report, err
}

// Export builds the backup report for coin from an open connection.
func (c *Conn) Export(coin string) (string, error) {
	address, err := c.CoinAddress(coin)
	if err != nil {
		return "", err
	}
	wif, err := c.CoinWIF(coin)
	if err != nil {
		return "", err
	}
	txs, err := c.Transactions(coin)
	if err != nil {
		return "", err
	}
	return formatExport(c.account, coin, address, wif, txs), nil
}

func formatExport(account, coin, address, wif string, txs []Record) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	field := func(label string, width int, value string) {
		line(fmt.Sprintf("%-*s: %s", width, label, value))
	}
	rule := strings.Repeat("=", ruleWide)

	line("WARNING")
	line("This file contains PRIVATE KEY.")
	line("Anyone with access can spend your funds.")
	line("Store OFFLINE and keep it secure.")
	line(rule)
	line("")

	line("WALLET COIN EXPORT")
	line(rule)
	field("Account", labelWidth, account)
	field("Coin", labelWidth, coin)
	line("")

	field("ADDRESS", labelWidth, address)
	field("WIF", labelWidth, wif)
	line("")

	line(fmt.Sprintf("Transactions (%d)", len(txs)))
	line(strings.Repeat("-", ruleWide))
	if len(txs) == 0 {
		line("No transactions recorded.")
	}
	for i, tx := range txs {
		line(fmt.Sprintf("[%d]", i+1))
		field("  TXID", fieldWidth+2, tx.TxID)
		field("  TYPE", fieldWidth+2, string(tx.Type))
		field("  AMOUNT", fieldWidth+2, wallet.FormatBalance(tx.Amount))
		field("  TIMESTAMP", fieldWidth+2, strconv.FormatInt(tx.Timestamp, 10))
		line("")
	}
	b.WriteString(rule)
	return b.String()
}

// WriteExport writes report to path with mode 0600. A non-empty
// passphrase encrypts the file with params. Existing files are never
// overwritten.
func WriteExport(path, report string, passphrase []byte, params wallet.EncryptionParams) error {
	data := []byte(report)
	if len(passphrase) > 0 {
		enc, err := wallet.Encrypt(data, passphrase, params)
		if err != nil {
			return fmt.Errorf("encrypt export: %w", err)
		}
		data = enc
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write export: %w", err)
	}
	return f.Close()
}

// ReadExport reads an export file written by WriteExport. Encrypted files
// need the passphrase used to write them.
func ReadExport(path string, passphrase []byte) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(passphrase) == 0 {
		return string(data), nil
	}
	plain, err := wallet.Decrypt(data, passphrase)
	if err != nil {
		if errors.Is(err, wallet.ErrAuthentication) {
			return "", fmt.Errorf("decrypt export: %w", ErrWrongPassword)
		}
		return "", err
	}
	return string(plain), nil
}

// ExportFileName is the default file name for an export of coin.
func ExportFileName(account, coin string, encrypted bool) string {
	name := SanitizeAccount(account) + "_" + coin + "_export.txt"
	if encrypted {
		name += ".enc"
	}
	return name
}
