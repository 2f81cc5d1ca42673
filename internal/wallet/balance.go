package wallet

// Balance is an address balance in units. Unconfirmed is the signed net
// delta of mempool transactions.
type Balance struct {
	Confirmed   int64
	Unconfirmed int64
}

// Spendable returns confirmed + min(unconfirmed, 0), floored at zero.
// Outgoing unconfirmed spends reduce it at once; incoming ones count only
// after they confirm.
func (b Balance) Spendable() uint64 {
	s := b.Confirmed
	if b.Unconfirmed < 0 {
		s += b.Unconfirmed
	}
	if s < 0 {
		return 0
	}
	return uint64(s)
}
