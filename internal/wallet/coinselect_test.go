package wallet

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

type utxoSpec struct {
	conf  int64
	value uint64
}

func makeUTXOs(specs ...utxoSpec) []UTXO {
	utxos := make([]UTXO, len(specs))
	for i, s := range specs {
		utxos[i] = UTXO{
			TxID:          fmt.Sprintf("%064x", i+1),
			Vout:          uint32(i),
			Value:         s.value,
			Confirmations: s.conf,
		}
	}
	return utxos
}

func TestSelectCoins_SkipsUnconfirmed(t *testing.T) {
	utxos := makeUTXOs(
		utxoSpec{conf: 3, value: 1 * Coin},
		utxoSpec{conf: 1, value: Coin / 2},
		utxoSpec{conf: 0, value: 5 * Coin},
	)
	sel, err := SelectCoins(utxos, 120_000_000)
	if err != nil {
		t.Fatalf("SelectCoins: %v", err)
	}
	if sel.Total != 150_000_000 {
		t.Errorf("total = %d, want 150000000", sel.Total)
	}
	if len(sel.Inputs) != 2 {
		t.Fatalf("inputs = %d, want 2", len(sel.Inputs))
	}
	if sel.Inputs[0].Confirmations != 3 || sel.Inputs[1].Confirmations != 1 {
		t.Errorf("input order = %d,%d, want 3,1", sel.Inputs[0].Confirmations, sel.Inputs[1].Confirmations)
	}
	for _, in := range sel.Inputs {
		if in.Confirmations == 0 {
			t.Error("unconfirmed UTXO must not be selected")
		}
	}
	if sel.Change != 30_000_000 {
		t.Errorf("change = %d, want 30000000", sel.Change)
	}
}

func TestSelectCoins_StopsAtThreshold(t *testing.T) {
	utxos := makeUTXOs(
		utxoSpec{conf: 1, value: 100},
		utxoSpec{conf: 9, value: 1000},
		utxoSpec{conf: 5, value: 50},
	)
	sel, err := SelectCoins(utxos, 500)
	if err != nil {
		t.Fatalf("SelectCoins: %v", err)
	}
	if len(sel.Inputs) != 1 || sel.Inputs[0].Value != 1000 {
		t.Errorf("inputs = %+v, want the 9-conf output only", sel.Inputs)
	}
}

func TestSelectCoins_Errors(t *testing.T) {
	tests := []struct {
		name    string
		utxos   []UTXO
		target  uint64
		wantErr error
	}{
		{"no utxos", nil, 100, ErrNoUTXOs},
		{"only unconfirmed", makeUTXOs(utxoSpec{0, 1000}), 100, ErrNoUTXOs},
		{"negative confirmations", makeUTXOs(utxoSpec{-1, 1000}), 100, ErrNoUTXOs},
		{"zero value", makeUTXOs(utxoSpec{5, 0}), 100, ErrNoUTXOs},
		{"insufficient", makeUTXOs(utxoSpec{1, 40}, utxoSpec{2, 50}), 100, ErrInsufficientFunds},
		{"unconfirmed would cover", makeUTXOs(utxoSpec{1, 40}, utxoSpec{0, 500}), 100, ErrInsufficientFunds},
		{"input total overflows", makeUTXOs(utxoSpec{2, math.MaxUint64 - 10}, utxoSpec{1, 100}), math.MaxUint64, ErrValueOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SelectCoins(tt.utxos, tt.target)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSelectCoinsWithFee_Overflow(t *testing.T) {
	huge := makeUTXOs(utxoSpec{2, math.MaxUint64 - 10}, utxoSpec{1, 100})
	if _, err := SelectCoinsWithFee(huge, math.MaxUint64-5, 0, 2, MinConfSpend); !errors.Is(err, ErrValueOverflow) {
		t.Errorf("input overflow: err = %v, want ErrValueOverflow", err)
	}
	small := makeUTXOs(utxoSpec{1, 1000})
	if _, err := SelectCoinsWithFee(small, math.MaxUint64, 1, 2, MinConfSpend); !errors.Is(err, ErrValueOverflow) {
		t.Errorf("amount plus fee: err = %v, want ErrValueOverflow", err)
	}
}

func TestSelectCoins_ZeroTarget(t *testing.T) {
	if _, err := SelectCoins(makeUTXOs(utxoSpec{1, 10}), 0); err == nil {
		t.Error("zero target should fail")
	}
}

func TestSelectCoinsWithFee_RunningFee(t *testing.T) {
	// Rate 1: one input, two outputs = 226; two inputs = 374.
	utxos := makeUTXOs(
		utxoSpec{conf: 10, value: 1000},
		utxoSpec{conf: 5, value: 1000},
	)

	sel, err := SelectCoinsWithFee(utxos, 700, 1, 2, MinConfSpend)
	if err != nil {
		t.Fatalf("SelectCoinsWithFee: %v", err)
	}
	if len(sel.Inputs) != 1 || sel.Fee != 226 || sel.Change != 74 {
		t.Errorf("got inputs=%d fee=%d change=%d, want 1/226/74", len(sel.Inputs), sel.Fee, sel.Change)
	}

	sel, err = SelectCoinsWithFee(utxos, 800, 1, 2, MinConfSpend)
	if err != nil {
		t.Fatalf("SelectCoinsWithFee: %v", err)
	}
	if len(sel.Inputs) != 2 || sel.Fee != 374 || sel.Change != 826 {
		t.Errorf("got inputs=%d fee=%d change=%d, want 2/374/826", len(sel.Inputs), sel.Fee, sel.Change)
	}

	if _, err := SelectCoinsWithFee(utxos, 1700, 1, 2, MinConfSpend); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestSelectCoinsWithFee_ConfirmationFloor(t *testing.T) {
	utxos := makeUTXOs(utxoSpec{conf: 0, value: 10_000}, utxoSpec{conf: -1, value: 10_000})

	if _, err := SelectCoinsWithFee(utxos, 100, 1, 2, MinConfSpend); !errors.Is(err, ErrNoUTXOs) {
		t.Errorf("spend floor: err = %v, want ErrNoUTXOs", err)
	}

	sel, err := SelectCoinsWithFee(utxos, 100, 1, 2, MinConfEstimate)
	if err != nil {
		t.Fatalf("estimate floor: %v", err)
	}
	if len(sel.Inputs) != 1 || sel.Inputs[0].Confirmations != 0 {
		t.Errorf("estimate floor should use the 0-conf output only, got %+v", sel.Inputs)
	}
}

func TestEligible_StableOrder(t *testing.T) {
	utxos := makeUTXOs(utxoSpec{2, 1}, utxoSpec{7, 2}, utxoSpec{2, 3}, utxoSpec{0, 4})
	got := Eligible(utxos, MinConfSpend)
	want := []uint64{2, 1, 3}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Value != want[i] {
			t.Errorf("got[%d].Value = %d, want %d", i, got[i].Value, want[i])
		}
	}
	if TotalValue(got) != 6 {
		t.Errorf("TotalValue = %d, want 6", TotalValue(got))
	}
}
