package insight

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightwallet/insightwallet/config"
)

const addr = "t1UYsZVJkLPeMjxEtACvSxfWuNmddpWfxzs"

func newTestClient(t *testing.T, backend config.Backend, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	coin := &config.Coin{Symbol: "BTCZ", API: srv.URL + "/api/", Backend: backend}
	c, err := New(coin, config.ChainConfig{Timeout: 2 * time.Second, UserAgent: "insightwallet-test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_Endpoint(t *testing.T) {
	if _, err := New(&config.Coin{Symbol: "BTCZ"}, config.ChainConfig{}); !errors.Is(err, ErrNoEndpoint) {
		t.Errorf("empty api: err = %v, want ErrNoEndpoint", err)
	}
	if _, err := New(&config.Coin{Symbol: "BTCZ", API: "ftp://x"}, config.ChainConfig{}); err == nil {
		t.Error("ftp api accepted")
	}
}

func TestClient_InsightReads(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/addr/"+addr, func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "insightwallet-test" {
			t.Errorf("User-Agent = %q", ua)
		}
		io.WriteString(w, `{"addrStr":"`+addr+`","balance":10.5,"unconfirmedBalance":-0.25}`)
	})
	mux.HandleFunc("/api/addr/"+addr+"/utxo", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"txid":"aa","vout":1,"amount":1.5,"satoshis":150000000,"confirmations":3,"scriptPubKey":"76a9"},
			{"txid":"bb","vout":0,"amount":"0.1","confirmations":0}
		]`)
	})
	mux.HandleFunc("/api/txs/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("address"); got != addr {
			t.Errorf("address query = %q", got)
		}
		io.WriteString(w, `{"pagesTotal":1,"txs":[{"txid":"aa","time":1700000000,"blocktime":1700000100,
			"vin":[{"addr":"other","value":2}],
			"vout":[{"value":"1.5","scriptPubKey":{"addresses":["`+addr+`"]}}]}]}`)
	})
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"info":{"blocks":1234567}}`)
	})
	c := newTestClient(t, config.BackendInsight, mux)
	ctx := context.Background()

	info, err := c.AddressInfo(ctx, addr)
	if err != nil || info == nil {
		t.Fatalf("AddressInfo = %v, %v", info, err)
	}
	bal := info.WalletBalance()
	if bal.Confirmed != 1_050_000_000 || bal.Unconfirmed != -25_000_000 {
		t.Errorf("balance = %+v", bal)
	}

	utxos, err := c.UTXOs(ctx, addr)
	if err != nil || len(utxos) != 2 {
		t.Fatalf("UTXOs = %v, %v", utxos, err)
	}
	wu := WalletUTXOs(utxos)
	if wu[0].Value != 150_000_000 || wu[0].Confirmations != 3 || wu[0].ScriptPubKey != "76a9" {
		t.Errorf("utxo[0] = %+v", wu[0])
	}
	if wu[1].Value != 10_000_000 {
		t.Errorf("utxo[1] value from string amount = %d", wu[1].Value)
	}

	txs, err := c.Transactions(ctx, addr)
	if err != nil || len(txs) != 1 {
		t.Fatalf("Transactions = %v, %v", txs, err)
	}
	if !txs[0].Vout[0].PaysTo(addr) || txs[0].Vin[0].Pays(addr) {
		t.Error("address matching on decoded tx is wrong")
	}
	if !txs[0].Vout[0].Value.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("vout value = %s", txs[0].Vout[0].Value)
	}

	h, err := c.BlockHeight(ctx)
	if err != nil || h != 1234567 {
		t.Errorf("BlockHeight = %d, %v", h, err)
	}
}

func TestClient_BlockbookPaths(t *testing.T) {
	seen := map[string]bool{}
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[r.URL.Path] = true
		switch r.URL.Path {
		case "/api/address/" + addr:
			io.WriteString(w, `{"balance":"2.0","unconfirmedBalance":"0"}`)
		case "/api/utxo/" + addr:
			io.WriteString(w, `[]`)
		case "/api/address/" + addr + "/txs":
			io.WriteString(w, `{"transactions":[{"txid":"cc","vin":[{"addresses":["`+addr+`"],"value":"1"}],"vout":[]}]}`)
		default:
			http.NotFound(w, r)
		}
	})
	c := newTestClient(t, config.BackendBlockbook, h)
	ctx := context.Background()

	if info, err := c.AddressInfo(ctx, addr); err != nil || info == nil {
		t.Fatalf("AddressInfo = %v, %v", info, err)
	}
	if _, err := c.UTXOs(ctx, addr); err != nil {
		t.Fatalf("UTXOs: %v", err)
	}
	txs, err := c.Transactions(ctx, addr)
	if err != nil || len(txs) != 1 || !txs[0].Vin[0].Pays(addr) {
		t.Fatalf("Transactions = %+v, %v", txs, err)
	}
	for _, p := range []string{"/api/address/" + addr, "/api/utxo/" + addr, "/api/address/" + addr + "/txs"} {
		if !seen[p] {
			t.Errorf("path %s not requested", p)
		}
	}
}

func TestClient_HeightFallbacks(t *testing.T) {
	tests := []struct {
		body string
		want int64
	}{
		{`{"info":{"blocks":10},"backend":{"blocks":20}}`, 10},
		{`{"backend":{"blocks":20},"blockbook":{"bestHeight":30}}`, 20},
		{`{"blockbook":{"bestHeight":30}}`, 30},
		{`{}`, 0},
	}
	for _, tt := range tests {
		body := tt.body
		c := newTestClient(t, config.BackendBlockbook, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		}))
		got, err := c.BlockHeight(context.Background())
		if err != nil || got != tt.want {
			t.Errorf("BlockHeight(%s) = %d, %v; want %d", tt.body, got, err, tt.want)
		}
	}
}

func TestClient_NoData(t *testing.T) {
	c := newTestClient(t, config.BackendInsight, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid address", http.StatusBadRequest)
	}))
	ctx := context.Background()

	info, err := c.AddressInfo(ctx, "bogus")
	if info != nil || err != nil {
		t.Errorf("AddressInfo on 400 = %v, %v; want nil, nil", info, err)
	}
	utxos, err := c.UTXOs(ctx, "bogus")
	if utxos != nil || err != nil {
		t.Errorf("UTXOs on 400 = %v, %v", utxos, err)
	}
	h, err := c.BlockHeight(ctx)
	if h != 0 || err != nil {
		t.Errorf("BlockHeight on 400 = %d, %v", h, err)
	}
}

func TestClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, err := New(&config.Coin{Symbol: "BTCZ", API: srv.URL}, config.ChainConfig{Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.AddressInfo(context.Background(), addr); !errors.Is(err, ErrUnavailable) {
		t.Errorf("timeout: err = %v, want ErrUnavailable", err)
	}
}

func TestClient_BroadcastInsight(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, config.BackendInsight, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tx/send" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		if got["rawtx"] == "bad" {
			http.Error(w, "txn-mempool-conflict", http.StatusBadRequest)
			return
		}
		io.WriteString(w, `{"txid":"abcd"}`)
	}))
	ctx := context.Background()

	res, err := c.Broadcast(ctx, "0100")
	if err != nil || !res.OK || res.TxID != "abcd" {
		t.Fatalf("Broadcast = %+v, %v", res, err)
	}
	if got["rawtx"] != "0100" {
		t.Errorf("payload = %v", got)
	}

	res, err = c.Broadcast(ctx, "bad")
	if err != nil || res.OK {
		t.Fatalf("rejected Broadcast = %+v, %v", res, err)
	}
	if res.Message != "Node returned 400: txn-mempool-conflict" {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestClient_BroadcastBlockbook(t *testing.T) {
	c := newTestClient(t, config.BackendBlockbook, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sendtx" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var p map[string]string
		json.NewDecoder(r.Body).Decode(&p)
		if p["hex"] == "" {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"empty"}`)
			return
		}
		io.WriteString(w, `{"result":"ffee"}`)
	}))

	res, err := c.Broadcast(context.Background(), "0200")
	if err != nil || !res.OK || res.TxID != "ffee" {
		t.Fatalf("Broadcast = %+v, %v", res, err)
	}
	res, _ = c.Broadcast(context.Background(), "")
	if res.OK || res.Message != `Node returned 400: {"error":"empty"}` {
		t.Errorf("rejected = %+v", res)
	}
}

func TestClient_BroadcastNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(&config.Coin{Symbol: "BTCZ", API: url}, config.ChainConfig{Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Broadcast(context.Background(), "0100")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
	if res.OK || len(res.Message) < 14 || res.Message[:14] != "Network error:" {
		t.Errorf("Message = %q", res.Message)
	}
}
