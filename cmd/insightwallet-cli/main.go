// insightwallet-cli is the command-line wallet: accounts, coins, history,
// sending and key export.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/skip2/go-qrcode"
	"golang.org/x/term"

	"github.com/insightwallet/insightwallet/config"
	"github.com/insightwallet/insightwallet/internal/insight"
	klog "github.com/insightwallet/insightwallet/internal/log"
	"github.com/insightwallet/insightwallet/internal/node"
	"github.com/insightwallet/insightwallet/internal/reconcile"
	"github.com/insightwallet/insightwallet/internal/signer"
	"github.com/insightwallet/insightwallet/internal/spend"
	"github.com/insightwallet/insightwallet/internal/storage"
	"github.com/insightwallet/insightwallet/internal/vault"
	"github.com/insightwallet/insightwallet/internal/wallet"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	flags := &config.Flags{}

	// Scan for --datadir, --config and --log-level before the subcommand.
	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--datadir" && len(args) > 1:
			flags.DataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			flags.DataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--config" && len(args) > 1:
			flags.Config = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--config="):
			flags.Config = args[0][len("--config="):]
			args = args[1:]
		case args[0] == "--log-level" && len(args) > 1:
			flags.LogLevel = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--log-level="):
			flags.LogLevel = args[0][len("--log-level="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}
	cmd := args[0]
	cmdArgs := args[1:]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		usage()
		return
	}

	// The CLI prints results on stdout; keep log noise to warnings unless
	// asked for.
	if flags.LogLevel == "" {
		flags.LogLevel = "warn"
	}
	cfg, err := config.Resolve(flags)
	if err != nil {
		fatal("%v", err)
	}
	if err := node.InitLogging(cfg, "insightwallet-cli"); err != nil {
		fatal("%v", err)
	}
	defer klog.Close()

	app := &cli{cfg: cfg}

	switch cmd {
	case "account":
		app.cmdAccount(cmdArgs)
	case "coin":
		app.cmdCoin(cmdArgs)
	case "balance":
		app.cmdBalance(cmdArgs)
	case "history":
		app.cmdHistory(cmdArgs)
	case "sync":
		app.cmdSync(cmdArgs)
	case "send":
		app.cmdSend(cmdArgs)
	case "redeem":
		app.cmdRedeem(cmdArgs)
	case "fee":
		app.cmdFee(cmdArgs)
	case "status":
		app.cmdStatus(cmdArgs)
	case "decrypt-export":
		app.cmdDecryptExport(cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: insightwallet-cli [global flags] <command> [flags]

Global flags:
  --datadir <path>    Data directory (default: ~/.insightwallet)
  --config <path>     Config file (default: <datadir>/insightwallet.conf)
  --log-level <lvl>   debug, info, warn (default), error

Commands:
  account create --name <name>    Create an account (prompts for password)
  account list                    List local accounts

  coin supported                  List coins known to this wallet
  coin add --account <a> --coin <c> [--import] [--use-tool]
                                  Add a coin with a fresh or imported key
  coin list --account <a>         List the account's coins
  coin address --account <a> --coin <c> [--qr <file.png>]
                                  Show the receive address (and QR code)
  coin export --account <a> --coin <c> [--output <path>] [--encrypt] [--yes]
                                  Write a private key backup

  balance --account <a> [--coin <c>]
                                  Show balances
  history --account <a> --coin <c>
                                  Show recorded transactions
  sync --account <a> [--coins <c1,c2>]
                                  Poll once and record new transactions
  send --account <a> --coin <c> --to <addr> --amount <amt> [--fee <amt>] [--yes]
                                  Send coins
  redeem --account <a> --coin <c> [--source-address <addr>] [--yes]
                                  Sweep a foreign key into the account
  fee --account <a> --coin <c> --amount <amt> [--rate <units/byte>]
                                  Suggest a fee and the maximum sendable amount
  status --account <a>            Show the last sync per coin
  decrypt-export --file <path>    Print an encrypted export
`)
}

type cli struct {
	cfg *config.Config
}

func (c *cli) store() *vault.Store {
	s, err := vault.NewStore(c.cfg.VaultDir(), c.cfg.KDF.Params(), c.cfg.Accounts.Max)
	if err != nil {
		fatal("open vault directory: %v", err)
	}
	return s
}

// login prompts for the account password and unlocks a session.
func (c *cli) login(account string) *vault.Session {
	if account == "" {
		fatal("--account is required")
	}
	password, err := readPassword(fmt.Sprintf("Password for %s: ", account))
	if err != nil {
		fatal("read password: %v", err)
	}
	defer zero(password)

	s, err := c.store().Login(account, password)
	if err != nil {
		fatal("unlock %s: %v", account, err)
	}
	return s
}

func (c *cli) coin(symbol string) *config.Coin {
	if symbol == "" {
		fatal("--coin is required")
	}
	coin, err := c.cfg.Coins.Get(symbol)
	if err != nil {
		fatal("%v", err)
	}
	return coin
}

func (c *cli) client(coin *config.Coin) *insight.Client {
	cl, err := insight.New(coin, c.cfg.Chain)
	if err != nil {
		fatal("%v", err)
	}
	return cl
}

func (c *cli) signer() *signer.Tool {
	tool, err := node.NewSigner(c.cfg)
	if err != nil {
		fatal("signing tool: %v", err)
	}
	return tool
}

func (c *cli) planner(s *vault.Session, coin *config.Coin, withSigner bool) *spend.Planner {
	cl := c.client(coin)
	p := &spend.Planner{
		Coin:       coin,
		Chain:      cl,
		Keys:       s,
		Reconciler: &reconcile.Reconciler{Chain: cl, Recorder: s},
	}
	if withSigner {
		p.Signer = c.signer()
	}
	return p
}

// ── Accounts ────────────────────────────────────────────────────────────

func (c *cli) cmdAccount(args []string) {
	if len(args) < 1 {
		fatal("Usage: insightwallet-cli account <create|list> [flags]")
	}
	switch args[0] {
	case "create":
		c.cmdAccountCreate(args[1:])
	case "list":
		c.cmdAccountList()
	default:
		fatal("Unknown account command: %s\nUsage: insightwallet-cli account <create|list> [flags]", args[0])
	}
}

func (c *cli) cmdAccountCreate(args []string) {
	fs := flag.NewFlagSet("account create", flag.ExitOnError)
	name := fs.String("name", "", "Account name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: insightwallet-cli account create --name <name>")
	}

	fmt.Fprintf(os.Stderr, "Password: %d-%d characters with upper, lower, digit and one of %s; no spaces.\n",
		vault.MinPasswordLen, vault.MaxPasswordLen, vault.PasswordSpecials)
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	defer zero(password)
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	defer zero(confirm)
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	account, err := c.store().Register(*name, password)
	if err != nil {
		fatal("create account: %v", err)
	}
	fmt.Printf("Account created: %s\n", account)
}

func (c *cli) cmdAccountList() {
	names, err := c.store().ListAccounts()
	if err != nil {
		fatal("%v", err)
	}
	if len(names) == 0 {
		fmt.Println("No accounts found.")
		return
	}
	for _, n := range names {
		fmt.Println(n)
	}
}

// ── Coins ───────────────────────────────────────────────────────────────

func (c *cli) cmdCoin(args []string) {
	const help = "Usage: insightwallet-cli coin <supported|add|list|address|export> [flags]"
	if len(args) < 1 {
		fatal(help)
	}
	switch args[0] {
	case "supported":
		c.cmdCoinSupported()
	case "add":
		c.cmdCoinAdd(args[1:])
	case "list":
		c.cmdCoinList(args[1:])
	case "address":
		c.cmdCoinAddress(args[1:])
	case "export":
		c.cmdCoinExport(args[1:])
	default:
		fatal("Unknown coin command: %s\n%s", args[0], help)
	}
}

func (c *cli) cmdCoinSupported() {
	fmt.Printf("%-8s %-12s %-10s %s\n", "SYMBOL", "NAME", "BACKEND", "API")
	for _, sym := range c.cfg.Coins.Symbols() {
		coin := c.cfg.Coins[sym]
		api := coin.API
		if api == "" {
			api = "(not configured)"
		}
		fmt.Printf("%-8s %-12s %-10s %s\n", sym, coin.Name, coin.Backend, api)
	}
}

func (c *cli) cmdCoinAdd(args []string) {
	fs := flag.NewFlagSet("coin add", flag.ExitOnError)
	account := fs.String("account", "", "Account name")
	symbol := fs.String("coin", "", "Coin symbol")
	importKey := fs.Bool("import", false, "Import an existing WIF (prompted)")
	useTool := fs.Bool("use-tool", false, "Generate the key with the signing tool")
	fs.Parse(args)

	coin := c.coin(*symbol)
	params, err := coin.KeyParams()
	if err != nil {
		fatal("%v", err)
	}
	ctx, cancel := signalContext()
	defer cancel()

	var address, wif string
	switch {
	case *importKey:
		in, err := readPassword("WIF: ")
		if err != nil {
			fatal("read key: %v", err)
		}
		wif = strings.TrimSpace(string(in))
		zero(in)
		address, err = c.signer().AddressFromWIF(ctx, coin.Network, wif)
		if err != nil {
			fatal("derive address: %v", err)
		}
		local, err := wallet.AddressFromWIF(wif, params)
		if err != nil {
			fatal("decode key: %v", err)
		}
		if local.String() != address {
			fatal("signing tool derived %s but the key encodes %s", address, local)
		}
	case *useTool:
		k, err := c.signer().GenerateAddress(ctx, coin.Network)
		if err != nil {
			fatal("generate key: %v", err)
		}
		address, wif = k.Address, k.WIF
	default:
		k, err := wallet.GenerateKey(params)
		if err != nil {
			fatal("generate key: %v", err)
		}
		address, wif = k.Address, k.WIF
	}

	s := c.login(*account)
	defer s.Close()
	added, err := s.AddCoin(coin.Symbol, address, wif)
	if err != nil {
		fatal("add coin: %v", err)
	}
	if !added {
		fatal("%s is already in %s", coin.Symbol, s.Account())
	}
	fmt.Printf("Added %s to %s\n", coin.Symbol, s.Account())
	fmt.Printf("Address: %s\n", address)
}

func (c *cli) cmdCoinList(args []string) {
	fs := flag.NewFlagSet("coin list", flag.ExitOnError)
	account := fs.String("account", "", "Account name")
	fs.Parse(args)

	s := c.login(*account)
	defer s.Close()
	coins, err := s.Coins()
	if err != nil {
		fatal("%v", err)
	}
	if len(coins) == 0 {
		fmt.Println("No coins yet. Add one with: insightwallet-cli coin add")
		return
	}
	for _, sym := range coins {
		addr, err := s.CoinAddress(sym)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("%-8s %s\n", sym, addr)
	}
}

func (c *cli) cmdCoinAddress(args []string) {
	fs := flag.NewFlagSet("coin address", flag.ExitOnError)
	account := fs.String("account", "", "Account name")
	symbol := fs.String("coin", "", "Coin symbol")
	qrFile := fs.String("qr", "", "Write the address QR code as PNG to this file")
	fs.Parse(args)

	coin := c.coin(*symbol)
	s := c.login(*account)
	defer s.Close()
	addr, err := s.CoinAddress(coin.Symbol)
	if err != nil {
		fatal("%v", err)
	}

	qr, err := qrcode.New(addr, qrcode.Medium)
	if err != nil {
		fatal("create QR code: %v", err)
	}
	fmt.Println(addr)
	fmt.Println(qr.ToSmallString(false))
	if *qrFile != "" {
		if err := qr.WriteFile(256, *qrFile); err != nil {
			fatal("write QR code: %v", err)
		}
		fmt.Printf("QR code written to %s\n", *qrFile)
	}
}

func (c *cli) cmdCoinExport(args []string) {
	fs := flag.NewFlagSet("coin export", flag.ExitOnError)
	account := fs.String("account", "", "Account name")
	symbol := fs.String("coin", "", "Coin symbol")
	output := fs.String("output", "", "Output file (default: <datadir>/exports/<account>_<coin>_export.txt)")
	encrypt := fs.Bool("encrypt", false, "Encrypt the file with a separate passphrase")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Parse(args)

	coin := c.coin(*symbol)
	if !*yes && !confirm("The export contains the PRIVATE KEY in a file. Continue?") {
		fatal("export cancelled")
	}

	s := c.login(*account)
	defer s.Close()
	report, err := s.Export(coin.Symbol)
	if err != nil {
		fatal("export: %v", err)
	}

	var passphrase []byte
	if *encrypt {
		passphrase, err = readPassword("Export passphrase: ")
		if err != nil {
			fatal("read passphrase: %v", err)
		}
		defer zero(passphrase)
		again, err := readPassword("Confirm passphrase: ")
		if err != nil {
			fatal("read passphrase: %v", err)
		}
		defer zero(again)
		if len(passphrase) == 0 || string(passphrase) != string(again) {
			fatal("passphrases are empty or do not match")
		}
	}

	path := *output
	if path == "" {
		path = filepath.Join(c.cfg.ExportDir(), vault.ExportFileName(s.Account(), coin.Symbol, *encrypt))
	}
	if err := vault.WriteExport(path, report, passphrase, c.cfg.KDF.Params()); err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Exported %s keys to: %s\n", coin.Symbol, path)
}

// ── Chain ───────────────────────────────────────────────────────────────

func (c *cli) cmdBalance(args []string) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	account := fs.String("account", "", "Account name")
	symbol := fs.String("coin", "", "Coin symbol (default: all)")
	fs.Parse(args)

	s := c.login(*account)
	defer s.Close()
	coins := []string{}
	if *symbol != "" {
		coins = append(coins, c.coin(*symbol).Symbol)
	} else {
		var err error
		if coins, err = s.Coins(); err != nil {
			fatal("%v", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()
	fmt.Printf("%-8s %18s %18s %18s\n", "COIN", "CONFIRMED", "UNCONFIRMED", "SPENDABLE")
	for _, sym := range coins {
		coin := c.coin(sym)
		p := c.planner(s, coin, false)
		addr, err := p.Address()
		if err != nil {
			fatal("%v", err)
		}
		bal, err := p.Balance(ctx, addr)
		if err != nil {
			fmt.Printf("%-8s %18s\n", sym, "unavailable")
			continue
		}
		fmt.Printf("%-8s %18s %18s %18s\n", sym,
			wallet.FormatAmount(bal.Confirmed),
			wallet.FormatAmount(bal.Unconfirmed),
			wallet.FormatAmount(int64(bal.Spendable())))
	}
}

func (c *cli) cmdHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	account := fs.String("account", "", "Account name")
	symbol := fs.String("coin", "", "Coin symbol")
	fs.Parse(args)

	coin := c.coin(*symbol)
	s := c.login(*account)
	defer s.Close()
	recs, err := s.Transactions(coin.Symbol)
	if err != nil {
		fatal("%v", err)
	}
	if len(recs) == 0 {
		fmt.Println("No transactions recorded. Run: insightwallet-cli sync")
		return
	}
	for _, r := range recs {
		fmt.Printf("%s  %-7s  %18s  %s\n",
			time.Unix(r.Timestamp, 0).Format("2006-01-02 15:04:05"),
			r.Type, wallet.FormatBalance(r.Amount), r.TxID)
	}
}

func (c *cli) cmdSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	account := fs.String("account", "", "Account name")
	coins := fs.String("coins", "", "Comma-separated coins (default: all)")
	fs.Parse(args)

	var list []string
	for _, sym := range strings.Split(*coins, ",") {
		if sym = strings.TrimSpace(sym); sym != "" {
			list = append(list, strings.ToUpper(sym))
		}
	}

	s := c.login(*account)
	obs := &printObserver{}
	n, err := node.New(c.cfg, s, list, node.WithObserver(obs))
	if err != nil {
		fatal("%v", err)
	}
	defer n.Stop()

	ctx, cancel := signalContext()
	defer cancel()
	n.SyncOnce(ctx)
	if obs.records == 0 {
		fmt.Println("No new transactions.")
	}
}

// printObserver prints sync results for the one-shot sync.
type printObserver struct {
	records int
}

func (o *printObserver) OnHeight(coin string, height int64) {
	fmt.Printf("%-8s height %d\n", coin, height)
}

func (o *printObserver) OnBalance(coin string, bal *wallet.Balance) {
	fmt.Printf("%-8s balance %s (spendable %s)\n", coin,
		wallet.FormatAmount(bal.Confirmed), wallet.FormatAmount(int64(bal.Spendable())))
}

func (o *printObserver) OnRecords(coin string, recs []vault.Record) {
	o.records += len(recs)
	for _, r := range recs {
		fmt.Printf("%-8s new %-7s %s %s\n", coin, r.Type, wallet.FormatBalance(r.Amount), r.TxID)
	}
}

func (c *cli) cmdSend(args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	account := fs.String("account", "", "Account name")
	symbol := fs.String("coin", "", "Coin symbol")
	to := fs.String("to", "", "Destination address")
	amount := fs.String("amount", "", "Amount in coins (e.g. 1.5)")
	fee := fs.String("fee", "", "Fee in coins (default: coin default fee)")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Parse(args)

	coin := c.coin(*symbol)
	if *to == "" || *amount == "" {
		fatal("Usage: insightwallet-cli send --account <a> --coin <c> --to <addr> --amount <amt> [--fee <amt>]")
	}
	feeShown := *fee
	if feeShown == "" {
		feeShown = wallet.FormatAmount(int64(coin.DefaultFee))
	}
	if !*yes && !confirm(fmt.Sprintf("Send %s %s to %s with fee %s?", *amount, coin.Symbol, *to, feeShown)) {
		fatal("send cancelled")
	}

	s := c.login(*account)
	defer s.Close()
	p := c.planner(s, coin, true)

	ctx, cancel := signalContext()
	defer cancel()
	res, err := p.Send(ctx, spend.SendRequest{Destination: *to, Amount: *amount, Fee: *fee})
	if err != nil {
		fatal("%v", err)
	}
	printResult(res)
}

func (c *cli) cmdRedeem(args []string) {
	fs := flag.NewFlagSet("redeem", flag.ExitOnError)
	account := fs.String("account", "", "Account name")
	symbol := fs.String("coin", "", "Coin symbol")
	source := fs.String("source-address", "", "Address of the key being swept (checked against the key)")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Parse(args)

	coin := c.coin(*symbol)
	in, err := readPassword("WIF to sweep: ")
	if err != nil {
		fatal("read key: %v", err)
	}
	wif := strings.TrimSpace(string(in))
	zero(in)

	if !*yes && !confirm(fmt.Sprintf("Sweep all confirmed %s of this key into %s (fee %s)?",
		coin.Symbol, *account, wallet.FormatAmount(int64(coin.RedeemFee)))) {
		fatal("redeem cancelled")
	}

	s := c.login(*account)
	defer s.Close()
	p := c.planner(s, coin, true)

	ctx, cancel := signalContext()
	defer cancel()
	res, err := p.Redeem(ctx, spend.RedeemRequest{SourceWIF: wif, SourceAddress: *source})
	if err != nil {
		fatal("%v", err)
	}
	printResult(res)
}

func printResult(res *spend.SendResult) {
	fmt.Printf("Transaction sent: %s\n", res.TxID)
	fmt.Printf("  Amount: %s\n", wallet.FormatAmount(int64(res.Amount)))
	fmt.Printf("  Fee:    %s\n", wallet.FormatAmount(int64(res.Fee)))
	fmt.Printf("  Inputs: %d (%s)\n", len(res.Inputs), wallet.FormatAmount(int64(res.Total)))
	if res.Change > 0 {
		fmt.Printf("  Change: %s\n", wallet.FormatAmount(int64(res.Change)))
	}
	for _, r := range res.Records {
		fmt.Printf("  Recorded %s %s %s\n", r.Type, wallet.FormatBalance(r.Amount), r.TxID)
	}
}

func (c *cli) cmdFee(args []string) {
	fs := flag.NewFlagSet("fee", flag.ExitOnError)
	account := fs.String("account", "", "Account name")
	symbol := fs.String("coin", "", "Coin symbol")
	amount := fs.String("amount", "", "Amount in coins")
	rate := fs.Uint64("rate", 0, "Fee rate in units per byte (default: coin fee rate)")
	fs.Parse(args)

	coin := c.coin(*symbol)
	feeRate := *rate
	if feeRate == 0 {
		feeRate = coin.FeeRate
	}

	s := c.login(*account)
	defer s.Close()
	p := c.planner(s, coin, false)
	addr, err := p.Address()
	if err != nil {
		fatal("%v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	maxAmt, err := p.MaxAmount(ctx, addr, feeRate)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Max sendable: %s %s\n", wallet.FormatAmount(int64(maxAmt)), coin.Symbol)
	if *amount == "" {
		return
	}
	units, err := wallet.ParseAmount(*amount)
	if err != nil {
		fatal("%v", err)
	}
	fee, err := p.SuggestFee(ctx, addr, units, feeRate)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Suggested fee: %s %s (%d units/byte)\n", wallet.FormatAmount(int64(fee)), coin.Symbol, feeRate)
}

func (c *cli) cmdStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	account := fs.String("account", "", "Account name")
	fs.Parse(args)

	if *account == "" {
		fatal("Usage: insightwallet-cli status --account <a>")
	}
	db, err := storage.NewBadger(c.cfg.StateDir())
	if err != nil {
		fatal("%v", err)
	}
	defer db.Close()

	states, err := reconcile.NewStateStore(db).All(*account)
	if err != nil {
		fatal("%v", err)
	}
	if len(states) == 0 {
		fmt.Println("Never synced.")
		return
	}
	fmt.Printf("%-8s %10s %8s  %s\n", "COIN", "HEIGHT", "TXS", "SYNCED")
	for _, sym := range c.cfg.Coins.Symbols() {
		st, ok := states[sym]
		if !ok {
			continue
		}
		fmt.Printf("%-8s %10d %8d  %s\n", sym, st.Height, st.Records, st.SyncedAt.Local().Format(time.RFC3339))
	}
}

func (c *cli) cmdDecryptExport(args []string) {
	fs := flag.NewFlagSet("decrypt-export", flag.ExitOnError)
	file := fs.String("file", "", "Encrypted export file")
	fs.Parse(args)

	if *file == "" {
		fatal("Usage: insightwallet-cli decrypt-export --file <path>")
	}
	passphrase, err := readPassword("Export passphrase: ")
	if err != nil {
		fatal("read passphrase: %v", err)
	}
	defer zero(passphrase)
	report, err := vault.ReadExport(*file, passphrase)
	if errors.Is(err, vault.ErrWrongPassword) {
		fatal("wrong passphrase")
	}
	if err != nil {
		fatal("%v", err)
	}
	fmt.Println(report)
}

// ── Helpers ─────────────────────────────────────────────────────────────

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
