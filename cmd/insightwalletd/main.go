// InsightWallet watch daemon.
//
// Usage:
//
//	insightwalletd --account <name> [--coins BTCZ,ZEC]  Unlock and watch
//	insightwalletd --help                               Show help
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/insightwallet/insightwallet/config"
	klog "github.com/insightwallet/insightwallet/internal/log"
	"github.com/insightwallet/insightwallet/internal/node"
	"github.com/insightwallet/insightwallet/internal/vault"
)

func main() {
	cfg, flags, err := config.Load()
	if err != nil {
		fatal("%v", err)
	}
	if flags.Account == "" {
		config.PrintUsage(os.Stderr)
		fatal("--account is required")
	}
	if err := node.InitLogging(cfg, "insightwalletd"); err != nil {
		fatal("%v", err)
	}

	store, err := vault.NewStore(cfg.VaultDir(), cfg.KDF.Params(), cfg.Accounts.Max)
	if err != nil {
		fatal("%v", err)
	}

	fmt.Fprintf(os.Stderr, "Password for %s: ", flags.Account)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatal("read password: %v", err)
	}
	session, err := store.Login(flags.Account, password)
	for i := range password {
		password[i] = 0
	}
	if err != nil {
		fatal("unlock %s: %v", flags.Account, err)
	}

	n, err := node.New(cfg, session, flags.Coins)
	if err != nil {
		fatal("%v", err)
	}

	if err := n.Start(); err != nil {
		n.Stop()
		fatal("%v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	n.Stop()
	klog.Close()
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
