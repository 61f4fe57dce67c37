// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/farm/eventdb"
	"github.com/vechain/farm/genesis"
	"github.com/vechain/farm/kv"
	"github.com/vechain/farm/log"
	"github.com/vechain/farm/lvldb"
	"github.com/vechain/farm/node"
)

func initLogger(ctx *cli.Context) *slog.LevelVar {
	var level slog.LevelVar
	level.Set(log.FromLegacyLevel(int(ctx.Uint64(verbosityFlag.Name))))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stdout, &level)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, &level, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return &level
}

func selectGenesis(ctx *cli.Context) (*genesis.Genesis, error) {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		return genesis.NewDevnet(), nil
	}
	return genesis.Load(path)
}

// instanceDir is the per genesis directory under the data dir, so data of
// different genesis files never mix.
func instanceDir(ctx *cli.Context, gene *genesis.Genesis) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", errors.New("unable to infer default data dir, use -data-dir to specify")
	}
	id, err := gene.ID()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, fmt.Sprintf("instance-%x", id[24:])), nil
}

type stores struct {
	main   kv.Store
	events *eventdb.EventDB
	dir    string
	closer func()
}

func openStores(ctx *cli.Context, gene *genesis.Genesis, persist bool) (*stores, error) {
	if !persist {
		mainDB, err := lvldb.NewMem()
		if err != nil {
			return nil, err
		}
		eventDB, err := eventdb.NewMem()
		if err != nil {
			mainDB.Close()
			return nil, err
		}
		return &stores{mainDB, eventDB, "Memory", func() {
			eventDB.Close()
			mainDB.Close()
		}}, nil
	}

	dir, err := instanceDir(ctx, gene)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create instance dir [%v]", dir)
	}
	mainDB, err := lvldb.New(filepath.Join(dir, "main.db"), lvldb.Options{
		CacheSize:              128,
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, err
	}
	eventDB, err := eventdb.New(filepath.Join(dir, "events.db"))
	if err != nil {
		mainDB.Close()
		return nil, err
	}
	return &stores{mainDB, eventDB, dir, func() {
		log.Info("closing event database...")
		if err := eventDB.Close(); err != nil {
			log.Warn("failed to close event database", "err", err)
		}
		log.Info("closing main database...")
		if err := mainDB.Close(); err != nil {
			log.Warn("failed to close main database", "err", err)
		}
	}}, nil
}

func handleExitSignal() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		log.Info("exit signal received")
	}()
	return ctx, cancel
}

// reportStatus logs a one line summary of the ledger on every tick.
func reportStatus(ctx context.Context, n *node.Node, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s, err := n.Status()
			if err != nil {
				return err
			}
			log.Info("ledger status",
				"best", s.BestBlock,
				"staked", s.TotalStaked,
				"rate", s.Schedule.RewardRate,
				"end", s.Schedule.EndBlock,
				"paused", s.Paused,
			)
		}
	}
}

func printStartupMessage(gene *genesis.Genesis, n *node.Node, dataDir, apiURL, metricsURL, adminURL string) {
	s, err := n.Status()
	if err != nil {
		log.Warn("failed to read ledger status", "err", err)
		return
	}
	fmt.Printf(`Starting %v
    Genesis     [ %v | %v ]
    Best block  [ %v ]
    Ledger      [ %v ]
    Admin       [ %v ]
    Schedule    [ rate %v | %v -> %v ]
    Data dir    [ %v ]
    API portal  [ %v ]
    Metrics     [ %v ]
    Admin API   [ %v ]
`,
		fullVersion(),
		gene.Name, s.GenesisID,
		s.BestBlock,
		s.Ledger,
		s.Admin,
		s.Schedule.RewardRate, s.Schedule.StartBlock, s.Schedule.EndBlock,
		dataDir,
		apiURL,
		orDisabled(metricsURL),
		orDisabled(adminURL),
	)
}

func orDisabled(url string) string {
	if url == "" {
		return "Disabled"
	}
	return url
}

// copy from go-ethereum
func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "org.vechain.farm")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.farm")
		} else {
			return filepath.Join(home, ".org.vechain.farm")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
