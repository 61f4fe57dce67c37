// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/farm/api"
	"github.com/vechain/farm/cmd/farm/httpserver"
	"github.com/vechain/farm/genesis"
	"github.com/vechain/farm/health"
	"github.com/vechain/farm/log"
	"github.com/vechain/farm/metrics"
	"github.com/vechain/farm/node"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

const statusInterval = time.Minute

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Farm",
		Usage:     "Proportional reward farm ledger",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			dataDirFlag,
			genesisFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiEventsLimitFlag,
			apiSlowQueriesThresholdFlag,
			enableAPILogsFlag,
			blockIntervalFlag,
			onDemandFlag,
			persistFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "status",
				Usage: "print the ledger status of a persisted data dir",
				Flags: []cli.Flag{
					dataDirFlag,
					genesisFlag,
				},
				Action: statusAction,
			},
			{
				Name:   "genesis",
				Usage:  "print the built-in devnet genesis as YAML",
				Action: genesisAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal, stop := handleExitSignal()
	defer stop()
	defer func() { log.Info("exited") }()

	logLevel := initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}
	st, err := openStores(ctx, gene, ctx.Bool(persistFlag.Name))
	if err != nil {
		return err
	}
	defer st.closer()

	n, err := node.New(st.main, st.events, gene)
	if err != nil {
		return err
	}

	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))
	onDemand := ctx.Bool(onDemandFlag.Name)

	handler, apiCloser := api.New(n, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		Timeout:              time.Duration(ctx.Uint64(apiTimeoutFlag.Name)) * time.Millisecond,
		OnDemand:             onDemand,
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		EnableReqLogger:      apiLogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		EventsLimit:          ctx.Uint64(apiEventsLimitFlag.Name),
	})
	defer func() { log.Info("stopping subscriptions..."); apiCloser() }()

	apiURL, srvCloser, err := httpserver.StartAPIServer(ctx.String(apiAddrFlag.Name), handler)
	if err != nil {
		return err
	}
	defer func() { log.Info("stopping API server..."); srvCloser() }()

	var interval time.Duration
	if !onDemand {
		interval = time.Duration(ctx.Uint64(blockIntervalFlag.Name)) * time.Second
		if interval == 0 {
			return errors.New("block-interval must be positive, use --on-demand to mint blocks over the API")
		}
	}
	// two missed blocks make the node unhealthy
	nodeHealth := health.New(2 * interval)

	var metricsURL, adminURL string
	if ctx.Bool(enableMetricsFlag.Name) {
		url, closer, err := httpserver.StartMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer func() { log.Info("stopping metrics server..."); closer() }()
		metricsURL = url
	}
	if ctx.Bool(enableAdminFlag.Name) {
		url, closer, err := httpserver.StartAdminServer(ctx.String(adminAddrFlag.Name), logLevel, apiLogs, nodeHealth)
		if err != nil {
			return err
		}
		defer func() { log.Info("stopping admin server..."); closer() }()
		adminURL = url
	}

	printStartupMessage(gene, n, st.dir, apiURL, metricsURL, adminURL)

	group, groupCtx := errgroup.WithContext(exitSignal)
	group.Go(func() error {
		return n.Run(groupCtx, interval)
	})
	group.Go(func() error {
		return nodeHealth.Watch(groupCtx, n.Chain())
	})
	group.Go(func() error {
		return reportStatus(groupCtx, n, statusInterval)
	})
	return group.Wait()
}

func statusAction(ctx *cli.Context) error {
	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}
	dir, err := instanceDir(ctx, gene)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); err != nil {
		return errors.Wrapf(err, "no ledger data for genesis %q", gene.Name)
	}

	log.SetDefault(log.NewLogger(log.DiscardHandler()))
	st, err := openStores(ctx, gene, true)
	if err != nil {
		return err
	}
	defer st.closer()

	n, err := node.New(st.main, st.events, gene)
	if err != nil {
		return err
	}
	s, err := n.Status()
	if err != nil {
		return err
	}
	reward := n.Token(node.RewardToken)
	staked := n.Token(node.StakedToken)
	fmt.Printf(`Genesis        %v (%v)
Best block     %v
Ledger         %v
Admin          %v
Paused         %v
Total staked   %v
Reward rate    %v per block
Window         %v -> %v
Last settled   %v
State entries  %v
`,
		s.Genesis, s.GenesisID,
		s.BestBlock,
		s.Ledger,
		s.Admin,
		s.Paused,
		staked.Format(s.TotalStaked),
		reward.Format(s.Schedule.RewardRate),
		s.Schedule.StartBlock, s.Schedule.EndBlock,
		s.Schedule.LastSettledBlock,
		s.StateEntries,
	)
	return nil
}

func genesisAction(_ *cli.Context) error {
	data, err := genesis.NewDevnet().Encode()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
