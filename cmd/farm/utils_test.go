// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/farm/genesis"
	"github.com/vechain/farm/node"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range []cli.Flag{dataDirFlag, genesisFlag, verbosityFlag, jsonLogsFlag} {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSelectGenesis(t *testing.T) {
	gene, err := selectGenesis(newContext(t))
	require.NoError(t, err)
	assert.Equal(t, "devnet", gene.Name)

	data, err := genesis.NewDevnet().Encode()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(string(data), "devnet", "custom", 1)), 0o600))

	gene, err = selectGenesis(newContext(t, "--genesis", path))
	require.NoError(t, err)
	assert.Equal(t, "custom", gene.Name)

	_, err = selectGenesis(newContext(t, "--genesis", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestInstanceDir(t *testing.T) {
	dataDir := t.TempDir()
	ctx := newContext(t, "--data-dir", dataDir)

	dir, err := instanceDir(ctx, genesis.NewDevnet())
	require.NoError(t, err)
	assert.Equal(t, dataDir, filepath.Dir(dir))
	assert.True(t, strings.HasPrefix(filepath.Base(dir), "instance-"))

	_, err = instanceDir(newContext(t, "--data-dir", ""), genesis.NewDevnet())
	assert.Error(t, err)
}

func TestOpenStoresPersist(t *testing.T) {
	ctx := newContext(t, "--data-dir", t.TempDir())
	gene := genesis.NewDevnet()

	st, err := openStores(ctx, gene, true)
	require.NoError(t, err)
	n, err := node.New(st.main, st.events, gene)
	require.NoError(t, err)
	_, err = n.Mint()
	require.NoError(t, err)
	st.closer()

	st, err = openStores(ctx, gene, true)
	require.NoError(t, err)
	defer st.closer()
	n, err = node.New(st.main, st.events, gene)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), n.Chain().CurrentBlock())
}

func TestOpenStoresMemory(t *testing.T) {
	st, err := openStores(newContext(t), genesis.NewDevnet(), false)
	require.NoError(t, err)
	defer st.closer()
	assert.Equal(t, "Memory", st.dir)
}

func TestInitLogger(t *testing.T) {
	lvl := initLogger(newContext(t, "--verbosity", "4", "--json-logs"))
	assert.Equal(t, "DEBUG", lvl.Level().String())
}
