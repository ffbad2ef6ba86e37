package main

import (
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultDataDirname = "trinitynode"
	defaultListenAddr  = ":8633"
)

var defaultDataDir = filepath.Join(os.Getenv("HOME"), "."+defaultDataDirname)

type config struct {
	DataDir      string   `long:"datadir" description:"Directory to store blocks and chain state"`
	ListenAddr   string   `long:"listen" description:"Address to listen for peer connections on"`
	ConnectPeers []string `long:"connect" description:"Address of a peer to connect to on startup; may be given multiple times"`
	Mine         bool     `long:"mine" description:"Mine new blocks"`
	MinerAddress string   `long:"miner-address" description:"Beneficiary address credited with mined coinbase rewards"`
	Threads      int      `long:"threads" description:"Number of parallel mining worker goroutines" default:"1"`
	LogLevel     string   `long:"loglevel" description:"Logging level for all subsystems" default:"info"`
}

func parseConfig() (*config, error) {
	cfg := &config{DataDir: defaultDataDir, ListenAddr: defaultListenAddr}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	if cfg.Mine && cfg.MinerAddress == "" {
		return nil, errors.New("--mine requires --miner-address")
	}
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, errors.Wrapf(err, "creating data directory %s", cfg.DataDir)
	}

	return cfg, nil
}
