package main

import (
	"fmt"
	"os"

	"github.com/galimov-i/music-site/pkg/store"
	"github.com/galimov-i/music-site/services/site/internal/config"
)

func main() {
	root := newRootCmd(openStore, os.Stdout)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the store named by the site config. Opening runs
// migrations.
func openStore(configPath string) (store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return store.NewGormStore(cfg.DSN())
}
