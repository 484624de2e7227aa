// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/plasma-network/exitgame/blockdb"
	"github.com/plasma-network/exitgame/internal/limits"
	"github.com/plasma-network/exitgame/internal/version"
)

// openBlockDB opens the block database the configuration asks for.
func openBlockDB(cfg *config) (*blockdb.DB, error) {
	if cfg.MemDB {
		return blockdb.OpenMem(cfg.BlockCacheSize)
	}
	return blockdb.Open(cfg.DataDir, cfg.BlockCacheSize)
}

// runScenarios runs the configured scenarios in order until one fails or a
// shutdown is requested.
func runScenarios(ctx context.Context, s *simulator) error {
	for _, name := range s.cfg.Scenarios {
		if shutdownRequested(ctx) {
			return nil
		}
		simuLog.Infof("Running %s scenario", name)
		if err := scenarioFuncs[name](s); err != nil {
			return fmt.Errorf("%s scenario: %w", name, err)
		}
		simuLog.Infof("Scenario %s passed", name)
	}
	return nil
}

// plasmasimMain is the real main function for plasmasim.  It is necessary to
// work around the fact that deferred functions do not run when os.Exit() is
// called.
func plasmasimMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	cfg, _, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	// Get a context that will be canceled when a shutdown signal has been
	// triggered from an OS signal such as SIGINT (Ctrl+C).
	ctx := shutdownListener()

	// Show version at startup.
	simuLog.Infof("Version %s (Go version %s %s/%s)", version.String(),
		runtime.Version(), runtime.GOOS, runtime.GOARCH)

	if cfg.MemLimit != 0 {
		limits.SetMemoryLimitMiB(cfg.MemLimit)
		simuLog.Infof("Soft memory limit set to %d MiB", cfg.MemLimit)
	}

	// Enable the profiling server if requested.
	if cfg.Profile != "" {
		var profiler profileServer
		err := profiler.Start(cfg.Profile, cfg.ProfileAllowNonLoopback)
		if err != nil {
			simuLog.Errorf("%v", err)
			return err
		}
		defer profiler.Stop()
	}

	db, err := openBlockDB(cfg)
	if err != nil {
		simuLog.Errorf("%v", err)
		return err
	}
	defer func() {
		// Ensure the database is sync'd and closed on shutdown.
		simuLog.Infof("Gracefully shutting down the block database...")
		if err := db.Close(); err != nil {
			simuLog.Errorf("Failed to close the block database: %v", err)
		}
	}()

	s, err := newSimulator(cfg, db)
	if err != nil {
		simuLog.Errorf("Unable to create the simulator: %v", err)
		return err
	}
	err = runScenarios(ctx, s)
	s.report()
	if err != nil {
		simuLog.Errorf("%v", err)
		return err
	}
	simuLog.Info("Simulation complete")
	return nil
}

func main() {
	if err := plasmasimMain(); err != nil {
		os.Exit(1)
	}
}
