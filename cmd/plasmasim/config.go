// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/decred/dcrd/dcrutil/v4"
	flags "github.com/jessevdk/go-flags"
	"github.com/plasma-network/exitgame/blockdb"
	"github.com/plasma-network/exitgame/internal/version"
	"github.com/plasma-network/exitgame/sampleconfig"
)

const (
	defaultConfigFilename = "plasmasim.conf"
	defaultDataDirname    = "data"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "plasmasim.log"
	defaultLogLevel       = "info"
	defaultMinExitPeriod  = 7 * 24 * time.Hour

	// Initial bonds of the payment exit game in wei.  Each bounty is a
	// tenth of its bond.
	defaultStandardExitBond = 14000000000000000
	defaultInFlightExitBond = 37000000000000000
	defaultPiggybackBond    = 28000000000000000
)

var (
	defaultHomeDir    = dcrutil.AppDataDir("plasmasim", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(defaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

// scenarioFuncs maps the names of the supported scenarios to the functions
// running them.
var scenarioFuncs = map[string]func(*simulator) error{
	"deposit":     (*simulator).depositExitScenario,
	"challenge":   (*simulator).challengedExitScenario,
	"doublespend": (*simulator).doubleSpentInFlightScenario,
}

// config defines the configuration options for plasmasim.
//
// See loadConfig for details on the configuration load process.
type config struct {
	// General application behavior.
	ShowVersion   bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile    string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir       string `short:"b" long:"datadir" description:"Directory to store the child chain block database"`
	LogDir        string `long:"logdir" description:"Directory to log output"`
	NoFileLogging bool   `long:"nofilelogging" description:"Disable file logging"`
	DebugLevel    string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	MemDB         bool   `long:"memdb" description:"Keep the block database in memory instead of the data directory"`
	MemLimit      uint64 `long:"memlimit" description:"Soft memory limit in MiB enforced by the runtime -- 0 leaves the limit alone"`

	// Profiling.
	Profile                 string `long:"profile" description:"Enable HTTP profiling on given [addr:]port -- NOTE port must be between 1024 and 65535"`
	ProfileAllowNonLoopback bool   `long:"profileallownonloopback" description:"Allow the profiling server to listen on non loopback addresses"`

	// Block database.
	BlockCacheSize uint32 `long:"blockcachesize" description:"Number of child chain blocks kept in the in-memory block cache"`

	// Exit game parameters.
	MinExitPeriod      time.Duration `long:"minexitperiod" description:"Minimum time an exit stays challengeable"`
	StandardExitBond   uint64        `long:"standardexitbond" description:"Initial standard exit bond in wei"`
	StandardExitBounty uint64        `long:"standardexitbounty" description:"Initial standard exit processing bounty in wei"`
	InFlightExitBond   uint64        `long:"inflightexitbond" description:"Initial in-flight exit bond in wei"`
	InFlightExitBounty uint64        `long:"inflightexitbounty" description:"Initial in-flight exit processing bounty in wei"`
	PiggybackBond      uint64        `long:"piggybackbond" description:"Initial piggyback bond in wei"`
	PiggybackBounty    uint64        `long:"piggybackbounty" description:"Initial piggyback processing bounty in wei"`

	// Simulation.
	Scenarios []string `long:"scenario" description:"Scenario to run {deposit, challenge, doublespend} -- May be repeated -- All scenarios run when none is given"`
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Nothing to do when no path is given.
	if path == "" {
		return path
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows cmd.exe-style
	// %VARIABLE%, but the variables can still be expanded via POSIX-style
	// $VARIABLE.
	path = os.ExpandEnv(path)
	if !strings.HasPrefix(path, "~") {
		return filepath.Clean(path)
	}

	// Expand initial ~ to the current user's home directory, or ~otheruser
	// to otheruser's home directory.  On Windows, both forward and backward
	// slashes can be used.
	path = path[1:]
	var pathSeparators string
	if runtime.GOOS == "windows" {
		pathSeparators = string(os.PathSeparator) + "/"
	} else {
		pathSeparators = string(os.PathSeparator)
	}
	if i := strings.IndexAny(path, pathSeparators); i != -1 && i != 0 {
		// ~otheruser lookups are not supported.
		return filepath.Clean("~" + path)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean("~" + path)
	}
	return filepath.Join(homeDir, path)
}

// createDefaultConfigFile writes the sample config to the passed path when
// nothing exists there yet.
func createDefaultConfigFile(destPath string) error {
	if _, err := os.Stat(destPath); !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0700); err != nil {
		return err
	}
	return os.WriteFile(destPath, []byte(sampleconfig.Plasmasim()), 0600)
}

// supportedScenarios returns a sorted slice of the supported scenarios.
func supportedScenarios() []string {
	scenarios := make([]string, 0, len(scenarioFuncs))
	for name := range scenarioFuncs {
		scenarios = append(scenarios, name)
	}
	sort.Strings(scenarios)
	return scenarios
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in plasmasim functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options.  Command line options always take
// precedence.
func loadConfig(args []string) (*config, []string, error) {
	// Default config.
	cfg := config{
		ConfigFile:         defaultConfigFile,
		DataDir:            defaultDataDir,
		LogDir:             defaultLogDir,
		DebugLevel:         defaultLogLevel,
		BlockCacheSize:     blockdb.DefaultCacheSize,
		MinExitPeriod:      defaultMinExitPeriod,
		StandardExitBond:   defaultStandardExitBond,
		StandardExitBounty: defaultStandardExitBond / 10,
		InFlightExitBond:   defaultInFlightExitBond,
		InFlightExitBounty: defaultInFlightExitBond / 10,
		PiggybackBond:      defaultPiggybackBond,
		PiggybackBounty:    defaultPiggybackBond / 10,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.  Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Printf("%s version %s (Go version %s %s/%s)\n", appName,
			version.String(), runtime.Version(), runtime.GOOS,
			runtime.GOARCH)
		os.Exit(0)
	}

	// Create the default config file when the default location is used
	// and it does not exist yet.
	if preCfg.ConfigFile == defaultConfigFile {
		if err := createDefaultConfigFile(defaultConfigFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating a default config "+
				"file: %v\n", err)
		}
	}

	// Load additional config from file.
	parser := flags.NewParser(&cfg, flags.Default)
	configFile := cleanAndExpandPath(preCfg.ConfigFile)
	err = flags.NewIniParser(parser).ParseFile(configFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			err := fmt.Errorf("error parsing config file: %w", err)
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %w", "loadConfig", err)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, nil, err
	}

	// The minimum exit period must be positive and whole seconds since
	// exits become processable at second granularity.
	if cfg.MinExitPeriod < time.Second || cfg.MinExitPeriod%time.Second != 0 {
		str := "%s: the minimum exit period must be a positive number of " +
			"seconds -- parsed [%v]"
		err := fmt.Errorf(str, "loadConfig", cfg.MinExitPeriod)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, nil, err
	}

	// Validate the profile address.
	if cfg.Profile != "" {
		err := validateProfileAddr(portToLocalHostAddr(cfg.Profile))
		if err != nil {
			err := fmt.Errorf("%s: invalid profile address: %w",
				"loadConfig", err)
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
	}

	// Validate the requested scenarios and run all of them when none is
	// given.
	if len(cfg.Scenarios) == 0 {
		cfg.Scenarios = supportedScenarios()
	}
	for _, name := range cfg.Scenarios {
		if _, ok := scenarioFuncs[name]; !ok {
			str := "%s: unknown scenario %q -- supported scenarios %v"
			err := fmt.Errorf(str, "loadConfig", name,
				supportedScenarios())
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
	}

	// Initialize log rotation.  After log rotation has been initialized,
	// the logger variables may be used.
	if !cfg.NoFileLogging {
		initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))
	}

	return &cfg, remainingArgs, nil
}
