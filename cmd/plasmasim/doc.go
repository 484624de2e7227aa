// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
plasmasim runs scripted exit scenarios against a payment exit game, a plasma
framework and an eth vault on a simulated clock.

Child chain blocks are kept in a block database in the data directory, so
later runs continue the block numbering of earlier ones.  Every other piece of
state only lives for the duration of a run.

The long form of all options (except -C) can be specified in a configuration
file that is automatically parsed when plasmasim starts up.  By default, the
configuration file is located at ~/.plasmasim/plasmasim.conf on POSIX-style
operating systems and %LOCALAPPDATA%\plasmasim\plasmasim.conf on Windows.  The
-C (--configfile) flag can be used to override this location.

Usage:

	plasmasim [OPTIONS]

Application Options:

	-V, --version                  Display version information and exit
	-C, --configfile=              Path to configuration file
	-b, --datadir=                 Directory to store the child chain block
	                               database
	    --logdir=                  Directory to log output
	    --nofilelogging            Disable file logging
	-d, --debuglevel=              Logging level for all subsystems {trace,
	                               debug, info, warn, error, critical} -- You
	                               may also specify
	                               <subsystem>=<level>,<subsystem2>=<level>,...
	                               to set the log level for individual
	                               subsystems -- Use show to list available
	                               subsystems (default: info)
	    --memdb                    Keep the block database in memory instead
	                               of the data directory
	    --memlimit=                Soft memory limit in MiB enforced by the
	                               runtime -- 0 leaves the limit alone
	    --profile=                 Enable HTTP profiling on given [addr:]port
	                               -- NOTE port must be between 1024 and 65535
	    --profileallownonloopback  Allow the profiling server to listen on non
	                               loopback addresses
	    --blockcachesize=          Number of child chain blocks kept in the
	                               in-memory block cache (default: 1024)
	    --minexitperiod=           Minimum time an exit stays challengeable
	                               (default: 168h0m0s)
	    --standardexitbond=        Initial standard exit bond in wei
	    --standardexitbounty=      Initial standard exit processing bounty in
	                               wei
	    --inflightexitbond=        Initial in-flight exit bond in wei
	    --inflightexitbounty=      Initial in-flight exit processing bounty in
	                               wei
	    --piggybackbond=           Initial piggyback bond in wei
	    --piggybackbounty=         Initial piggyback processing bounty in wei
	    --scenario=                Scenario to run {deposit, challenge,
	                               doublespend} -- May be repeated -- All
	                               scenarios run when none is given

Help Options:

	-h, --help                     Show this help message

Scenarios:

	deposit      deposit and exit the deposit after the minimum exit period
	challenge    exit a spent deposit and have the receiver challenge it
	doublespend  exit an in-flight transaction with a double spent input
*/
package main
