/*
Package cli provides command-line interface utilities for breakwater.

The cli package includes typed command errors, signal handling helpers, and a
progress reporter used by the breakwater command.

Error Types:

Typed errors distinguish configuration problems from command failures so the
root command can choose exit codes and messages:

	if err := config.Initialize(path); err != nil {
		return cli.NewConfigError("config", err.Error())
	}

Signal Handling:

SetupSignalHandler returns a context canceled on SIGINT or SIGTERM, which the
run command passes down to the server for graceful shutdown:

	ctx := cli.SetupSignalHandler()
	srv.Start(ctx)

Progress Reporting:

The bench command uses ProgressReporter to show live progress while it fires
paced traffic at a gateway.
*/
package cli
