// Package cli wires configuration, the synchronization engine and the
// optional post-processing steps into the raddo command.
//
// The root command runs one synchronization:
//
//	validate -> confirm -> ensure directory -> sync -> history -> metrics
//	         -> mirror -> sort -> extract -> summary
//
// Confirmations are skipped with --yes. Declining one ends the program
// with exit code 0. Configuration errors exit with 2, anything else that
// stops a run with 1. Files that could not be retrieved are reported but do
// not change the exit code.
package cli
