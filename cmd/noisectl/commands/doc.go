// Package commands defines the noisectl CLI.
//
// # Commands
//
//   - keygen   Generate an identity keypair into the encrypted key store
//   - demo     Run an in-process handshake and exchange through the boundary
//   - errors   Print the stable status code table
//
// # Implementation
//
// The root command resolves the key store directory (--dir, defaulting
// to ~/.noisectl) and the logging level (--verbose) before any
// subcommand runs. Commands that touch the key store require the
// passphrase flag and open the store themselves, so nothing is decrypted
// unless the invoked command needs it.
package commands
