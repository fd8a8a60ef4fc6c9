// Package cli provides the interactive gophauth command-line client.
//
// It wires configuration and the HTTP API client into a REPL: register or
// log in, then verify, refresh or drop the bearer token, look at your
// profile, list accounts and change your password. Passwords are read from
// the terminal without echo and wiped from memory after use.
//
// The REPL is started with App.Run(ctx), which blocks until the user exits.
package cli
