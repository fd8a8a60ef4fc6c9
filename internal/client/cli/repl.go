package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Verify(ctx context.Context) error
	Refresh(ctx context.Context) error
	Me(ctx context.Context) error
	Users(ctx context.Context) error
	Passwd(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads one command per line and dispatches it to a until the user
// types "exit" or "quit" or input ends. Command prompts read from the same
// reader, so no input is lost between them.
//
//	Not logged in:
//	  - help           show available commands
//	  - register       create an account (logs in on success)
//	  - login          authenticate
//	  - exit | quit    leave the program
//
//	Logged in:
//	  - verify         check the held token against the server
//	  - refresh        get a fresh token
//	  - me             show your profile
//	  - users          list accounts
//	  - passwd         change your password
//	  - logout         forget the token
//
// Handlers report their own errors, so the loop ignores them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("gophauth %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: verify, refresh, me, users, passwd, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "verify":
			_ = a.Verify(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "me", "profile":
			_ = a.Me(ctx)

		case "users":
			_ = a.Users(ctx)

		case "passwd":
			_ = a.Passwd(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
