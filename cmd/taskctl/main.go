// Command taskctl manages tasktracker accounts directly against the
// configured store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"tasktracker/internal/app"
	"tasktracker/internal/config"
	"tasktracker/internal/db"

	"github.com/spf13/pflag"
)

const usage = `usage: taskctl [--config FILE] <command> --username NAME [--password PASS]

commands:
  createuser       create a regular user
  createsuperuser  create a superuser
  checkpassword    verify a username/password pair

The password may also be supplied through TASKTRACKER_PASSWORD.
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var configPath, username, password string

	flagSet := pflag.NewFlagSet("taskctl", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", os.Getenv("TASKTRACKER_CONFIG"), "path to a YAML config file")
	flagSet.StringVarP(&username, "username", "u", "", "account username")
	flagSet.StringVarP(&password, "password", "p", os.Getenv("TASKTRACKER_PASSWORD"), "account password")
	flagSet.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("expected exactly one command\n%s", usage)
	}
	command := flagSet.Arg(0)

	cfg, err := config.Read(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Store.Validate(); err != nil {
		return err
	}
	store, err := db.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	identity := app.NewIdentityService(store.Users)

	switch command {
	case "createuser", "createsuperuser":
		var opts []app.UserOption
		if command == "createsuperuser" {
			opts = append(opts, app.WithSuperuser())
		}
		u, err := identity.CreateUser(ctx, username, password, opts...)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "created user %q (id %d, superuser %v)\n", u.Username, u.ID, u.IsSuperuser)
		return nil
	case "checkpassword":
		u, err := store.Users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if !identity.VerifyCredential(u, password) {
			return app.ErrInvalidCredentials
		}
		fmt.Fprintln(stdout, "ok")
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}
