// Command crowd-provision creates Crowd users from a JSON file, adds them to
// their groups and emails them their initial credentials.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "crowd-provision"
	app.Usage = "Provision Crowd users and group memberships from a JSON file."
	app.Version = version
	app.Flags = globalFlags()
	app.Commands = commands()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
