package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/casperlabs/casper-go/cli/deploys"
	"github.com/casperlabs/casper-go/cli/query"
	"github.com/urfave/cli"
)

// Version is the version of the client, set at build time.
var Version string

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "casper-client\nVersion: %s\nGoVersion: %s\n",
		Version,
		runtime.Version(),
	)
}

// New creates a casper-client instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "casper-client"
	ctl.Version = Version
	ctl.Usage = "Go client for submitting and observing deploys"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, deploys.NewCommands()...)
	ctl.Commands = append(ctl.Commands, query.NewCommands()...)
	return ctl
}
