// Command pennywise-cli manages expenses through the pennywise REST API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"pennywise/internal/api"
	"pennywise/internal/cli"
	"pennywise/internal/config"
	"pennywise/internal/log"
)

const usage = `usage: pennywise-cli <command> [flags]

commands:
  list                      list every transaction
  get <id>                  show one transaction
  add -d DESC -a AMOUNT [-c CATEGORY] [-k KIND] [-date YYYY-MM-DD]
  edit <id> -d DESC -a AMOUNT [-c CATEGORY] [-k KIND] [-date YYYY-MM-DD]
  delete <id> [-yes]        delete a transaction, asking first unless -yes
  category <category>       list one category
  type <credit|debit>       list income or expenses
  summary [-date YYYY-MM-DD]
  export -o FILE            write FILE as .csv or .xlsx

PENNYWISE_API_URL selects the server (default http://localhost:8000/api).
`

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	cfg.LogLevel = "warn"
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentCLI)

	client := api.NewClient(cfg.APIBaseURL, cfg.APITimeout, nil, logger.WithComponent(log.ComponentAPI))
	app := &app{client: client, in: os.Stdin, out: os.Stdout, errOut: os.Stderr}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()
	os.Exit(app.run(ctx, os.Args[1:]))
}

type app struct {
	client *api.Client
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.errOut, usage)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.errOut, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
	if err := cmd(a, ctx, args[1:]); err != nil {
		fmt.Fprintln(a.errOut, "error:", err)
		return 1
	}
	return 0
}
