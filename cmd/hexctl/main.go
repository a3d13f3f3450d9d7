// Command hexctl operates a running hexworlds server: inspect and watch the
// session, move world files in and out, share snapshots and render PNGs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/talgya/hexworlds/internal/client"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, c *client.Client, args []string) error
}

var commands = []command{
	{"status", "show the session summary and recent activity", runStatus},
	{"watch", "follow status changes live", runWatch},
	{"export", "write the world file to FILE or stdout", runExport},
	{"import", "replace the server's map with FILE", runImport},
	{"generate", "replace the server's map with a generated one", runGenerate},
	{"save", "save the map now", runSave},
	{"share", "publish a snapshot and copy its link", runShare},
	{"render", "write a PNG of the map, from the server or a local world file", runRender},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	global := pflag.NewFlagSet("hexctl", pflag.ExitOnError)
	server := global.StringP("server", "s", envOrDefault("HEXCTL_SERVER", "http://localhost:8080"), "hexworlds base URL")
	key := global.StringP("key", "k", os.Getenv("HEXWORLDS_ADMIN_KEY"), "admin key for edit routes")
	wait := global.Duration("wait", 0, "wait up to this long for the server to come up")
	global.SetInterspersed(false)
	global.Usage = usage
	global.Parse(os.Args[1:])

	args := global.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := lookup(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "hexctl: unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(*server, *key)
	if *wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, *wait)
		err := c.WaitReady(waitCtx)
		cancel()
		if err != nil {
			fmt.Fprintln(os.Stderr, "hexctl:", err)
			os.Exit(1)
		}
	}

	if err := cmd.run(ctx, c, args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "hexctl:", err)
		os.Exit(1)
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: hexctl [--server URL] [--key KEY] [--wait DUR] <command> [flags]")
	fmt.Fprintln(os.Stderr)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", c.name, c.usage)
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// flags returns a subcommand flag set that exits on -h.
func flags(name string) *pflag.FlagSet {
	return pflag.NewFlagSet("hexctl "+name, pflag.ExitOnError)
}

// requestTimeout bounds one-shot commands.
const requestTimeout = 30 * time.Second
