package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docopt/docopt-go"

	"github.com/spf13/viper"

	"golang.org/x/term"

	"github.com/mruediger/xrl"
)

const Version = "0.1.0"

const DefaultCoreCommand = "xi-core"

func main() {
	usage := `xi core driver.

Sends editor commands to a xi core process over its stdin/stdout rpc
channel. In edit mode every input line is inserted into the buffer;
lines starting with ":" are commands (:save, :undo, :redo, :quit).

Usage:
    xrlctl edit <file> [--core=<core>] [--theme=<theme>]
    xrlctl send <method> [<params>] [--core=<core>]

Options:
    -h --help          Show this screen.
    --version          Show version.
    --core=<core>      Core command to spawn.
    --theme=<theme>    Theme to select after startup.

The core command and theme can also be set in
$HOME/.config/xrlctl/xrlctl.yml (keys: core, theme, config_dir).`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], Version)
	if err != nil {
		panic(err)
	}

	loadConfig()

	if edit_, _ := opts.Bool("edit"); edit_ {
		edit(opts)
	} else if send_, _ := opts.Bool("send"); send_ {
		send(opts)
	}
}

func loadConfig() {
	viper.SetConfigName("xrlctl")
	viper.SetConfigType("yml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "xrlctl"))
	}
	viper.SetDefault("core", DefaultCoreCommand)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "config error: %s\n", err)
			os.Exit(1)
		}
	}
}

func coreCommand(opts docopt.Opts) string {
	if coreAny := opts["--core"]; coreAny != nil {
		return coreAny.(string)
	}
	return viper.GetString("core")
}

func startClient(opts docopt.Opts, handler xrl.FrontendHandler) (*xrl.Client, context.Context) {
	ctx := context.Background()

	transport, err := xrl.NewCoreProcWithDefaults(ctx, handler, coreCommand(opts))
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot start core: %s\n", err)
		os.Exit(1)
	}

	client := xrl.NewClient(ctx, transport)
	if err := client.ClientStarted(viper.GetString("config_dir"), ""); err != nil {
		fmt.Fprintf(os.Stderr, "client_started: %s\n", err)
		os.Exit(1)
	}
	return client, ctx
}

func edit(opts docopt.Opts) {
	file := opts["<file>"].(string)

	handler := &xrl.FrontendFuncs{
		OnNotification: func(method string, params json.RawMessage) {
			// the interesting pushes for a line driver
			switch method {
			case "update", "scroll_to":
			default:
				fmt.Printf("<- %s\n", method)
			}
		},
	}

	client, ctx := startClient(opts, handler)
	defer client.Close()

	view, err := client.NewViewSync(ctx, file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new_view: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("view: %s\n", view)

	theme := viper.GetString("theme")
	if themeAny := opts["--theme"]; themeAny != nil {
		theme = themeAny.(string)
	}
	if theme != "" {
		client.SetTheme(theme)
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	in := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("> ")
		}
		if !in.Scan() {
			break
		}
		line := in.Text()
		if strings.HasPrefix(line, ":") {
			if quit := command(ctx, client, view, file, line); quit {
				break
			}
			continue
		}
		if err := client.Insert(view, line); err != nil {
			fmt.Fprintf(os.Stderr, "insert: %s\n", err)
			break
		}
		client.InsertNewline(view)
	}

	client.CloseView(view)
}

// command runs one ":" command against the view. Returns true on :quit.
func command(ctx context.Context, client *xrl.Client, view xrl.ViewId, file string, line string) bool {
	switch line {
	case ":quit", ":q":
		return true
	case ":save", ":w":
		if err := client.Save(view, file); err != nil {
			fmt.Fprintf(os.Stderr, "save: %s\n", err)
		}
	case ":undo":
		client.Undo(view)
	case ":redo":
		client.Redo(view)
	case ":copy":
		if value, err := client.Copy(view).Await(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "copy: %s\n", err)
		} else {
			fmt.Printf("%s\n", value)
		}
	case ":selectall":
		client.SelectAll(view)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", line)
	}
	return false
}

// send issues one raw request and prints the reply. Useful for poking at
// core methods that have no typed entry point yet.
func send(opts docopt.Opts) {
	method := opts["<method>"].(string)
	params := json.RawMessage("{}")
	if paramsAny := opts["<params>"]; paramsAny != nil {
		params = json.RawMessage(paramsAny.(string))
	}

	client, ctx := startClient(opts, nil)
	defer client.Close()

	value, err := client.Request(method, params).Await(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", method, err)
		os.Exit(1)
	}
	fmt.Printf("%s\n", value)
}
