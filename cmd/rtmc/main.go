// Command rtmc compiles ledger call descriptions into transaction manifests.
package main

import (
	"errors"
	"fmt"
	"os"

	rtm "github.com/branched-services/go-rtm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

var (
	verbosityFlag = &cli.IntFlag{
		Name:    "verbosity",
		Usage:   "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value:   3,
		EnvVars: []string{"RTM_VERBOSITY"},
	}
	callFlag = &cli.StringFlag{
		Name:     "call",
		Usage:    "YAML file describing the call",
		Required: true,
		EnvVars:  []string{"RTM_CALL"},
	}
	registryFlag = &cli.StringFlag{
		Name:     "registry",
		Usage:    "YAML registry snapshot mapping names to addresses",
		Required: true,
		EnvVars:  []string{"RTM_REGISTRY"},
	}
	templatesFlag = &cli.StringFlag{
		Name:    "templates",
		Usage:   "Directory caching generated templates as .rtm files",
		EnvVars: []string{"RTM_TEMPLATES"},
	}
	templateDBFlag = &cli.StringFlag{
		Name:    "templates.db",
		Usage:   "LevelDB database caching generated templates",
		EnvVars: []string{"RTM_TEMPLATES_DB"},
	}
	feeFlag = &cli.StringFlag{
		Name:  "fee",
		Usage: "Amount locked for fees",
		Value: rtm.DefaultFeeLock,
	}
)

var compileCommand = &cli.Command{
	Name:   "compile",
	Usage:  "Print the generic manifest template of a call",
	Flags:  []cli.Flag{callFlag, feeFlag},
	Action: compileAction,
}

var bindCommand = &cli.Command{
	Name:   "bind",
	Usage:  "Resolve a call against a registry and print the final manifest",
	Flags:  []cli.Flag{callFlag, registryFlag, templatesFlag, templateDBFlag, feeFlag},
	Action: bindAction,
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "rtmc",
		Usage:    "ledger call manifest compiler",
		Flags:    []cli.Flag{verbosityFlag},
		Before:   setupLogging,
		Commands: []*cli.Command{compileCommand, bindCommand},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) error {
	useColor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
	level := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor)))
	return nil
}

func compileAction(ctx *cli.Context) error {
	call, err := loadCallFile(ctx.String(callFlag.Name))
	if err != nil {
		return err
	}
	target, err := call.Target()
	if err != nil {
		return err
	}

	m := rtm.Compile(target, rtm.WithFeeLock(ctx.String(feeFlag.Name)))
	if err := m.Validate(); err != nil {
		return err
	}
	log.Debug("Compiled manifest", "name", m.Name(), "handles", m.HandleCount(), "hash", m.Hash())

	_, err = fmt.Fprint(ctx.App.Writer, m.String())
	return err
}

func bindAction(ctx *cli.Context) error {
	call, err := loadCallFile(ctx.String(callFlag.Name))
	if err != nil {
		return err
	}
	target, err := call.Target()
	if err != nil {
		return err
	}
	reg, err := loadRegistry(ctx.String(registryFlag.Name))
	if err != nil {
		return err
	}
	cache, closeCache, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer closeCache()

	session := rtm.NewSession(reg, nil,
		rtm.WithTemplateCache(cache),
		rtm.WithCaller(call.Caller),
		rtm.WithCompileOptions(rtm.WithFeeLock(ctx.String(feeFlag.Name))),
	)
	prog, err := session.Prepare(target, call.Context())
	if err != nil {
		return err
	}

	w := ctx.App.Writer
	for _, b := range prog.Bindings {
		fmt.Fprintf(w, "# %s = %s\n", b.Placeholder, b.Value)
	}
	fmt.Fprintln(w)
	_, err = fmt.Fprint(w, prog.Text)
	return err
}

func loadRegistry(path string) (*rtm.MemoryRegistry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return rtm.LoadRegistry(f)
}

// openCache picks the template store named on the command line. Without
// one, templates live in memory for the duration of the command.
func openCache(ctx *cli.Context) (*rtm.TemplateCache, func(), error) {
	dir, db := ctx.String(templatesFlag.Name), ctx.String(templateDBFlag.Name)
	switch {
	case dir != "" && db != "":
		return nil, nil, errors.New("--templates and --templates.db are mutually exclusive")
	case dir != "":
		store, err := rtm.NewDirStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return rtm.NewTemplateCache(store), func() {}, nil
	case db != "":
		store, err := rtm.OpenLevelDBStore(db)
		if err != nil {
			return nil, nil, err
		}
		return rtm.NewTemplateCache(store), func() {
			if err := store.Close(); err != nil {
				log.Warn("Failed to close template database", "err", err)
			}
		}, nil
	default:
		return rtm.NewMemoryTemplateCache(), func() {}, nil
	}
}
