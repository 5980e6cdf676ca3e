package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/example/nativenotify/internal/config"
)

type configCmd struct {
	*root
	fs *flag.FlagSet
}

func (c *configCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c := &configCmd{root: r.subcommand("config"), fs: fs}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) != 1 {
		return &UsageError{of: c}
	}

	switch args[0] {
	case "print":
		return c.runPrint()
	case "save":
		return c.runSave()
	default:
		return invalidf("unknown config command: %s", args[0])
	}
}

func (c *configCmd) runPrint() error {
	_, err := fmt.Fprint(c.stdout, c.root.config.String())
	return err
}

func (c *configCmd) runSave() error {
	// Save over the file that was loaded, otherwise to the XDG location.
	loader := c.loader()
	path := loader.GetConfigPath()
	if path == "" {
		var err error
		if path, err = loader.SavePath(); err != nil {
			return fmt.Errorf("failed to resolve config path: %w", err)
		}
	}
	if err := config.Save(c.root.config, path); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	fmt.Fprintf(c.stderr, "Configuration saved to %s\n", path)
	return nil
}
