package main

import (
	"flag"
	"fmt"
)

type capabilitiesCmd struct {
	*root
}

func parseCapabilitiesCmd(args []string, r *root) (*capabilitiesCmd, error) {
	c := &capabilitiesCmd{root: r.subcommand("capabilities")}
	if len(args) != 0 {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *capabilitiesCmd) FlagSet() *flag.FlagSet { return nil }

func (c *capabilitiesCmd) Run() error {
	n, err := c.openNotifier()
	if err != nil {
		return err
	}
	defer n.Backend().Close()
	fmt.Fprintln(c.stdout, n.Capabilities())
	return nil
}
