package main

import (
	"flag"
	"strconv"
)

type closeCmd struct {
	id uint32
	*root
}

func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, invalidf("notification id %q must be a positive integer", s)
	}
	return uint32(id), nil
}

func parseCloseCmd(args []string, r *root) (*closeCmd, error) {
	c := &closeCmd{root: r.subcommand("close")}
	if len(args) != 1 {
		return nil, &UsageError{of: c}
	}
	id, err := parseID(args[0])
	if err != nil {
		return nil, err
	}
	c.id = id
	return c, nil
}

func (c *closeCmd) FlagSet() *flag.FlagSet { return nil }

func (c *closeCmd) Run() error {
	n, err := c.openNotifier()
	if err != nil {
		return err
	}
	defer n.Backend().Close()
	return n.Close(c.id)
}
