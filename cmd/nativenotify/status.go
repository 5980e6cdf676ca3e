package main

import (
	"flag"
	"fmt"
	"text/tabwriter"
)

type statusCmd struct {
	*root
}

func parseStatusCmd(args []string, r *root) (*statusCmd, error) {
	s := &statusCmd{root: r.subcommand("status")}
	if len(args) != 0 {
		return nil, &UsageError{of: s}
	}
	return s, nil
}

func (s *statusCmd) FlagSet() *flag.FlagSet { return nil }

func (s *statusCmd) Run() error {
	n, err := s.openNotifier()
	if err != nil {
		return err
	}
	b := n.Backend()
	defer b.Close()

	configPath := s.loader().GetConfigPath()
	if configPath == "" {
		configPath = "(defaults)"
	}
	caps := b.Capabilities()
	if caps == "" {
		caps = "(none reported)"
	}

	w := tabwriter.NewWriter(s.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "backend:\t%s\n", b.Name())
	fmt.Fprintf(w, "available:\t%v\n", b.IsAvailable())
	fmt.Fprintf(w, "capabilities:\t%s\n", caps)
	fmt.Fprintf(w, "config:\t%s\n", configPath)
	return w.Flush()
}
