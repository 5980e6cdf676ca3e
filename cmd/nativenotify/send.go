package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/example/nativenotify/internal/notify"
)

type sendCmd struct {
	req         notify.Request
	urgency     string
	timeout     string
	icon        string
	wait        bool
	waitTimeout time.Duration
	*root
	fs *flag.FlagSet
}

func (s *sendCmd) FlagSet() *flag.FlagSet {
	return s.fs
}

func parseSendCmd(args []string, r *root) (*sendCmd, error) {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	s := &sendCmd{root: r.subcommand("send"), fs: fs}
	fs.Usage = usageFunc(s)

	fs.StringVar(&s.req.AppName, "app-name", "", "application name shown with the notification (default from config)")
	fs.StringVar(&s.req.Body, "body", "", "notification body, instead of the second argument")
	fs.StringVar(&s.urgency, "urgency", r.config.Urgency, "urgency: low, normal or critical")
	fs.StringVar(&s.timeout, "timeout", "", "expire after this duration; 0 keeps it until dismissed (default from config, else server default)")
	fs.StringVar(&s.icon, "icon", "", "icon name, file path or URL (default from config)")
	fs.StringVar(&s.req.Category, "category", "", "notification category such as im.received (default from config)")
	fs.Func("replace", "id of an earlier notification to replace", func(v string) error {
		id, err := parseID(v)
		if err != nil {
			return err
		}
		s.req.ReplaceID = id
		return nil
	})
	fs.Func("action", "add an action button as id:label (repeatable)", func(v string) error {
		a, err := parseAction(v)
		if err != nil {
			return err
		}
		s.req.Actions = append(s.req.Actions, a)
		return nil
	})
	fs.BoolVar(&s.wait, "wait", false, "wait for an action to be invoked and print its id")
	fs.DurationVar(&s.waitTimeout, "wait-timeout", 0, "give up waiting after this duration; 0 waits forever")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, &UsageError{of: s}
		}
		return nil, fmt.Errorf("%w: %w", errInvalid, err)
	}

	operands := fs.Args()
	switch len(operands) {
	case 0:
		return nil, &UsageError{of: s}
	case 1:
		s.req.Title = operands[0]
	case 2:
		if s.req.Body != "" {
			return nil, invalidf("body given both as -body and as an argument")
		}
		s.req.Title, s.req.Body = operands[0], operands[1]
	default:
		return nil, invalidf("unexpected arguments after body: %q", operands[2:])
	}

	u, err := notify.ParseUrgency(s.urgency)
	if err != nil {
		return nil, invalidf("%v", err)
	}
	s.req.Urgency = u
	if s.timeout != "" {
		d, err := time.ParseDuration(s.timeout)
		if err != nil || d < 0 {
			return nil, invalidf("timeout %q must be a non-negative duration", s.timeout)
		}
		s.req.Timeout = &d
	}
	s.req.Icon = notify.ParseIcon(s.icon)
	if s.waitTimeout < 0 {
		return nil, invalidf("wait-timeout must not be negative")
	}
	if s.waitTimeout > 0 && !s.wait {
		s.wait = true
	}
	if s.wait && len(s.req.Actions) == 0 {
		return nil, invalidf("-wait needs at least one -action")
	}
	if err := validateRequest(s.req); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *sendCmd) Run() error {
	n, err := s.openNotifier()
	if err != nil {
		return err
	}
	defer n.Backend().Close()

	id, err := n.Send(s.req)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.stdout, id)
	if !s.wait {
		return nil
	}
	key, err := n.WaitAction(id, s.waitTimeout)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.stdout, key)
	return nil
}
