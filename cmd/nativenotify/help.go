package main

import (
	"bytes"
	"embed"
	"flag"
	"sync"
	"text/template"

	"github.com/example/nativenotify/internal/logging"
)

//go:embed templates/*.txt
var helpFS embed.FS

var (
	helpOnce sync.Once
	helpTmpl *template.Template
)

func parseHelpTemplates() {
	helpTmpl = template.Must(template.New("").Funcs(map[string]any{
		"flags": func(fs *flag.FlagSet) []flagInfo {
			result := []flagInfo{}
			if fs == nil {
				return result
			}
			fs.VisitAll(func(f *flag.Flag) {
				result = append(result, flagInfo{f.Name, f.DefValue, f.Usage})
			})
			return result
		},
	}).ParseFS(helpFS, "templates/*.txt"))
}

type flagInfo struct {
	Name     string
	DefValue string
	Usage    string
}

type HelpData interface {
	Program() string
	Template() string
	FlagSet() *flag.FlagSet
}

type UsageError struct {
	of HelpData
}

func (e *UsageError) Error() string {
	help, err := e.renderHelp()
	if err != nil {
		return err.Error()
	}
	return help
}

func (e *UsageError) renderHelp() (string, error) {
	helpOnce.Do(parseHelpTemplates)
	var buf bytes.Buffer
	err := helpTmpl.ExecuteTemplate(&buf, e.of.Template(), e.of)
	if err != nil {
		logging.Logger.Error().Err(err).Str("template", e.of.Template()).Msg("rendering help template")
		return "", err
	}
	return buf.String(), nil
}

// usageFunc logs flag errors for h. The help text itself is printed once,
// by main, from the UsageError the command returns.
func usageFunc(h HelpData) func() {
	return func() {
		logging.Logger.Debug().Str("command", h.Program()).Msg("flag parsing failed")
	}
}

func (r *root) Template() string {
	return "root.txt"
}

func (s *sendCmd) Template() string {
	return "send.txt"
}

func (c *closeCmd) Template() string {
	return "close.txt"
}

func (c *capabilitiesCmd) Template() string {
	return "capabilities.txt"
}

func (s *statusCmd) Template() string {
	return "status.txt"
}

func (c *configCmd) Template() string {
	return "config.txt"
}

func (v *versionCmd) Template() string {
	return "version.txt"
}
