package main

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/nativenotify/internal/notify"
)

// Limits enforced before a request reaches a backend.
const (
	maxTitleBytes    = 256
	maxBodyBytes     = 4096
	maxCategoryBytes = 64
)

// errInvalid marks errors caused by bad command line input.
var errInvalid = errors.New("invalid argument")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalid, fmt.Sprintf(format, args...))
}

func checkText(field, s string, limit int) error {
	if len(s) > limit {
		return invalidf("%s is %d bytes, limit is %d", field, len(s), limit)
	}
	if !utf8.ValidString(s) {
		return invalidf("%s is not valid UTF-8", field)
	}
	if strings.ContainsRune(s, 0) {
		return invalidf("%s contains a NUL byte", field)
	}
	return nil
}

// validateRequest checks req against the limits every backend relies on.
func validateRequest(req notify.Request) error {
	if strings.TrimSpace(req.Title) == "" {
		return invalidf("title must not be empty")
	}
	if err := checkText("title", req.Title, maxTitleBytes); err != nil {
		return err
	}
	if err := checkText("body", req.Body, maxBodyBytes); err != nil {
		return err
	}
	if err := checkText("category", req.Category, maxCategoryBytes); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, a := range req.Actions {
		if seen[a.ID] {
			return invalidf("duplicate action id %q", a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

// parseAction parses an "id:label" action argument.
func parseAction(s string) (notify.Action, error) {
	id, label, ok := strings.Cut(s, ":")
	id, label = strings.TrimSpace(id), strings.TrimSpace(label)
	if !ok || id == "" || label == "" {
		return notify.Action{}, invalidf("action %q must be id:label", s)
	}
	if err := checkText("action id", id, maxCategoryBytes); err != nil {
		return notify.Action{}, err
	}
	if err := checkText("action label", label, maxTitleBytes); err != nil {
		return notify.Action{}, err
	}
	return notify.Action{ID: id, Label: label}, nil
}
