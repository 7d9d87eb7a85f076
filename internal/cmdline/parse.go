// Package cmdline turns launcher command-line tokens into a RunRequest.
//
// Parsing is deliberately permissive: every token starting with '-' is a flag,
// the next token is its value unless it is itself a flag, and flags the
// launcher does not know are kept and ignored. Mandatory inputs missing from
// the command line fall back to configured defaults.
package cmdline

import (
	"log/slog"
	"strings"
)

// Prefix marks a token as a flag.
const Prefix = "-"

// ParameterPrefix marks a report parameter flag (-P:<name>).
const ParameterPrefix = "-P:"

// Flag keys understood by the resolver.
const (
	FlagReport        = "-r"
	FlagDSN           = "-d"
	FlagUser          = "-u"
	FlagPassword      = "-p"
	FlagOutput        = "-o"
	FlagParameterFile = "-f"
)

// Flags is the raw flag→value mapping built from the command line.
// Keys are case-sensitive; the last occurrence of a key wins.
type Flags struct {
	Values map[string]string
	Order  []string // keys in first-encounter order
}

// Parse builds Flags from args. It never fails: a trailing flag, or one
// followed by another flag, gets the empty string as its value.
func Parse(args []string, logger *slog.Logger) Flags {
	flags := Flags{Values: make(map[string]string)}
	for i := 0; i < len(args); i++ {
		if !strings.HasPrefix(args[i], Prefix) {
			continue
		}
		key := args[i]
		value := ""
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], Prefix) {
			value = args[i+1]
			i++
		}
		if _, seen := flags.Values[key]; !seen {
			flags.Order = append(flags.Order, key)
		}
		flags.Values[key] = value
		logger.Debug("cmdline: flag found", "flag", key, "value", redact(key, value))
	}
	return flags
}

// Lookup returns the value of key and whether it was given.
func (f Flags) Lookup(key string) (string, bool) {
	v, ok := f.Values[key]
	return v, ok
}

// Get returns the value of key, or "" when absent.
func (f Flags) Get(key string) string {
	return f.Values[key]
}

// ParameterValues returns the values of all -P:<name> flags in the order
// they were first given. The name after the colon is not used for binding.
func (f Flags) ParameterValues() []string {
	values := []string{}
	for _, key := range f.Order {
		if strings.HasPrefix(key, ParameterPrefix) {
			values = append(values, f.Values[key])
		}
	}
	return values
}

func redact(key, value string) string {
	if key == FlagPassword && value != "" {
		return "***"
	}
	return value
}
