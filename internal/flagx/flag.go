// Package flagx contains helpers for the standard flag package: filtering
// os.Args down to the flags a component owns, locating the JSON config
// file, and a comma-separated int64 list value for actor allow-lists.
package flagx

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FilterArgs returns only the arguments in args that belong to allowedFlags,
// together with their values.
//
// Two shapes are recognized:
//
//	-c conf.json         (value in the next argument, unless it starts with "-")
//	--config=conf.json   (value after '=')
//
// The result is never nil, so it can be passed straight to FlagSet.Parse.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := allowed[name]; keep {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, keep := allowed[arg]; !keep {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigPath returns the JSON config file named by -c or -config in
// os.Args, or "" when neither is present. Other flags are ignored so the
// caller's own flag set is unaffected.
func ConfigPath() string {
	var path string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return path
}

// Int64List is a flag.Value holding comma-separated int64 values,
// e.g. "-users 1001,1002".
type Int64List []int64

func (l *Int64List) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ",")
}

// Set replaces the list with the values parsed from s. Blank items are
// skipped; an empty s yields an empty list.
func (l *Int64List) Set(s string) error {
	out := make(Int64List, 0)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		v, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", item, err)
		}
		out = append(out, v)
	}
	*l = out
	return nil
}
