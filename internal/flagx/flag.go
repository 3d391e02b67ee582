// Package flagx pre-scans the command line for flags that must be known
// before the main flag set is parsed.
package flagx

import (
	"strings"

	"github.com/spf13/pflag"
)

// FilterArgs returns the arguments that belong to allowedFlags, together
// with their values. Both "-c conf.json" and "--config=conf.json" forms are
// recognised; a following token that starts with '-' is never taken as a
// value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// JSONConfigPath extracts the configuration file given with -c or --config.
// It returns "" when neither is present. The last occurrence wins.
func JSONConfigPath(args []string) string {
	var path string

	fs := pflag.NewFlagSet("json", pflag.ContinueOnError)
	fs.StringVarP(&path, "config", "c", "", "path to JSON config file")
	fs.ParseErrorsWhitelist.UnknownFlags = true
	_ = fs.Parse(FilterArgs(args, []string{"-c", "--config"}))

	return path
}
