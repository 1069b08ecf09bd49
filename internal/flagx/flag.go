// Package flagx has helpers for parsing a subset of command-line flags.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// ConfigEnvVar names the config file when neither -c nor -config is given.
const ConfigEnvVar = "WORKLY_CONFIG"

// flagName strips leading dashes, so "-c" and "--c" name the same flag.
func flagName(arg string) string {
	return strings.TrimLeft(arg, "-")
}

// FilterArgs keeps only the arguments that belong to allowedFlags: the flag
// itself, written "-f value", "--f value", "-f=value" or "--f=value", and its
// value when given separately. Everything else, positional arguments
// included, is dropped so the result can be fed to a narrow flag.FlagSet.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[flagName(f)] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, hasValue := strings.Cut(arg, "=")
		if _, ok := allowed[flagName(name)]; !ok {
			continue
		}
		filtered = append(filtered, arg)

		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

// ConfigFileFlag returns the config file path given via -c or -config,
// falling back to the WORKLY_CONFIG environment variable. Only these flags
// are parsed so the caller's own flag set is left alone.
func ConfigFileFlag() string {
	var config string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file (.json, .yaml or .yml)")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(os.Args[1:], []string{"-c", "-config"}))

	if config == "" {
		config = os.Getenv(ConfigEnvVar)
	}
	return config
}
