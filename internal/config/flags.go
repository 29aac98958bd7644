package config

import (
	"errors"

	"github.com/jessevdk/go-flags"
)

// Page sources accepted by --source.
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)

// Options are the command-line switches.
type Options struct {
	Source       string `long:"source" choice:"remote" choice:"local" description:"Remote downloads fresh everything and is slow. Local is way faster."`
	Grade        bool   `long:"grade" description:"Populates the first sites of the directory from remote data"`
	ConfigPath   string `long:"config" env:"LOCALNEWSMAPPER_CONFIG" description:"YAML configuration file"`
	LogLevel     string `long:"log-level" description:"Log level (debug, info, warn, error)"`
	ExportSQLite string `long:"export-sqlite" description:"Also write the registry to this SQLite database"`
	EnvFile      string `long:"env-file" default:".env" description:"File with environment variables to load"`
}

// ErrHelp is returned by ParseFlags after printing the usage text.
var ErrHelp = errors.New("help requested")

// ParseFlags reads args (without the program name).
func ParseFlags(args []string) (Options, error) {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return opts, ErrHelp
		}
		return opts, err
	}
	return opts, nil
}
