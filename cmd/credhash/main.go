// Command credhash hashes, verifies and inspects credential hash records.
//
// The credential is always read from the first line of standard input so it
// never appears in the process list or shell history:
//
//	echo 'Admin1234' | credhash hash --cost 12
//	echo 'Admin1234' | credhash verify --record '$2b$12$...'
//	credhash info --record '$2b$12$...'
//	credhash needs-rehash --record '$2b$10$...' --cost 12
//
// Settings are read from --config, CREDHASH_* environment variables and
// flags, in increasing precedence.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hasbyte1/credhash/config"
	"github.com/hasbyte1/credhash/hashing"
)

// Exit codes.
const (
	exitOK       = 0
	exitMismatch = 1
	exitUsage    = 2 // bad arguments, bad config or malformed record
	exitFailure  = 3
)

const usageText = `usage: credhash <command> [flags]

commands:
  hash          hash the credential read from stdin
  verify        check the credential read from stdin against --record
  info          print the parameters embedded in --record
  needs-rehash  report whether --record uses outdated parameters

flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type command struct {
	name       string
	needRecord bool
	readsInput bool
	exec       func(env *environment) int
}

var commands = map[string]command{
	"hash":         {name: "hash", readsInput: true, exec: runHash},
	"verify":       {name: "verify", needRecord: true, readsInput: true, exec: runVerify},
	"info":         {name: "info", needRecord: true, exec: runInfo},
	"needs-rehash": {name: "needs-rehash", needRecord: true, exec: runNeedsRehash},
}

// environment is what a command needs to run.
type environment struct {
	manager    *hashing.Manager
	logger     *slog.Logger
	record     string
	credential string
	stdout     io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := newFlagSet(stderr)
	if len(args) == 0 {
		printUsage(stderr, fs)
		return exitUsage
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stdout, fs)
		return exitOK
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "credhash: unknown command %q\n\n", args[0])
		printUsage(stderr, fs)
		return exitUsage
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "credhash: unexpected arguments %q\n", fs.Args())
		return exitUsage
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		fmt.Fprintf(stderr, "credhash: %v\n", err)
		return exitUsage
	}
	logger := cfg.Logger(stderr)

	manager, err := cfg.Manager()
	if err != nil {
		logger.Error("Building hasher failed.", "err", err)
		return exitFailure
	}

	env := &environment{manager: manager, logger: logger, stdout: stdout}
	if cmd.needRecord {
		env.record, _ = fs.GetString("record")
		if env.record == "" {
			fmt.Fprintf(stderr, "credhash %s: --record is required\n", cmd.name)
			return exitUsage
		}
	}
	if cmd.readsInput {
		env.credential, err = readCredential(stdin)
		if err != nil {
			logger.Error("Reading credential failed.", "err", err)
			return exitFailure
		}
	}

	return cmd.exec(env)
}

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("credhash", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false
	fs.StringP("config", "c", "", "config file (yaml, json or toml)")
	fs.String("driver", "", "driver for new records: bcrypt or argon2id")
	fs.Int("cost", 0, "bcrypt cost for new records")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	fs.String("record", "", "stored hash record")
	return fs
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprint(w, usageText)
	fmt.Fprint(w, fs.FlagUsages())
}

func loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	v := viper.New()
	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	bindings := map[string]string{
		config.KeyDriver:     "driver",
		config.KeyBcryptCost: "cost",
		config.KeyLogLevel:   "log-level",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	return config.FromViper(v)
}

// readCredential returns the first line of r without its line terminator.
func readCredential(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

func runHash(env *environment) int {
	record, err := env.manager.Hash(env.credential)
	if err != nil {
		env.logger.Error("Hashing failed.", "err", err)
		if errors.Is(err, hashing.ErrInvalidInput) {
			return exitUsage
		}
		return exitFailure
	}
	env.logger.Debug("Credential hashed.", "driver", env.manager.DefaultDriver())
	fmt.Fprintln(env.stdout, record)
	return exitOK
}

func runVerify(env *environment) int {
	ok, err := env.manager.Verify(env.credential, env.record)
	switch {
	case errors.Is(err, hashing.ErrMalformedRecord):
		env.logger.Error("Record is malformed.", "err", err)
		return exitUsage
	case err != nil:
		env.logger.Error("Verification failed.", "err", err)
		return exitFailure
	case !ok:
		fmt.Fprintln(env.stdout, "mismatch")
		return exitMismatch
	}
	fmt.Fprintln(env.stdout, "match")
	return exitOK
}

func runInfo(env *environment) int {
	info, err := env.manager.Info(env.record)
	if err != nil {
		env.logger.Error("Reading record failed.", "err", err)
		if errors.Is(err, hashing.ErrMalformedRecord) {
			return exitUsage
		}
		return exitFailure
	}
	fmt.Fprintf(env.stdout, "driver=%s\n", info.Driver)
	fmt.Fprintf(env.stdout, "work_factor=%d\n", info.WorkFactor)
	for _, k := range slices.Sorted(maps.Keys(info.Params)) {
		fmt.Fprintf(env.stdout, "%s=%v\n", k, info.Params[k])
	}
	return exitOK
}

func runNeedsRehash(env *environment) int {
	stale, err := env.manager.NeedsRehash(env.record)
	if err != nil {
		env.logger.Error("Reading record failed.", "err", err)
		if errors.Is(err, hashing.ErrMalformedRecord) {
			return exitUsage
		}
		return exitFailure
	}
	fmt.Fprintln(env.stdout, stale)
	return exitOK
}
