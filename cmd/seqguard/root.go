package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"seqguard/internal/compliance"
	"seqguard/internal/platform/logger"
	"seqguard/internal/registry"
)

const envPrefix = "SEQGUARD"

// cli holds state shared by the subcommands of one invocation.
type cli struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:           "seqguard",
		Short:         "Screen DNA/RNA sequences for patent conflicts and regulated pathogens",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.bind(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "optional config file (yaml, json or toml)")
	pf.String("registry", "", "registry JSON file (default: bundled registry)")
	pf.String("jurisdictions", "", "jurisdiction rule book YAML (default: bundled rules)")
	pf.String("log-level", "warn", "log level written to stderr: debug, info, warn, error")
	pf.Bool("pretty", true, "indent JSON output")

	root.AddCommand(
		c.newScanCmd(),
		c.newAnalyzeCmd(),
		c.newJurisdictionsCmd(),
	)
	return root
}

// bind wires the running command's flags, SEQGUARD_* variables and the
// optional config file into one viper instance. Flags win over environment,
// which wins over the file.
func (c *cli) bind(cmd *cobra.Command) error {
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := c.v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return err
	}

	if path := c.v.GetString("config"); path != "" {
		c.v.SetConfigFile(path)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return nil
}

func (c *cli) logger(cmd *cobra.Command) *slog.Logger {
	return logger.NewWithWriter(cmd.ErrOrStderr(), c.v.GetString("log-level"), "text")
}

func (c *cli) registry() (*registry.Registry, error) {
	if path := c.v.GetString("registry"); path != "" {
		return registry.LoadFile(path)
	}
	return registry.Default()
}

func (c *cli) rules() (*compliance.RuleBook, error) {
	if path := c.v.GetString("jurisdictions"); path != "" {
		return compliance.LoadFile(path)
	}
	return compliance.Default()
}

func (c *cli) writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if c.v.GetBool("pretty") {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// readInput takes the sequence from --in, the single argument, or stdin when
// the argument is "-" or absent.
func readInput(cmd *cobra.Command, args []string, inPath string) (string, error) {
	switch {
	case inPath != "":
		b, err := os.ReadFile(inPath)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", inPath, err)
		}
		return string(b), nil
	case len(args) == 1 && args[0] != "-":
		return args[0], nil
	default:
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
}
