package app

import (
	"fmt"
	"io"
	"time"

	"github.com/JiscSD/cessda-fair-checker/checks"
	"github.com/JiscSD/cessda-fair-checker/elsst"
	"github.com/JiscSD/cessda-fair-checker/internal/fetch"
	"github.com/JiscSD/cessda-fair-checker/oaipmh"
	"github.com/JiscSD/cessda-fair-checker/vocab"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const defaultLogLevel = logrus.WarnLevel

var (
	configFile     string
	verbosityLevel string
)

// ErrNotPassed is the cause of the error returned by Run when a check
// completes with a result other than pass.
var ErrNotPassed = errors.New("check did not pass")

var errMissingCheck = errors.New("missing check name")

// Run executes the command line. Usage is written to stderr when the
// arguments are invalid.
func Run(out, stderr io.Writer) error {
	c := RootCommand(afero.NewOsFs(), out, stderr)
	cmd, err := c.ExecuteC()
	if err != nil && errors.Cause(err) != ErrNotPassed {
		fmt.Fprintln(stderr, "Error:", err)
		fmt.Fprint(stderr, cmd.UsageString())
	}
	return err
}

func RootCommand(fs afero.Fs, out, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cessda-fair-checker <check-name> <record-url>",
		Short:         "CESSDA Data Catalogue FAIR checks",
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errMissingCheck
		},
	}

	cmd.SetOutput(out)
	cmd.Root().SilenceUsage = true

	config := &Config{}
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(fs, configFile, config); err != nil {
			return err
		}

		if verbosityLevel == "" {
			verbosityLevel = config.Logging.Level
		}
		if err := setUpLogger(stderr, verbosityLevel, config.Logging.Format); err != nil {
			return err
		}

		return nil
	}

	for _, check := range checks.All() {
		cmd.AddCommand(NewCmdCheck(out, logrus.WithField("cmd", check.Name), config, check))
	}
	cmd.AddCommand(NewCmdConfig(out, config))
	cmd.AddCommand(NewCmdVersion(out))
	cmd.AddCommand(NewCmdServer(logrus.WithField("cmd", "server"), config))

	cmd.PersistentFlags().StringVarP(&verbosityLevel, "verbosity", "v", "", "Log level (debug, info, warn, error, fatal, panic)")
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file")

	return cmd
}

func setUpLogger(out io.Writer, level, format string) error {
	if level == "" {
		level = defaultLogLevel.String()
	}
	logrus.SetOutput(out)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "parsing log level")
	}
	logrus.SetLevel(lvl)
	switch format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{})
	default:
		return errors.Errorf("unsupported log format %q", format)
	}
	return nil
}

// newChecker wires the checks to the remote services described by config.
// The returned cache is shared by every check run by the checker.
func newChecker(logger logrus.FieldLogger, config *Config, opts ...checks.Option) (*checks.Checker, *vocab.Cache) {
	client := func(component string, timeout time.Duration) *fetch.Client {
		return fetch.New(logger.WithField("component", component), fetch.Options{
			DialTimeout: config.Timeouts.Dial,
			Timeout:     timeout,
			UserAgent:   config.HTTP.UserAgent,
			Retries:     config.HTTP.Retries,
		})
	}

	metadata := oaipmh.New(
		logger.WithField("component", "oaipmh"),
		config.Endpoints.OAIPMH,
		client("oaipmh", config.Timeouts.Metadata))

	vocabularies := vocab.NewClient(
		logger.WithField("component", "vocab"),
		client("vocab", config.Timeouts.Vocabulary),
		config.VocabularyURLs())
	cache := vocab.NewCache(logger.WithField("component", "cache"), vocabularies)

	labels := elsst.New(
		logger.WithField("component", "elsst"),
		config.Endpoints.ELSSTTopics,
		client("elsst", config.Timeouts.Keywords))

	opts = append([]checks.Option{checks.WithKeywordParallelism(config.ELSST.Parallelism)}, opts...)
	return checks.New(logger, metadata, cache, labels, opts...), cache
}
