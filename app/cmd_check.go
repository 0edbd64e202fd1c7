package app

import (
	"context"
	"encoding/json"
	"io"

	"github.com/JiscSD/cessda-fair-checker/checks"

	"github.com/go-logfmt/logfmt"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// report is the outcome of one check as printed on stdout.
type report struct {
	Check      string        `json:"check"`
	URL        string        `json:"url"`
	Result     checks.Result `json:"result"`
	Invocation string        `json:"invocation"`
}

func NewCmdCheck(out io.Writer, logger logrus.FieldLogger, config *Config, check checks.Check) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   check.Name + " <record-url>",
		Short: check.Short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checker, _ := newChecker(logger, config)
			return doCheck(context.Background(), out, checker, check.Name, args[0], format)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "logfmt", "Output format (logfmt, json)")

	return cmd
}

func doCheck(ctx context.Context, out io.Writer, checker *checks.Checker, name, rawURL, format string) error {
	res, invocation := checker.RunWithID(ctx, name, rawURL)
	r := report{Check: name, URL: rawURL, Result: res, Invocation: invocation}
	if err := writeReport(out, r, format); err != nil {
		return err
	}
	if res != checks.Pass {
		return errors.Wrapf(ErrNotPassed, "result: %s", res)
	}
	return nil
}

func writeReport(out io.Writer, r report, format string) error {
	switch format {
	case "json":
		return json.NewEncoder(out).Encode(r)
	case "", "logfmt":
		enc := logfmt.NewEncoder(out)
		if err := enc.EncodeKeyvals(
			"check", r.Check,
			"url", r.URL,
			"result", r.Result,
			"invocation", r.Invocation,
		); err != nil {
			return errors.Wrap(err, "error encoding report")
		}
		return enc.EndRecord()
	default:
		return errors.Errorf("unsupported output format %q", format)
	}
}
