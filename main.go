package main

import (
	"os"

	"github.com/JiscSD/cessda-fair-checker/app"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := app.Run(os.Stdout, os.Stderr); err != nil {
		if errors.Cause(err) == app.ErrNotPassed {
			logrus.Debugln(err)
		}
		os.Exit(1)
	}
}
