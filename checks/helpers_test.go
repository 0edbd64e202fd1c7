package checks_test

import (
	"github.com/JiscSD/cessda-fair-checker/internal/fetch"

	"github.com/sirupsen/logrus"
)

func fetchClient(logger logrus.FieldLogger) *fetch.Client {
	return fetch.New(logger, fetch.Options{})
}
