package checks

import (
	"context"

	"github.com/JiscSD/cessda-fair-checker/ddi"
	"github.com/JiscSD/cessda-fair-checker/record"

	"github.com/sirupsen/logrus"
)

// find reports whether a qualifying element of d holds an approved term.
// Elements are visited in document order and the first match wins.
func (c *Checker) find(ctx context.Context, cb *ddi.Codebook, d Descriptor, logger logrus.FieldLogger) (bool, error) {
	fields, err := cb.Extract(d.Path)
	if err != nil {
		return false, err
	}
	if len(fields) == 0 {
		logger.Infof("No %s elements found", d.Label)
		return false, nil
	}

	approved := c.terms.Get(ctx, d.Category)
	for _, f := range fields {
		if d.Qualifies != nil && !d.Qualifies(f) {
			continue
		}
		v, ok := d.value(f)
		if !ok || v == "" {
			continue
		}
		if approved.Contains(v) {
			logger.WithField("value", v).Infof("Found approved %s", d.Label)
			return true, nil
		}
	}

	logger.Infof("No approved %s found", d.Label)
	return false, nil
}

// membership passes when one element of d holds an approved term.
func membership(d Descriptor) evaluator {
	return func(ctx context.Context, c *Checker, _ *record.Reference, cb *ddi.Codebook, logger logrus.FieldLogger) Result {
		found, err := c.find(ctx, cb, d, logger)
		if err != nil {
			logger.WithError(err).Errorf("Error checking %s", d.Label)
			return Indeterminate
		}
		if found {
			return Pass
		}
		return Fail
	}
}

// anyOf passes when any of the descriptors finds an approved term. Errors in
// one descriptor count as not found.
func anyOf(ds ...Descriptor) evaluator {
	return func(ctx context.Context, c *Checker, _ *record.Reference, cb *ddi.Codebook, logger logrus.FieldLogger) Result {
		for _, d := range ds {
			found, err := c.find(ctx, cb, d, logger)
			if err != nil {
				logger.WithError(err).Errorf("Error checking %s", d.Label)
				continue
			}
			if found {
				logger.Info("Record contains at least one recommended DDI controlled vocabulary")
				return Pass
			}
		}
		logger.Info("No recommended DDI vocabularies found")
		return Fail
	}
}
