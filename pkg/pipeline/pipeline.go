// Package pipeline drives one conversion run: resolve each requested
// item, assemble it and hand the tables to an emitter.
package pipeline

import (
	"errors"
	"fmt"
	"io"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tosih/a2l2ecu/pkg/a2l"
	"github.com/tosih/a2l2ecu/pkg/assembler"
	"github.com/tosih/a2l2ecu/pkg/models"
)

// Emitter receives tables in order and serializes the document at the end
type Emitter interface {
	Table(t *models.TableDescription) error
	Tables() int
	WriteTo(w io.Writer) (int64, error)
	WriteFile(path string) error
}

// Source resolves calibration items by name
type Source interface {
	Lookup(name string) (models.Resolved, error)
	Groups() []*a2l.Group
	Functions() []*a2l.Function
}

// Stats summarizes a run
type Stats struct {
	Requested  int
	Tables     int
	Constants  int
	AxisTables int
	Scalars    int
	Missing    int
	Skipped    int
}

// Pipeline is not safe for concurrent use; its assembler carries the
// category and axis state of one output document.
type Pipeline struct {
	Source    Source
	Assembler *assembler.Assembler
	Emitter   Emitter
	Log       logrus.FieldLogger
	// Progress, when set, is called before each request
	Progress func(i, n int, req assembler.Request)
}

// All builds the requests for every item reachable from the groups or
// functions of the description, using their names as category
func All(src Source, it models.Iteration) []assembler.Request {
	var reqs []assembler.Request
	switch it {
	case models.IterateFunctions:
		for _, fn := range src.Functions() {
			for _, name := range fn.Defs {
				reqs = append(reqs, assembler.Request{Name: name, Category: fn.Name})
			}
		}
	default:
		for _, g := range src.Groups() {
			for _, name := range g.Refs {
				reqs = append(reqs, assembler.Request{Name: name, Category: g.Name})
			}
		}
	}
	return reqs
}

// Run processes reqs in order. Items that cannot be resolved or built are
// logged and skipped; only emitter failures abort the run.
func (p *Pipeline) Run(reqs []assembler.Request) (Stats, error) {
	log := p.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	var stats Stats
	for i, req := range reqs {
		stats.Requested++
		if p.Progress != nil {
			p.Progress(i, len(reqs), req)
		}
		entry := log.WithField("table", req.Name)

		resolved, err := p.Source.Lookup(req.Name)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				stats.Missing++
				entry.WithField("reason", "not found").Warn("Could not find table")
			} else {
				stats.Skipped++
				entry.WithField("reason", err.Error()).Warn("Skipping table")
			}
			continue
		}

		var item *models.CalibrationItem
		switch r := resolved.(type) {
		case *models.AxisPointsOnly:
			stats.Skipped++
			entry.WithField("reason", "axis points").Warn("Skipping axis points table")
			continue
		case *models.ValueCharacteristic:
			item = r.Item
		default:
			stats.Skipped++
			entry.WithField("reason", "unsupported").Warn("Skipping table")
			continue
		}

		res, err := p.Assembler.Assemble(item, req)
		if err != nil {
			stats.Skipped++
			entry.WithField("reason", err.Error()).Warn("Skipping table")
			continue
		}
		if res.Table == nil {
			stats.Scalars++
			entry.Debug("Scalar omitted")
			continue
		}

		if err := p.Emitter.Table(res.Table); err != nil {
			return stats, pkgerrors.Wrapf(err, "failed to emit %s", req.Name)
		}
		if res.Table.Constant {
			stats.Constants++
		} else {
			stats.Tables++
		}
		entry.WithField("title", res.Table.Title).Info("Table")
		entry.WithFields(logrus.Fields{
			"address": fmt.Sprintf("%#x", res.Table.Z.Address),
			"size":    fmt.Sprintf("%dx%d", res.Table.Z.Length, res.Table.Z.Rows),
		}).Debug("Value array")

		for _, at := range res.AxisTables {
			if err := p.Emitter.Table(at); err != nil {
				return stats, pkgerrors.Wrapf(err, "failed to emit axis %s", at.Name)
			}
			stats.AxisTables++
			entry.WithField("axis", at.Name).Debug("Axis table")
		}
	}
	return stats, nil
}
