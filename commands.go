package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tosih/a2l2ecu/pkg/a2l"
	"github.com/tosih/a2l2ecu/pkg/address"
	"github.com/tosih/a2l2ecu/pkg/assembler"
	"github.com/tosih/a2l2ecu/pkg/compare"
	"github.com/tosih/a2l2ecu/pkg/config"
	"github.com/tosih/a2l2ecu/pkg/ecuxml"
	"github.com/tosih/a2l2ecu/pkg/export"
	"github.com/tosih/a2l2ecu/pkg/models"
	"github.com/tosih/a2l2ecu/pkg/pipeline"
	"github.com/tosih/a2l2ecu/pkg/reader"
	"github.com/tosih/a2l2ecu/pkg/renderer"
	"github.com/tosih/a2l2ecu/pkg/selection"
	"github.com/tosih/a2l2ecu/pkg/xdf"
)

const (
	targetXDF = "xdf"
	targetXML = "xml"

	defaultFamily = "DQ250"
)

// session is an opened description together with the address policy of
// the selected family
type session struct {
	db     *a2l.Database
	family models.Family
	calc   address.Calculator
}

func openSession(a2lPath, familyName, offset string) (*session, error) {
	userOffset, err := parseOffset(offset)
	if err != nil {
		return nil, err
	}

	families, err := config.Load(familiesPath)
	if err != nil {
		return nil, err
	}
	family, ok := models.FindFamily(families, familyName)
	if !ok {
		return nil, errors.Errorf("unknown family %q", familyName)
	}

	spinner, _ := pterm.DefaultSpinner.Start("Loading " + filepath.Base(a2lPath))
	db, err := a2l.Open(a2lPath)
	if err != nil {
		spinner.Fail(err.Error())
		return nil, err
	}
	spinner.Success(fmt.Sprintf("Loaded %s (%d characteristics)", filepath.Base(a2lPath), len(db.CharacteristicNames())))
	for _, issue := range db.Issues() {
		logrus.WithError(issue).Warn("Object could not be indexed")
	}

	base, fromSegment := config.BaseOffset(family, db)
	logrus.WithFields(logrus.Fields{
		"family":  family.Name,
		"base":    fmt.Sprintf("%#x", base),
		"segment": fromSegment,
		"offset":  fmt.Sprintf("%#x", userOffset),
	}).Debug("Address policy")

	return &session{
		db:     db,
		family: family,
		calc:   address.NewCalculator(family, base, userOffset),
	}, nil
}

// parseOffset reads a signed hexadecimal offset, with or without 0x
func parseOffset(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	digits = strings.TrimPrefix(strings.TrimPrefix(digits, "0x"), "0X")
	v, err := strconv.ParseInt(digits, 16, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid offset %q", s)
	}
	if neg {
		v = -v
	}
	return v, nil
}

func stem(path, ext string) string {
	base := filepath.Base(path)
	if e := filepath.Ext(base); strings.EqualFold(e, ext) {
		base = strings.TrimSuffix(base, e)
	}
	return base
}

// OutputName places <a2l>.<selection>.<ext> next to the description
func OutputName(a2lPath, sel, ext string) string {
	name := stem(a2lPath, ".a2l") + "." + stem(sel, ".csv") + "." + ext
	return filepath.Join(filepath.Dir(a2lPath), name)
}

func requests(db *a2l.Database, family models.Family, sel string) ([]assembler.Request, error) {
	if selection.IsAll(sel) {
		return pipeline.All(db, family.Iterate), nil
	}
	return selection.ReadFile(sel)
}

func NewConvertCommand(target string) *cobra.Command {
	var (
		family    string
		offset    string
		output    string
		constants bool
	)

	short := "Generate an XDF definition for tuning editors"
	if target == targetXML {
		short = "Generate an ECU XML map definition"
	}

	cmd := &cobra.Command{
		Use:     target + " <a2l> <selection.csv|ALL>",
		Short:   short,
		GroupID: gConvert,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a2lPath, sel := args[0], args[1]
			pterm.DefaultHeader.Printf("a2l2ecu %s", target)

			s, err := openSession(a2lPath, family, offset)
			if err != nil {
				return err
			}
			reqs, err := requests(s.db, s.family, sel)
			if err != nil {
				return err
			}

			var (
				asm     *assembler.Assembler
				emitter pipeline.Emitter
			)
			switch target {
			case targetXML:
				asm = assembler.New(s.calc, assembler.ECUXMLTarget(s.family), constants)
				emitter = ecuxml.New(stem(a2lPath, ".a2l"), s.family)
			default:
				asm = assembler.New(s.calc, assembler.XDFTarget(), constants)
				emitter = xdf.New(a2lPath, s.family.RegionSize, asm.Categories)
			}

			spinner, _ := pterm.DefaultSpinner.Start("Converting")
			p := &pipeline.Pipeline{
				Source:    s.db,
				Assembler: asm,
				Emitter:   emitter,
				Log:       logrus.StandardLogger(),
				Progress: func(i, n int, req assembler.Request) {
					spinner.UpdateText(fmt.Sprintf("[%d/%d] %s", i+1, n, req.Name))
				},
			}
			stats, err := p.Run(reqs)
			if err != nil {
				spinner.Fail(err.Error())
				return err
			}
			spinner.Success(fmt.Sprintf("Converted %d of %d requests", stats.Tables+stats.Constants, stats.Requested))

			if output == "" {
				output = OutputName(a2lPath, sel, target)
			}
			if err := emitter.WriteFile(output); err != nil {
				return err
			}
			renderer.RenderSummary(stats, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&family, "family", "f", defaultFamily, "ECU family")
	cmd.Flags().StringVar(&offset, "offset", "0", "hex offset added to every address")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <a2l>.<selection>."+target+")")
	cmd.Flags().BoolVar(&constants, "constants", false, "also emit scalar characteristics")

	return cmd
}

func NewListCommand() *cobra.Command {
	var (
		family string
		offset string
		filter string
	)

	cmd := &cobra.Command{
		Use:     "list <a2l>",
		Short:   "List the characteristics of a description",
		GroupID: gInspect,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(args[0], family, offset)
			if err != nil {
				return err
			}

			needle := strings.ToLower(filter)
			var items []*models.CalibrationItem
			for _, name := range s.db.CharacteristicNames() {
				if needle != "" && !strings.Contains(strings.ToLower(name), needle) {
					continue
				}
				res, err := s.db.Lookup(name)
				if err != nil {
					logrus.WithError(err).WithField("name", name).Debug("Skipping characteristic")
					continue
				}
				if vc, ok := res.(*models.ValueCharacteristic); ok {
					items = append(items, vc.Item)
				}
			}

			renderer.ListCharacteristics(fmt.Sprintf("%s (%d)", filepath.Base(args[0]), len(items)), items, s.calc)
			return nil
		},
	}

	cmd.Flags().StringVarP(&family, "family", "f", defaultFamily, "ECU family")
	cmd.Flags().StringVar(&offset, "offset", "0", "hex offset added to every address")
	cmd.Flags().StringVar(&filter, "filter", "", "only list names containing this text")

	return cmd
}

func NewTemplateCommand() *cobra.Command {
	var family string

	cmd := &cobra.Command{
		Use:     "template <a2l> <out.csv>",
		Short:   "Write a selection CSV listing every table reachable from ALL",
		GroupID: gConvert,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(args[0], family, "")
			if err != nil {
				return err
			}
			reqs := pipeline.All(s.db, s.family.Iterate)
			if err := selection.WriteFile(args[1], reqs); err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"rows":    len(reqs),
				"iterate": s.family.Iterate,
			}).Info("Selection written to ", args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&family, "family", "f", defaultFamily, "ECU family")

	return cmd
}

// assembleTables builds the XDF rendition of each name, which carries
// evaluable formulas
func assembleTables(s *session, names []string) ([]*models.TableDescription, error) {
	asm := assembler.New(s.calc, assembler.XDFTarget(), true)
	tables := make([]*models.TableDescription, 0, len(names))
	for _, name := range names {
		res, err := s.db.Lookup(name)
		if err != nil {
			return nil, err
		}
		vc, ok := res.(*models.ValueCharacteristic)
		if !ok {
			return nil, errors.Errorf("%s is an axis points object, not a table", name)
		}
		out, err := asm.Assemble(vc.Item, assembler.Request{Name: name})
		if err != nil {
			return nil, errors.Wrap(err, name)
		}
		tables = append(tables, out.Table)
	}
	return tables, nil
}

func NewPreviewCommand() *cobra.Command {
	var (
		family    string
		offset    string
		mode      string
		exportDir string
	)

	cmd := &cobra.Command{
		Use:     "preview <a2l> <bin> <name>...",
		Short:   "Decode tables from a binary dump and display them",
		GroupID: gInspect,
		Args:    cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch mode {
			case renderer.ModeValues, renderer.ModeHeatmap, renderer.ModeSymbols:
			default:
				return errors.Errorf("unknown mode %q", mode)
			}

			s, err := openSession(args[0], family, offset)
			if err != nil {
				return err
			}
			tables, err := assembleTables(s, args[2:])
			if err != nil {
				return err
			}

			var constants []*models.TableDescription
			for _, t := range tables {
				if t.Constant {
					constants = append(constants, t)
					continue
				}
				m, err := reader.ReadMap(args[1], t)
				if err != nil {
					return err
				}
				lo, hi := reader.FindMinMax(m.Data)
				renderer.RenderMap(m, mode, lo, hi)

				if exportDir != "" {
					if err := os.MkdirAll(exportDir, 0755); err != nil {
						return errors.Wrap(err, "failed to create export directory")
					}
					path := filepath.Join(exportDir, strings.ToLower(t.Name)+".csv")
					if err := export.WriteMapCSV(path, m); err != nil {
						return err
					}
					logrus.Info("Exported ", path)
				}
			}

			if len(constants) > 0 {
				values, err := reader.ReadConstants(args[1], constants)
				if err != nil {
					return err
				}
				renderer.RenderConstants(values)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&family, "family", "f", defaultFamily, "ECU family")
	cmd.Flags().StringVar(&offset, "offset", "0", "hex offset added to every address")
	cmd.Flags().StringVarP(&mode, "mode", "m", renderer.ModeValues, "display mode (values, heatmap, symbols)")
	cmd.Flags().StringVar(&exportDir, "csv", "", "also export each map as CSV into this directory")

	return cmd
}

func NewCompareCommand() *cobra.Command {
	var (
		family string
		offset string
	)

	cmd := &cobra.Command{
		Use:     "compare <a2l> <first.bin> <second.bin> <name>...",
		Short:   "Show how tables differ between two binary dumps",
		GroupID: gInspect,
		Args:    cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(args[0], family, offset)
			if err != nil {
				return err
			}
			tables, err := assembleTables(s, args[3:])
			if err != nil {
				return err
			}

			for _, t := range tables {
				first, err := reader.ReadMap(args[1], t)
				if err != nil {
					return err
				}
				second, err := reader.ReadMap(args[2], t)
				if err != nil {
					return err
				}
				res, err := compare.Maps(first, second)
				if err != nil {
					return errors.Wrap(err, t.Name)
				}
				compare.Display(first, res)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&family, "family", "f", defaultFamily, "ECU family")
	cmd.Flags().StringVar(&offset, "offset", "0", "hex offset added to every address")

	return cmd
}
