package a2l

import (
	"github.com/pkg/errors"

	"github.com/tosih/a2l2ecu/pkg/models"
)

// NoCompuMethod is the conversion name ASAP2 reserves for raw values
const NoCompuMethod = "NO_COMPU_METHOD"

var axisLetters = []string{"X", "Y", "Z"}

// Lookup resolves a name to a value characteristic or an axis points
// object. Unknown names yield an error wrapping models.ErrNotFound.
func (db *Database) Lookup(name string) (models.Resolved, error) {
	if err, ok := db.broken[name]; ok {
		return nil, err
	}
	if c, ok := db.Characteristics[name]; ok {
		item, err := db.item(c)
		if err != nil {
			return nil, errors.Wrapf(err, "characteristic %s", name)
		}
		return &models.ValueCharacteristic{Item: item}, nil
	}
	if ap, ok := db.AxisPts[name]; ok {
		ref, err := db.axisPointsRef(ap)
		if err != nil {
			return nil, errors.Wrapf(err, "axis points %s", name)
		}
		return &models.AxisPointsOnly{Name: name, Ref: ref}, nil
	}
	return nil, errors.Wrap(models.ErrNotFound, name)
}

func (db *Database) item(c *Characteristic) (*models.CalibrationItem, error) {
	layout, ok := db.RecordLayouts[c.Deposit]
	if !ok {
		return nil, errors.Errorf("record layout %s not found", c.Deposit)
	}
	if err := db.compuErr(c.Conversion); err != nil {
		return nil, err
	}
	item := &models.CalibrationItem{
		Name:              c.Name,
		LongIdentifier:    c.LongIdentifier,
		DisplayIdentifier: c.DisplayIdentifier,
		Type:              c.Type,
		Address:           c.Address,
		Datatype:          models.Datatype(layout.FncValues),
		Lower:             c.Lower,
		Upper:             c.Upper,
		Compu:             db.compu(c.Conversion),
	}
	for i, ad := range c.Axes {
		if err := db.compuErr(ad.Conversion); err != nil {
			return nil, errors.Wrapf(err, "axis %d", i)
		}
		axis := models.AxisDescriptor{
			InputQuantity: ad.InputQuantity,
			MaxAxisPoints: ad.MaxAxisPoints,
			Compu:         db.compu(ad.Conversion),
			Lower:         ad.Lower,
			Upper:         ad.Upper,
		}
		switch ad.Attribute {
		case "COM_AXIS", "RES_AXIS":
			if err, ok := db.broken[ad.AxisPtsRef]; ok {
				return nil, errors.Wrapf(err, "axis %d", i)
			}
			ap, ok := db.AxisPts[ad.AxisPtsRef]
			if !ok {
				// without its axis points object the axis carries no memory
				axis.Kind = models.AxisFixed
				axis.Datatype = models.UByte
				break
			}
			ref, err := db.axisPointsRef(ap)
			if err != nil {
				return nil, err
			}
			axis.Kind = models.AxisShared
			axis.Datatype = ref.Datatype
			axis.Ref = &ref
		case "STD_AXIS":
			axis.Kind = models.AxisStandard
			if i < len(axisLetters) {
				axis.Datatype = models.Datatype(layout.AxisPts[axisLetters[i]])
			}
		default:
			// FIX_AXIS and CURVE_AXIS hold no axis values of their own
			axis.Kind = models.AxisFixed
			axis.Datatype = models.UByte
			if ad.FixCount > 0 {
				axis.MaxAxisPoints = ad.FixCount
			}
		}
		item.Axes = append(item.Axes, axis)
	}
	return item, nil
}

func (db *Database) axisPointsRef(ap *AxisPts) (models.AxisPointsRef, error) {
	layout, ok := db.RecordLayouts[ap.Deposit]
	if !ok {
		return models.AxisPointsRef{}, errors.Errorf("record layout %s not found", ap.Deposit)
	}
	if err := db.compuErr(ap.Conversion); err != nil {
		return models.AxisPointsRef{}, err
	}
	return models.AxisPointsRef{
		Name:     ap.Name,
		Address:  ap.Address,
		Datatype: models.Datatype(layout.AxisPts["X"]),
		Compu:    db.compu(ap.Conversion),
	}, nil
}

func (db *Database) compuErr(name string) error {
	return db.brokenCompu[name]
}

func (db *Database) compu(name string) models.CompuMethod {
	if name == NoCompuMethod {
		return models.CompuMethod{Name: name, Kind: models.CompuNone}
	}
	cm, ok := db.CompuMethods[name]
	if !ok {
		return models.CompuMethod{Name: name, Kind: models.CompuNone}
	}
	out := models.CompuMethod{Name: cm.Name, Unit: cm.Unit, Kind: models.CompuIdentity}
	switch {
	case cm.ConversionType == "RAT_FUNC" && len(cm.Coeffs) == 6:
		out.Kind = models.CompuRational
		out.Coeffs = models.Coefficients{
			A: cm.Coeffs[0], B: cm.Coeffs[1], C: cm.Coeffs[2],
			D: cm.Coeffs[3], E: cm.Coeffs[4], F: cm.Coeffs[5],
		}
	case cm.ConversionType == "LINEAR" && len(cm.CoeffsLinear) == 2:
		// phys = a*raw + b, i.e. raw = (phys - b) / a
		out.Kind = models.CompuRational
		out.Coeffs = models.Coefficients{B: 1, C: -cm.CoeffsLinear[1], F: cm.CoeffsLinear[0]}
	case cm.ConversionType == "TAB_VERB":
		out.Kind = models.CompuVerbal
		if vt, ok := db.CompuVTabs[cm.TabRef]; ok {
			out.Labels = append([]string(nil), vt.Labels...)
		}
	}
	return out
}
