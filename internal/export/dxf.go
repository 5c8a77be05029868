package export

import (
	"fmt"

	"github.com/orbitforge/hablayout/internal/model"
	"github.com/yofu/dxf"
	dxfcolor "github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
	"github.com/yofu/dxf/table"
)

// ExportDXF writes the layout's plan view as a DXF drawing in meters:
// the hull footprint on a HULL layer and every module rectangle on a
// MODULES layer. CAD-side habitat outfitting tools consume this.
func ExportDXF(path string, layout model.Layout) error {
	if len(layout.Modules) == 0 {
		return fmt.Errorf("no modules to export")
	}

	d := dxf.NewDrawing()
	d.Header().LtScale = 1.0

	d.AddLayer("HULL", dxf.DefaultColor, table.LT_CONTINUOUS, true)
	width, depth, _ := layout.Habitat.CanonicalDims()
	switch layout.Habitat.Type {
	case model.HabitatSphere:
		d.Circle(0, 0, 0, layout.Habitat.Radius)
	default:
		drawRect(d, -width/2, -depth/2, width, depth)
		if layout.Habitat.Type == model.HabitatCylinder {
			// end-cap centerline for orientation
			d.AddLayer("AXIS", dxfcolor.Cyan, table.LT_HIDDEN, true)
			d.Line(0, -depth/2, 0, 0, depth/2, 0)
			d.ChangeLayer("HULL")
		}
	}

	d.AddLayer("MODULES", dxfcolor.Green, table.LT_CONTINUOUS, true)
	for _, m := range layout.Modules {
		if m.W <= 0 || m.D <= 0 {
			continue
		}
		drawRect(d, m.X-m.W/2, m.Y-m.D/2, m.W, m.D)
	}

	return d.SaveAs(path)
}

// drawRect draws an axis-aligned rectangle as four LINE entities on the
// current layer.
func drawRect(d *drawing.Drawing, x, y, w, h float64) {
	d.Line(x, y, 0, x+w, y, 0)
	d.Line(x+w, y, 0, x+w, y+h, 0)
	d.Line(x+w, y+h, 0, x, y+h, 0)
	d.Line(x, y+h, 0, x, y, 0)
}
