// Package export renders accepted layouts to shareable file formats: a
// PDF plan report, QR-coded module labels, and a DXF plan view.
package export

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-pdf/fpdf"
	"github.com/orbitforge/hablayout/internal/model"
)

// moduleColor represents an RGB fill for a drawn module.
type moduleColor struct {
	R, G, B int
}

// paletteRGB maps the named module palette to print colors.
var paletteRGB = map[string]moduleColor{
	"green":  {R: 76, G: 175, B: 80},
	"orange": {R: 255, G: 152, B: 0},
	"teal":   {R: 0, G: 150, B: 136},
	"purple": {R: 156, G: 39, B: 176},
	"grey":   {R: 158, G: 158, B: 158},
	"blue":   {R: 33, G: 150, B: 243},
	"red":    {R: 244, G: 67, B: 54},
	"yellow": {R: 255, G: 235, B: 59},
}

func colorFor(m model.Module) moduleColor {
	if c, ok := paletteRGB[m.Color]; ok {
		return c
	}
	if c, ok := paletteRGB[model.ColorForType(m.Type)]; ok {
		return c
	}
	return moduleColor{R: 158, G: 158, B: 158}
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 24.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// ExportPDF renders the layout's plan view and a summary page. The plan
// view projects onto the floor (x horizontal, y along the page), with
// module fills keyed by type color.
func ExportPDF(path string, layout model.Layout) error {
	if len(layout.Modules) == 0 {
		return fmt.Errorf("no modules to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderPlanPage(pdf, layout)

	pdf.AddPage()
	renderSummaryPage(pdf, layout)

	return pdf.OutputFileAndClose(path)
}

func habitatTitle(h model.Habitat) string {
	switch h.Type {
	case model.HabitatSphere:
		return fmt.Sprintf("sphere r=%.1f m", h.Radius)
	case model.HabitatCube:
		return fmt.Sprintf("cube %.1f x %.1f x %.1f m", h.Width, h.Depth, h.Height)
	default:
		return fmt.Sprintf("cylinder r=%.1f m, length %.1f m", h.Radius, h.Length)
	}
}

// renderPlanPage draws the plan view on the current page.
func renderPlanPage(pdf *fpdf.Fpdf, layout model.Layout) {
	width, depth, _ := layout.Habitat.CanonicalDims()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("%s - plan view (%s)", layout.Name, habitatTitle(layout.Habitat))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	metrics := model.ComputeMetrics(layout.Habitat, layout.Modules)
	stats := fmt.Sprintf("Modules: %d | Crew capacity: %d | Power: %.1f kW | Volume usage: %.0f%%",
		len(layout.Modules), metrics.CrewCapacity, metrics.PowerUsageKW, metrics.SpaceUsageRatio*100)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight

	scale := math.Min(drawWidth/width, drawHeight/depth)
	canvasW := width * scale
	canvasH := depth * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Hull outline: curved shells draw their circular footprint, cubes a
	// plain rectangle.
	pdf.SetFillColor(235, 240, 245)
	pdf.SetDrawColor(80, 80, 80)
	pdf.SetLineWidth(0.5)
	switch layout.Habitat.Type {
	case model.HabitatSphere:
		pdf.Circle(offsetX+canvasW/2, offsetY+canvasH/2, layout.Habitat.Radius*scale, "FD")
	default:
		pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")
	}

	// Habitat-centered coordinates map to the canvas with +y down the
	// page.
	toPage := func(x, y float64) (float64, float64) {
		return offsetX + (x+width/2)*scale, offsetY + (y+depth/2)*scale
	}

	for _, m := range layout.Modules {
		if m.W <= 0 || m.D <= 0 {
			continue
		}
		col := colorFor(m)
		px, py := toPage(m.X-m.W/2, m.Y-m.D/2)
		pw := m.W * scale
		ph := m.D * scale

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(px, py, pw, ph, "FD")

		if pw > 12 && ph > 6 {
			pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
			pdf.SetTextColor(0, 0, 0)
			label := m.Type
			if lw := pdf.GetStringWidth(label); lw < pw-2 {
				pdf.SetXY(px+(pw-lw)/2, py+ph/2-3.5)
				pdf.CellFormat(lw, 4, label, "", 0, "C", false, 0, "")
			}
			dims := fmt.Sprintf("%.1fx%.1fx%.1f", m.W, m.D, m.H)
			if dw := pdf.GetStringWidth(dims); ph > 10 && dw < pw-2 {
				pdf.SetXY(px+(pw-dw)/2, py+ph/2+0.5)
				pdf.CellFormat(dw, 4, dims, "", 0, "C", false, 0, "")
			}
		}
	}

	drawTypeLegend(pdf, layout.Modules, offsetY+canvasH+5)
}

// labelFontSize picks a font size that fits the module rectangle.
func labelFontSize(w, h float64) float64 {
	size := math.Min(w/8, h/3)
	if size < 5 {
		return 5
	}
	if size > 9 {
		return 9
	}
	return size
}

// drawTypeLegend lists every module type with its color swatch.
func drawTypeLegend(pdf *fpdf.Fpdf, modules []model.Module, y float64) {
	counts := make(map[string]int)
	var types []string
	for _, m := range modules {
		key := m.TypeKey()
		if counts[key] == 0 {
			types = append(types, key)
		}
		counts[key]++
	}
	sort.Strings(types)

	pdf.SetFont("Helvetica", "", 8)
	x := marginLeft
	for _, typ := range types {
		col := colorFor(model.Module{Type: typ})
		entry := fmt.Sprintf("%s (%d)", typ, counts[typ])
		entryW := 4.0 + pdf.GetStringWidth(entry) + 6.0
		if x+entryW > pageWidth-marginRight {
			x = marginLeft
			y += 5
		}
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(x, y, 3.5, 3.5, "F")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(x+4.5, y-0.5)
		pdf.CellFormat(entryW-4.5, 4.5, entry, "", 0, "L", false, 0, "")
		x += entryW
	}
}

// renderSummaryPage lists every module with position, size, and any
// optimization outcome.
func renderSummaryPage(pdf *fpdf.Fpdf, layout model.Layout) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, "Module schedule", "", 0, "L", false, 0, "")

	y := drawAreaTop
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(25, 5, "ID", "B", 0, "L", false, 0, "")
	pdf.CellFormat(50, 5, "Type", "B", 0, "L", false, 0, "")
	pdf.CellFormat(60, 5, "Position (x, y, z)", "B", 0, "L", false, 0, "")
	pdf.CellFormat(60, 5, "Size (w x d x h)", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 5, "Volume", "B", 0, "L", false, 0, "")
	y += 6

	pdf.SetFont("Helvetica", "", 8)
	for _, m := range layout.Modules {
		if y > pageHeight-marginBottom-10 {
			pdf.AddPage()
			y = marginTop
		}
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(25, 4.5, m.ID, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 4.5, m.Type, "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 4.5, fmt.Sprintf("%.2f, %.2f, %.2f", m.X, m.Y, m.Z), "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 4.5, fmt.Sprintf("%.2f x %.2f x %.2f m", m.W, m.D, m.H), "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 4.5, fmt.Sprintf("%.2f m3", m.Volume()), "", 0, "L", false, 0, "")
		y += 5
	}

	if res := layout.Result; res != nil {
		y += 5
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetXY(marginLeft, y)
		status := fmt.Sprintf("Optimization: %s (strategy %s, %d attempts, %d removed, %d overlaps)",
			res.State, res.Strategy, res.Attempts, len(res.Removed), len(res.Overlaps))
		pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, status, "", 0, "L", false, 0, "")
	}
}
