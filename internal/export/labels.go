package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/orbitforge/hablayout/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// LabelInfo holds the data encoded into each module label's QR code. The
// codes let outfitting crews scan a sticker on packed hardware and pull
// its assigned bay coordinates.
type LabelInfo struct {
	ModuleID string  `json:"id"`
	Type     string  `json:"type"`
	Function string  `json:"function,omitempty"`
	W        float64 `json:"w_m"`
	D        float64 `json:"d_m"`
	H        float64 `json:"h_m"`
	X        float64 `json:"x_m"`
	Y        float64 `json:"y_m"`
	Z        float64 `json:"z_m"`
	Rotated  bool    `json:"rotated,omitempty"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10
// rows per page). Each label cell is approximately 66.7mm x 25.4mm on US
// Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportLabels generates a PDF of QR-coded labels, one per module. Labels
// are laid out on a standard label sheet format (Avery 5160 / 3 columns x
// 10 rows on US Letter).
func ExportLabels(path string, layout model.Layout) error {
	if len(layout.Modules) == 0 {
		return fmt.Errorf("no modules to generate labels for")
	}

	rotated := map[string]bool{}
	if layout.Result != nil {
		for id, p := range layout.Result.Placements {
			rotated[id] = p.Rotated
		}
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, m := range layout.Modules {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		info := LabelInfo{
			ModuleID: m.ID,
			Type:     m.Type,
			Function: m.Function,
			W:        m.W, D: m.D, H: m.H,
			X: m.X, Y: m.Y, Z: m.Z,
			Rotated: rotated[m.ID],
		}
		if err := renderLabel(pdf, x, y, i, info); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", m.ID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, seq int, info LabelInfo) error {
	// light border as a cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%s_%d", info.ModuleID, seq)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)

	title := info.Type
	if info.Function != "" {
		title = fmt.Sprintf("%s / %s", info.Type, info.Function)
	}
	if pdf.GetStringWidth(title) > textW {
		for len(title) > 0 && pdf.GetStringWidth(title+"...") > textW {
			title = title[:len(title)-1]
		}
		title += "..."
	}
	pdf.CellFormat(textW, 4.5, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	dims := fmt.Sprintf("%.2f x %.2f x %.2f m", info.W, info.D, info.H)
	pdf.CellFormat(textW, 3.5, dims, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pos := fmt.Sprintf("%s @ (%.2f, %.2f, %.2f)", info.ModuleID, info.X, info.Y, info.Z)
	pdf.CellFormat(textW, 3, pos, "", 1, "L", false, 0, "")

	if info.Rotated {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, "Rotated 90\xb0", "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}
