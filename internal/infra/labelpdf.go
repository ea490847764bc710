package infra

// labelpdf.go — printable label sheets using go-pdf/fpdf.
// Each label carries a Code 128 barcode of the part number plus the name,
// sub-type tag and current location, sized for standard adhesive label paper.
// The output file is saved to storagePath/labels_{jobID}.pdf.

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"partdepot/internal/model"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/go-pdf/fpdf"
)

const (
	labelW    = 63.5 // mm — 3 columns on A4 (Avery L7160-style)
	labelH    = 38.1
	sheetCols = 3
	sheetRows = 7
	marginX   = 7.0
	marginY   = 12.0
)

// GenerateLabelSheet renders one label per part into an A4 PDF.
// storagePath is created if needed. Returns the absolute path to the file.
func GenerateLabelSheet(parts []model.Part, jobID, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("labelpdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, LabelSheetFileName(jobID))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	for i, p := range parts {
		slot := i % (sheetCols * sheetRows)
		if i > 0 && slot == 0 {
			pdf.AddPage()
		}
		x := marginX + float64(slot%sheetCols)*labelW
		y := marginY + float64(slot/sheetCols)*labelH

		if err := drawLabel(pdf, &p, x, y); err != nil {
			return "", err
		}
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("labelpdf: write file: %w", err)
	}
	return filePath, nil
}

// LabelSheetFileName returns the on-disk name for a render job's output.
func LabelSheetFileName(jobID string) string {
	return fmt.Sprintf("labels_%s.pdf", jobID)
}

func drawLabel(pdf *fpdf.Fpdf, p *model.Part, x, y float64) error {
	img, err := barcodePNG(p.PartNumber)
	if err != nil {
		return fmt.Errorf("labelpdf: barcode for part %d: %w", p.PartNumber, err)
	}

	imgName := "bc_" + strconv.Itoa(p.PartNumber)
	opt := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imgName, opt, img)
	pdf.ImageOptions(imgName, x+6, y+3, labelW-12, 12, false, opt, 0, "")

	pdf.SetXY(x+2, y+16)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(labelW-4, 5, fmt.Sprintf("#%d  %s", p.PartNumber, truncate(p.Name, 26)), "", 1, "C", false, 0, "")

	pdf.SetX(x + 2)
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(labelW-4, 4, truncate(p.Typt, 34), "", 1, "C", false, 0, "")
	pdf.SetX(x + 2)
	pdf.CellFormat(labelW-4, 4, truncate(p.Location, 34), "", 1, "C", false, 0, "")
	return nil
}

// barcodePNG encodes a part number as a Code 128 PNG ready for embedding.
func barcodePNG(partNumber int) (*bytes.Buffer, error) {
	code, err := code128.Encode(strconv.Itoa(partNumber))
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, 400, 90)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, err
	}
	return &buf, nil
}

// truncate shortens s to max runes, never splitting a multibyte character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
