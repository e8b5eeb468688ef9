package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/signintech/gopdf"
)

const fontFamily = "DejaVu"

// ErrNoFont is returned when none of the candidate TTF fonts exist.
var ErrNoFont = errors.New("no usable TTF font found")

// Common DejaVu locations on Alpine and Debian images.
var defaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// Renderer produces PDF documents for the dashboard.
type Renderer struct {
	fontPath string
}

// NewRenderer picks the first readable font, trying fontPath before the
// usual DejaVu locations.
func NewRenderer(fontPath string) (*Renderer, error) {
	paths := defaultFontPaths
	if fontPath != "" {
		paths = append([]string{fontPath}, defaultFontPaths...)
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return &Renderer{fontPath: path}, nil
		}
	}
	return nil, fmt.Errorf("%w: tried %v. Please ensure ttf-dejavu is installed", ErrNoFont, paths)
}

// FontPath returns the font the renderer embeds.
func (r *Renderer) FontPath() string {
	return r.fontPath
}

func (r *Renderer) newDocument(pageSize *gopdf.Rect) (*gopdf.GoPdf, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *pageSize})
	pdf.AddPage()
	if err := pdf.AddTTFFont(fontFamily, r.fontPath); err != nil {
		return nil, fmt.Errorf("failed to load font %s: %w", r.fontPath, err)
	}
	return pdf, nil
}

func finish(pdf *gopdf.GoPdf) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func setFont(pdf *gopdf.GoPdf, size float64) error {
	return pdf.SetFont(fontFamily, "", size)
}
