package report

import (
	"math"
	"strconv"

	"github.com/signintech/gopdf"

	"maternal-risk/internal/dataset"
)

type rgb struct{ r, g, b uint8 }

// Bar colours, assigned to risk levels in label order.
var palette = []rgb{
	{31, 119, 180},
	{255, 127, 14},
	{44, 160, 44},
	{214, 39, 40},
	{148, 103, 189},
	{140, 86, 75},
}

const (
	plotLeft   = 70.0
	plotTop    = 90.0
	plotWidth  = 730.0
	plotHeight = 400.0
	yTicks     = 5
)

// CountPlot draws the grouped bar chart of risk-level counts per age on a
// landscape page.
func (r *Renderer) CountPlot(counts dataset.AgeCounts) ([]byte, error) {
	pdf, err := r.newDocument(gopdf.PageSizeA4Landscape)
	if err != nil {
		return nil, err
	}

	if err := setFont(pdf, 18); err != nil {
		return nil, err
	}
	pdf.SetXY(plotLeft, 40)
	pdf.Cell(nil, "RiskLevel Counts by Age")

	if err := drawLegend(pdf, counts.Labels); err != nil {
		return nil, err
	}

	maxCount := niceMax(counts.MaxCount())
	bottom := plotTop + plotHeight

	// axes and y ticks
	pdf.SetStrokeColor(0, 0, 0)
	pdf.SetLineWidth(0.8)
	pdf.Line(plotLeft, plotTop, plotLeft, bottom)
	pdf.Line(plotLeft, bottom, plotLeft+plotWidth, bottom)

	if err := setFont(pdf, 8); err != nil {
		return nil, err
	}
	pdf.SetLineWidth(0.3)
	for i := 0; i <= yTicks; i++ {
		v := maxCount * i / yTicks
		y := bottom - plotHeight*float64(v)/float64(maxCount)
		pdf.SetStrokeColor(220, 220, 220)
		pdf.Line(plotLeft, y, plotLeft+plotWidth, y)
		pdf.SetXY(plotLeft-25, y-4)
		pdf.Cell(nil, strconv.Itoa(v))
	}

	if len(counts.Rows) > 0 && len(counts.Labels) > 0 {
		group := plotWidth / float64(len(counts.Rows))
		bar := group * 0.8 / float64(len(counts.Labels))
		labelSize := math.Min(8, math.Max(4, group*0.6))
		if err := setFont(pdf, labelSize); err != nil {
			return nil, err
		}

		for i, row := range counts.Rows {
			x := plotLeft + group*float64(i) + group*0.1
			for j, n := range row.Counts {
				if n == 0 {
					continue
				}
				c := palette[j%len(palette)]
				h := plotHeight * float64(n) / float64(maxCount)
				pdf.SetFillColor(c.r, c.g, c.b)
				pdf.RectFromUpperLeftWithStyle(x+bar*float64(j), bottom-h, bar, h, "F")
			}
			pdf.SetXY(plotLeft+group*float64(i), bottom+4)
			pdf.CellWithOption(&gopdf.Rect{W: group, H: labelSize + 2}, strconv.Itoa(row.Age), gopdf.CellOption{Align: gopdf.Center})
		}
	}

	if err := setFont(pdf, 10); err != nil {
		return nil, err
	}
	pdf.SetXY(plotLeft+plotWidth/2-10, bottom+22)
	pdf.Cell(nil, dataset.ColAge)
	pdf.SetXY(20, plotTop-20)
	pdf.Cell(nil, "count")

	return finish(pdf)
}

func drawLegend(pdf *gopdf.GoPdf, labels []string) error {
	if err := setFont(pdf, 9); err != nil {
		return err
	}
	x := plotLeft + plotWidth - 120
	for i, l := range labels {
		c := palette[i%len(palette)]
		y := 30 + float64(i)*14
		pdf.SetFillColor(c.r, c.g, c.b)
		pdf.RectFromUpperLeftWithStyle(x, y, 10, 10, "F")
		pdf.SetXY(x+14, y)
		pdf.Cell(nil, l)
	}
	return nil
}

// niceMax rounds the y-axis ceiling up to a multiple of yTicks.
func niceMax(n int) int {
	if n <= 0 {
		return yTicks
	}
	return (n + yTicks - 1) / yTicks * yTicks
}
