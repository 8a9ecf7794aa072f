// Package chart renders the NDVI time-series chart as a PNG, a line-and-points
// plot on a fixed 0..1 NDVI axis.
package chart

import (
	"fmt"
	"image"
	"io"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/ricelens/paddy-ndvi-dashboard/internal/domain"
)

const (
	DefaultWidth  = 600
	DefaultHeight = 400
	DefaultTitle  = "NDVI Time Series of Selected Paddy Field"

	seriesColor = "#4CAF50"
	gridColor   = "#e0e0e0"
	axisColor   = "#9e9e9e"
	textColor   = "#333333"

	marginLeft   = 52
	marginRight  = 20
	marginTop    = 40
	marginBottom = 48

	maxDateTicks = 6
)

// Options control the rendered chart. Zero values fall back to the defaults
// above.
type Options struct {
	Width  int
	Height int
	Title  string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	return o
}

// goregular.TTF is embedded in the binary and always parses.
var regular = func() *opentype.Font {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
	return f
}()

// Render draws the series and returns the image.
func Render(series domain.TimeSeries, opts Options) (image.Image, error) {
	dc, err := draw(series, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// RenderPNG draws the series and encodes it as PNG.
func RenderPNG(w io.Writer, series domain.TimeSeries, opts Options) error {
	dc, err := draw(series, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

func draw(series domain.TimeSeries, opts Options) (*gg.Context, error) {
	opts = opts.withDefaults()

	labelFace, err := face(12)
	if err != nil {
		return nil, err
	}
	titleFace, err := face(15)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	w := float64(opts.Width)
	h := float64(opts.Height)
	left, right := float64(marginLeft), w-float64(marginRight)
	top, bottom := float64(marginTop), h-float64(marginBottom)

	dc.SetFontFace(titleFace)
	dc.SetHexColor(textColor)
	dc.DrawStringAnchored(opts.Title, w/2, top/2, 0.5, 0.5)
	dc.SetFontFace(labelFace)

	// Horizontal gridlines and NDVI labels, fixed 0..1 domain.
	for i := 0; i <= 5; i++ {
		v := float64(i) / 5
		y := bottom - v*(bottom-top)

		dc.SetHexColor(gridColor)
		dc.SetLineWidth(1)
		dc.DrawLine(left, y, right, y)
		dc.Stroke()

		dc.SetHexColor(textColor)
		dc.DrawStringAnchored(fmt.Sprintf("%.1f", v), left-8, y, 1, 0.35)
	}

	dc.SetHexColor(axisColor)
	dc.SetLineWidth(1)
	dc.DrawLine(left, top, left, bottom)
	dc.DrawLine(left, bottom, right, bottom)
	dc.Stroke()

	dc.SetHexColor(textColor)
	dc.DrawStringAnchored("Date", (left+right)/2, h-14, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), 14, (top+bottom)/2)
	dc.DrawStringAnchored("NDVI", 14, (top+bottom)/2, 0.5, 0.5)
	dc.Pop()

	obs := make([]domain.Observation, len(series.Observations))
	copy(obs, series.Observations)
	domain.SortObservations(obs)

	if len(obs) == 0 {
		dc.SetHexColor(axisColor)
		dc.DrawStringAnchored("No NDVI data found for the selected date range.",
			(left+right)/2, (top+bottom)/2, 0.5, 0.5)
		return dc, nil
	}

	first, last := obs[0].Date, obs[len(obs)-1].Date
	span := last.Sub(first)

	xAt := func(t time.Time) float64 {
		if span == 0 {
			return (left + right) / 2
		}
		frac := float64(t.Sub(first)) / float64(span)
		return left + frac*(right-left)
	}
	yAt := func(v float64) float64 {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return bottom - v*(bottom-top)
	}

	drawDateTicks(dc, obs, xAt, bottom)

	dc.SetHexColor(seriesColor)
	dc.SetLineWidth(2)
	for i := 1; i < len(obs); i++ {
		dc.DrawLine(xAt(obs[i-1].Date), yAt(obs[i-1].NDVI), xAt(obs[i].Date), yAt(obs[i].NDVI))
	}
	dc.Stroke()

	for _, o := range obs {
		dc.DrawCircle(xAt(o.Date), yAt(o.NDVI), 3.5)
		dc.Fill()
	}

	return dc, nil
}

// drawDateTicks labels up to maxDateTicks observation dates along the x axis.
func drawDateTicks(dc *gg.Context, obs []domain.Observation, xAt func(time.Time) float64, bottom float64) {
	step := 1
	if len(obs) > maxDateTicks {
		step = (len(obs) + maxDateTicks - 1) / maxDateTicks
	}

	dc.SetHexColor(textColor)
	for i := 0; i < len(obs); i += step {
		t := obs[i].Date
		dc.DrawStringAnchored(t.Format("Jan 02"), xAt(t), bottom+16, 0.5, 0.5)
	}
}

func face(size float64) (font.Face, error) {
	return opentype.NewFace(regular, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
