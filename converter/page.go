package converter

import (
	"fmt"
	"imgtools/contracts"
	"math"
	"strconv"
	"strings"
)

type PageSize = contracts.PageSize
type Placement = contracts.Placement

var DefaultPage = contracts.PageA4

// Fit scales an image of imgWidth x imgHeight pixels into the page keeping
// its aspect ratio, never upscaling, and centers it on both axes.
func Fit(page PageSize, imgWidth, imgHeight float64) Placement {
	scale := math.Min(math.Min(page.Width/imgWidth, page.Height/imgHeight), 1)
	drawWidth := imgWidth * scale
	drawHeight := imgHeight * scale
	return Placement{
		Scale:  scale,
		X:      (page.Width - drawWidth) / 2,
		Y:      (page.Height - drawHeight) / 2,
		Width:  drawWidth,
		Height: drawHeight,
	}
}

// ParsePageSize accepts a named size (a3, a4, a5, letter, legal) or a custom
// "WIDTHxHEIGHT" in px.
func ParsePageSize(s string, landscape bool) (PageSize, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		name = "a4"
	}
	page, ok := contracts.NamedPages[name]
	if !ok {
		w, h, found := strings.Cut(name, "x")
		if !found {
			return PageSize{}, fmt.Errorf("unknown page size %q", s)
		}
		width, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return PageSize{}, fmt.Errorf("invalid page width %q: %w", w, err)
		}
		height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err != nil {
			return PageSize{}, fmt.Errorf("invalid page height %q: %w", h, err)
		}
		if width <= 0 || height <= 0 {
			return PageSize{}, fmt.Errorf("page size must be positive, got %q", s)
		}
		page = PageSize{Width: width, Height: height}
	}
	if landscape {
		page = page.Landscape()
	}
	return page, nil
}
