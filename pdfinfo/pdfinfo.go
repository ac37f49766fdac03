// Package pdfinfo reads back produced documents: page count, page
// dimensions and structural validation.
package pdfinfo

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	api.DisableConfigDir()
}

// Dim is a page size in PDF points.
type Dim struct {
	Width  float64
	Height float64
}

type Info struct {
	Pages int
	Sizes []Dim
}

// Uniform reports whether every page has the same size.
func (i *Info) Uniform() bool {
	for _, s := range i.Sizes {
		if s != i.Sizes[0] {
			return false
		}
	}
	return true
}

func configuration() *model.Configuration {
	config := model.NewDefaultConfiguration()
	config.ValidationMode = model.ValidationRelaxed
	return config
}

func Inspect(rs io.ReadSeeker) (*Info, error) {
	config := configuration()
	if err := api.Validate(rs, config); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	dims, err := api.PageDims(rs, config)
	if err != nil {
		return nil, fmt.Errorf("page dimensions: %w", err)
	}
	info := &Info{Pages: len(dims)}
	for _, d := range dims {
		info.Sizes = append(info.Sizes, Dim{Width: d.Width, Height: d.Height})
	}
	return info, nil
}

func InspectBytes(data []byte) (*Info, error) {
	return Inspect(bytes.NewReader(data))
}

func InspectFile(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Inspect(f)
}
