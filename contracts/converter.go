package contracts

import (
	"fmt"
	"os"
)

// InputImage is one user-selected file. Bytes live either in Data or are
// read lazily from Path.
type InputImage struct {
	Name      string
	MediaType string
	Data      []byte
	Path      string
}

func (in InputImage) Bytes() ([]byte, error) {
	if in.Data != nil {
		return in.Data, nil
	}
	if in.Path == "" {
		return nil, fmt.Errorf("input %q has neither data nor path", in.Name)
	}
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", in.Path, err)
	}
	return data, nil
}

// EncodedImage is a baseline JPEG ready to be embedded into a page.
type EncodedImage struct {
	Data        []byte
	PixelWidth  int
	PixelHeight int
	Gray        bool
}

// Placement is where an image lands on its page. Y is measured from the
// top edge of the page.
type Placement struct {
	Scale  float64
	X, Y   float64
	Width  float64
	Height float64
}

// Output is the result of a single-file conversion tool.
type Output struct {
	Name      string
	MediaType string
	Data      []byte
}

type Status string

const (
	StatusIdle       Status = "idle"
	StatusConverting Status = "converting"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)
