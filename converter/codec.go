package converter

import (
	"fmt"
	"image"
	"sync"
)

const (
	MediaJPEG = "image/jpeg"
	MediaPNG  = "image/png"
	MediaGIF  = "image/gif"
	MediaWEBP = "image/webp"
	MediaTIFF = "image/tiff"
	MediaBMP  = "image/bmp"
	MediaSVG  = "image/svg+xml"
	MediaHTML = "text/html"
	MediaPDF  = "application/pdf"
	MediaZIP  = "application/zip"
)

// Decoder turns encoded bytes into a drawable raster.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// Encoder turns a raster into encoded bytes. Quality is in (0, 1] and is
// ignored by lossless formats.
type Encoder interface {
	Encode(img image.Image, quality float64) ([]byte, error)
}

var (
	backendsMu       sync.RWMutex
	backendEncoders  = map[string]Encoder{}
	fallbackDecoders []Decoder
)

// registerEncoder is called from the init of optional native backends.
// The first backend registered for a media type wins, and a registered
// backend takes precedence over the built-in encoder.
func registerEncoder(mediaType string, enc Encoder) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if _, ok := backendEncoders[mediaType]; !ok {
		backendEncoders[mediaType] = enc
	}
}

func registerFallbackDecoder(dec Decoder) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	fallbackDecoders = append(fallbackDecoders, dec)
}

// Codecs resolves encoders by target media type and decodes any supported
// input.
type Codecs struct {
	decoder  Decoder
	encoders map[string]Encoder
}

func DefaultCodecs() *Codecs {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	encoders := map[string]Encoder{
		MediaJPEG: jpegEncoder{},
		MediaPNG:  pngEncoder{},
		MediaWEBP: webpEncoder{},
	}
	for mediaType, enc := range backendEncoders {
		encoders[mediaType] = enc
	}
	return &Codecs{
		decoder:  &stdDecoder{fallbacks: append([]Decoder(nil), fallbackDecoders...)},
		encoders: encoders,
	}
}

// NewCodecs builds a registry from explicit parts, mostly for tests.
func NewCodecs(dec Decoder, encoders map[string]Encoder) *Codecs {
	return &Codecs{decoder: dec, encoders: encoders}
}

func (c *Codecs) Decode(data []byte) (image.Image, error) {
	img, err := c.decoder.Decode(data)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("image has no pixels (%dx%d)", b.Dx(), b.Dy())
	}
	return img, nil
}

func (c *Codecs) Encoder(mediaType string) (Encoder, error) {
	enc, ok := c.encoders[mediaType]
	if !ok {
		return nil, fmt.Errorf("%w: no %s encoder compiled in", ErrBackendUnavailable, mediaType)
	}
	return enc, nil
}

func (c *Codecs) Encode(mediaType string, img image.Image, quality float64) ([]byte, error) {
	enc, err := c.Encoder(mediaType)
	if err != nil {
		return nil, err
	}
	return enc.Encode(img, quality)
}
