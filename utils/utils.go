package utils

import (
	"errors"
	"fmt"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// OrientationNormal is the EXIF value for an image stored upright.
const OrientationNormal = 1

// ExifOrientation returns the EXIF Orientation tag (1..8) of an encoded
// image. Images without EXIF data, or without the tag, report
// OrientationNormal and a nil error.
func ExifOrientation(data []byte) (int, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return OrientationNormal, nil
		}
		return OrientationNormal, fmt.Errorf("EXIF not found: %w", err)
	}

	im := exifcommon.NewIfdMapping()
	ti := exif.NewTagIndex()
	if err := exifcommon.LoadStandardIfds(im); err != nil {
		return OrientationNormal, err
	}

	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return OrientationNormal, fmt.Errorf("EXIF collect: %w", err)
	}

	tags, err := index.RootIfd.FindTagWithName("Orientation")
	if err != nil || len(tags) == 0 {
		return OrientationNormal, nil
	}
	val, err := tags[0].Value()
	if err != nil {
		return OrientationNormal, fmt.Errorf("EXIF orientation value: %w", err)
	}

	var orientation int
	switch v := val.(type) {
	case []uint16:
		if len(v) > 0 {
			orientation = int(v[0])
		}
	case uint16:
		orientation = int(v)
	}
	if orientation < 1 || orientation > 8 {
		return OrientationNormal, nil
	}
	return orientation, nil
}
