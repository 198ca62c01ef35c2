package checks

import (
	"errors"
	"io"
	"os"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/schae234/botbot/internal/fileinfo"
	"github.com/schae234/botbot/internal/model"
)

// maxExifScan bounds how much of an image is searched for an EXIF block.
const maxExifScan = 4 << 20

// NewImageLocationCheck flags images that carry GPS coordinates.
func NewImageLocationCheck(exts []string) Check {
	return NewFunc("image-location", func(fi *fileinfo.FileInfo) (model.ProblemCode, bool) {
		if !fi.IsRegular() || !hasExt(fi, exts) {
			return "", false
		}

		tags, err := readExifTags(fi.Path)
		if err != nil {
			return "", false
		}
		if hasGPS(tags) {
			return model.ProbImageHasLocation, true
		}
		return "", false
	}, WithSettings(listSettings(exts)))
}

// readExifTags returns the flattened EXIF tags of the image at path.
func readExifTags(path string) ([]exif.ExifTag, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the checklist walk
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxExifScan))
	if err != nil {
		return nil, err
	}

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return nil, err
	}
	if rawExif == nil {
		return nil, errors.New("no EXIF data")
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// hasGPS reports whether any tag carries a GPS coordinate.
func hasGPS(tags []exif.ExifTag) bool {
	for _, tag := range tags {
		switch tag.TagName {
		case "GPSLatitude", "GPSLongitude", "GPSLatitudeRef", "GPSLongitudeRef":
			return true
		}
	}
	return false
}
