// Package imaging converts uploaded files to and from the transportable
// data URI form used throughout a conversion.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrNotImage is returned for uploads that are not a supported raster image
	ErrNotImage = errors.New("file is not a supported image")
	// ErrInvalidDataURI is returned when a data URI cannot be decoded
	ErrInvalidDataURI = errors.New("invalid image data URI")
)

var supportedTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Image is an encoded image plus its detected MIME type
type Image struct {
	MIMEType string
	Data     []byte
	Width    int
	Height   int
}

// Detect sniffs data and returns it as an Image, or ErrNotImage.
// Width and Height are zero when the format has no registered decoder.
func Detect(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrNotImage
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), supportedTypes...) {
		return Image{}, fmt.Errorf("%w: detected %s", ErrNotImage, mtype.String())
	}

	img := Image{MIMEType: mtype.String(), Data: data}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.Width, img.Height = cfg.Width, cfg.Height
	}
	return img, nil
}

// DataURI encodes the image as data:<mime>;base64,<payload>
func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// DecodeDataURI reverses DataURI
func DecodeDataURI(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
	}

	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return Image{}, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty payload", ErrInvalidDataURI)
	}

	return Image{MIMEType: mimeType, Data: data}, nil
}

// Extension returns a file extension for the image type
func (i Image) Extension() string {
	switch i.MIMEType {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
