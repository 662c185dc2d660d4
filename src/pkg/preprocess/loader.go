package preprocess

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // phones and chat apps hand out .webp receipts
)

/*
Load reads the file at path and decodes it into an RGB raster.

The file is read as raw bytes and decoded from memory, so paths with
non-ASCII characters behave like any other path. A missing file, an
unreadable file and undecodable bytes all return *ImageDecodeError.
*/
func Load(path string) (*Raster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ImageDecodeError{Source: path, Err: err}
	}
	r, err := decode(bytes.NewReader(data), path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// LoadBytes decodes an in-memory PNG/JPEG (or any registered format).
func LoadBytes(data []byte) (*Raster, error) {
	return decode(bytes.NewReader(data), "<bytes>")
}

// Decode decodes an image stream.
func Decode(reader io.Reader) (*Raster, error) {
	return decode(reader, "<stream>")
}

func decode(reader io.Reader, source string) (*Raster, error) {
	// EXIF orientation matters: receipts are usually shot in portrait.
	img, err := imaging.Decode(reader, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &ImageDecodeError{Source: source, Err: err}
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, &ImageDecodeError{Source: source, Err: fmt.Errorf("empty image %dx%d", bounds.Dx(), bounds.Dy())}
	}
	return toRGB(FromImage(img)), nil
}
