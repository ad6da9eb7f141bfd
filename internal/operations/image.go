package operations

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/tiff"
)

// decodeImage decodes raster bytes by their declared format rather than by
// sniffing, so a mislabeled blob fails loudly instead of passing through.
func decodeImage(data []byte, format string) (image.Image, error) {
	switch format {
	case "jpg":
		return jpeg.Decode(bytes.NewReader(data))
	case "png":
		return png.Decode(bytes.NewReader(data))
	case "tiff":
		return tiff.Decode(bytes.NewReader(data))
	}
	return nil, fmt.Errorf("%w: %s is not a raster format", ErrUnsupportedFormat, format)
}

// encodeImage encodes a raster image into the target format. Quality
// applies to JPEG only; zero selects the default. PNG and TIFF always
// encode at their strongest lossless settings.
func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "jpg":
		if quality <= 0 {
			quality = jpeg.DefaultQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case "png":
		encoder := png.Encoder{CompressionLevel: png.BestCompression}
		if err := encoder.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "tiff":
		if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s is not a raster format", ErrUnsupportedFormat, format)
	}

	return buf.Bytes(), nil
}
