package media

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"mime/multipart"

	// Decoders registered for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Inspect checks that data decodes as a supported image and returns its
// format and dimensions.
func Inspect(data []byte) (format string, width int, height int, err error) {
	if len(data) == 0 {
		return "", 0, 0, fmt.Errorf("%w: empty file", ErrInvalidImage)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return format, cfg.Width, cfg.Height, nil
}

// FromMultipart reads a form file into memory, refusing anything larger than
// maxSize bytes.
func FromMultipart(header *multipart.FileHeader, maxSize int64) (File, error) {
	if header == nil {
		return File{}, fmt.Errorf("%w: missing file", ErrInvalidImage)
	}
	if maxSize > 0 && header.Size > maxSize {
		return File{}, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, header.Filename, header.Size)
	}
	src, err := header.Open()
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer src.Close()

	var reader io.Reader = src
	if maxSize > 0 {
		reader = io.LimitReader(src, maxSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", header.Filename, err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return File{}, fmt.Errorf("%w: %s", ErrTooLarge, header.Filename)
	}
	return File{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
