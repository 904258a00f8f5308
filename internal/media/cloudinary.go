package media

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cvisual/server/internal/config"
)

// Automatic quality and format negotiation applied on upload.
const deliveryTransformation = "q_auto:best/f_auto"

// Cloudinary stores assets on Cloudinary.
type Cloudinary struct {
	cld     *cloudinary.Cloudinary
	timeout time.Duration
}

func NewCloudinary(cfg config.MediaConfig) (*Cloudinary, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Cloudinary{cld: cld, timeout: timeout}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, file File, opts UploadOptions) (Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.cld.Upload.Upload(ctx, bytes.NewReader(file.Data), uploader.UploadParams{
		PublicID:       opts.PublicID,
		Folder:         opts.Folder,
		ResourceType:   "auto",
		Transformation: deliveryTransformation,
	})
	if err != nil {
		return Asset{}, &UploadError{Filename: file.Filename, Message: err.Error(), Err: err}
	}
	if resp == nil {
		return Asset{}, &UploadError{Filename: file.Filename, Message: "empty response from asset host"}
	}
	if resp.Error.Message != "" {
		return Asset{}, &UploadError{Filename: file.Filename, Message: resp.Error.Message}
	}

	return Asset{
		URL:      resp.SecureURL,
		PublicID: resp.PublicID,
		Format:   resp.Format,
		Width:    resp.Width,
		Height:   resp.Height,
		Bytes:    resp.Bytes,
	}, nil
}

func (c *Cloudinary) Destroy(ctx context.Context, publicID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("destroy %s: %w", publicID, err)
	}
	if resp != nil && resp.Error.Message != "" {
		return fmt.Errorf("destroy %s: %s", publicID, resp.Error.Message)
	}
	return nil
}
