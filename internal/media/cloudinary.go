// Package media submits source videos to Cloudinary, which downloads,
// transcodes and stores them.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"

	"github.com/dharsanguruparan/ReelRelay/internal/config"
	"github.com/dharsanguruparan/ReelRelay/internal/logging"
	"github.com/dharsanguruparan/ReelRelay/internal/model"
)

// ErrEmptySecureURL is returned when Cloudinary reports success without a URL.
var ErrEmptySecureURL = errors.New("media: upload returned no secure_url")

// Profile is the fixed output shape: 720p H.264/AAC MP4 at 1500 kbps.
var Profile = []string{
	"w_1280,h_720,c_scale",
	"vc_h264",
	"ac_aac",
	"br_1500k",
	"q_auto",
	"f_mp4",
}

// Transformation renders Profile as a chained transformation string.
func Transformation() string {
	return strings.Join(Profile, "/")
}

// uploadAPI is the slice of uploader.API the submitter uses.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// Cloudinary uploads remote videos with the fixed Profile applied on ingest.
type Cloudinary struct {
	upload  uploadAPI
	folder  string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewCloudinary builds a submitter from account credentials.
func NewCloudinary(cfg config.CloudinaryConfig, logger zerolog.Logger) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("media: init cloudinary: %w", err)
	}
	return newCloudinary(&cld.Upload, cfg, logger), nil
}

func newCloudinary(api uploadAPI, cfg config.CloudinaryConfig, logger zerolog.Logger) *Cloudinary {
	return &Cloudinary{
		upload:  api,
		folder:  cfg.Folder,
		timeout: cfg.UploadTimeout,
		logger:  logger,
	}
}

// Transcode asks Cloudinary to fetch sourceURL and store the transcoded
// rendition. It blocks until Cloudinary answers or the configured timeout
// elapses; the timeout does not cancel work already running on Cloudinary.
func (c *Cloudinary) Transcode(ctx context.Context, sourceURL string) (model.TranscodeResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	log := logging.FromContext(ctx, c.logger)
	start := time.Now()

	res, err := c.upload.Upload(ctx, sourceURL, uploader.UploadParams{
		ResourceType:   "video",
		Folder:         c.folder,
		Transformation: Transformation(),
	})
	if err != nil {
		return model.TranscodeResult{}, fmt.Errorf("media: upload: %w", err)
	}
	if res == nil {
		return model.TranscodeResult{}, ErrEmptySecureURL
	}
	if res.Error.Message != "" {
		return model.TranscodeResult{}, fmt.Errorf("media: upload rejected: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return model.TranscodeResult{}, ErrEmptySecureURL
	}
	log.Info().
		Str("public_id", res.PublicID).
		Dur("took", time.Since(start)).
		Msg("video transcoded")
	return model.TranscodeResult{PlaybackURL: res.SecureURL, PublicID: res.PublicID}, nil
}
