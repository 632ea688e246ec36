package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunRequiresBotToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("RELAY_DISPATCH", "")

	err := run(context.Background())
	assert.ErrorContains(t, err, "TELEGRAM_BOT_TOKEN is required")
}

func TestRunRejectsUnknownDispatch(t *testing.T) {
	t.Setenv("RELAY_DISPATCH", "carrier-pigeon")

	err := run(context.Background())
	assert.ErrorContains(t, err, "load config")
}

func TestRunRequiresCloudinary(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("RELAY_DISPATCH", "")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "")
	t.Setenv("CLOUDINARY_API_KEY", "")
	t.Setenv("CLOUDINARY_API_SECRET", "")

	err := run(context.Background())
	assert.ErrorContains(t, err, "CLOUDINARY_CLOUD_NAME")
}
