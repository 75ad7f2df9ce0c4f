// Package services provides external service integrations and technical concerns like recognition and tokens
package services

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestScript creates an executable shell script for the recognizer to run
func writeTestScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recognize.sh")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// writeTestImage encodes a small PNG with a dark and a bright half
func writeTestImage(t *testing.T) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if x < 16 {
				img.SetGray(x, y, color.Gray{Y: 20})
			} else {
				img.SetGray(x, y, color.Gray{Y: 230})
			}
		}
	}

	path := filepath.Join(t.TempDir(), "pack.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
	return path
}

func TestScriptRecognitionService(t *testing.T) {
	t.Run("ParsesToolOutput", func(t *testing.T) {
		script := writeTestScript(t, `echo '{"ocr_text":"ABC123","phash":"00000000000000ff"}'`)
		service := NewScriptRecognitionService("sh", script)

		result, err := service.Recognize(context.Background(), "/tmp/whatever.png")
		require.NoError(t, err)
		assert.Equal(t, "ABC123", result.OcrText)
		assert.Equal(t, "00000000000000ff", result.Phash)
		assert.Empty(t, result.Error)
	})

	t.Run("SoftFieldErrorsAreNotFailures", func(t *testing.T) {
		script := writeTestScript(t, `echo '{"ocr_text":"","ocr_error":"no text found","phash":"00000000000000ff"}'`)
		service := NewScriptRecognitionService("sh", script)

		result, err := service.Recognize(context.Background(), "/tmp/whatever.png")
		require.NoError(t, err)
		assert.Empty(t, result.OcrText)
		assert.Equal(t, "no text found", result.OcrError)
		assert.Equal(t, "00000000000000ff", result.Phash)
	})

	t.Run("ToolLevelErrorFails", func(t *testing.T) {
		script := writeTestScript(t, `echo '{"error":"image unreadable"}'`)
		service := NewScriptRecognitionService("sh", script)

		result, err := service.Recognize(context.Background(), "/tmp/whatever.png")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrRecognitionFailed)
		assert.Contains(t, err.Error(), "image unreadable")
	})

	t.Run("NonZeroExitFails", func(t *testing.T) {
		script := writeTestScript(t, `echo "boom" >&2; exit 3`)
		service := NewScriptRecognitionService("sh", script)

		result, err := service.Recognize(context.Background(), "/tmp/whatever.png")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrRecognitionFailed)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("InvalidOutputFails", func(t *testing.T) {
		script := writeTestScript(t, `echo 'not json at all'`)
		service := NewScriptRecognitionService("sh", script)

		result, err := service.Recognize(context.Background(), "/tmp/whatever.png")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrRecognitionFailed)
	})

	t.Run("ContextTimeoutKillsTool", func(t *testing.T) {
		script := writeTestScript(t, `sleep 10`)
		service := NewScriptRecognitionService("sh", script)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		result, err := service.Recognize(ctx, "/tmp/whatever.png")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrRecognitionFailed)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("EmptyImagePath", func(t *testing.T) {
		service := NewScriptRecognitionService("sh", "/nonexistent.sh")
		result, err := service.Recognize(context.Background(), "")
		assert.Nil(t, result)
		assert.Error(t, err)
	})
}

func TestLocalRecognitionService(t *testing.T) {
	service := NewLocalRecognitionService()

	t.Run("HashesImage", func(t *testing.T) {
		imagePath := writeTestImage(t)

		result, err := service.Recognize(context.Background(), imagePath)
		require.NoError(t, err)
		assert.Len(t, result.Phash, 16)
		assert.NotEqual(t, "0000000000000000", result.Phash)
		assert.Empty(t, result.OcrText)
		assert.NotEmpty(t, result.OcrError)
	})

	t.Run("HashIsDeterministic", func(t *testing.T) {
		imagePath := writeTestImage(t)

		first, err := service.Recognize(context.Background(), imagePath)
		require.NoError(t, err)
		second, err := service.Recognize(context.Background(), imagePath)
		require.NoError(t, err)
		assert.Equal(t, first.Phash, second.Phash)
	})

	t.Run("MissingFileFails", func(t *testing.T) {
		result, err := service.Recognize(context.Background(), "/nonexistent/pack.png")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrRecognitionFailed)
	})

	t.Run("NonImageFileFails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

		result, err := service.Recognize(context.Background(), path)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrRecognitionFailed)
	})

	t.Run("CancelledContextFails", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := service.Recognize(ctx, writeTestImage(t))
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrRecognitionFailed)
	})
}
