// Package services provides external service integrations and technical concerns like recognition and tokens
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Recognition service error constants
var (
	ErrRecognitionFailed = errors.New("recognition tool failed")
)

// RecognitionResult is the structured output of the recognition tool. The
// per-field errors are soft: OCR may fail while hashing succeeds and vice
// versa. Error is set only on total failure of the tool.
type RecognitionResult struct {
	OcrText    string `json:"ocr_text"`
	OcrError   string `json:"ocr_error,omitempty"`
	Phash      string `json:"phash"`
	PhashError string `json:"phash_error,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RecognitionService extracts text and a perceptual hash from a stored image.
// Implementations must honor ctx cancellation; a non-terminating tool is
// reported as an error, never waited on indefinitely.
type RecognitionService interface {
	Recognize(ctx context.Context, imagePath string) (*RecognitionResult, error)
}

// ScriptRecognitionService runs an external interpreter + script that prints a
// RecognitionResult as JSON on stdout.
type ScriptRecognitionService struct {
	interpreter string
	scriptPath  string
}

// NewScriptRecognitionService creates a recognition service backed by an
// external script (e.g. a Python OCR/phash tool).
func NewScriptRecognitionService(interpreter, scriptPath string) *ScriptRecognitionService {
	return &ScriptRecognitionService{
		interpreter: interpreter,
		scriptPath:  scriptPath,
	}
}

func (s *ScriptRecognitionService) Recognize(ctx context.Context, imagePath string) (*RecognitionResult, error) {
	if imagePath == "" {
		return nil, fmt.Errorf("image path is required")
	}

	cmd := exec.CommandContext(ctx, s.interpreter, s.scriptPath, imagePath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrRecognitionFailed, ctxErr)
		}
		return nil, fmt.Errorf("%w: %v: %s", ErrRecognitionFailed, err, strings.TrimSpace(stderr.String()))
	}

	var result RecognitionResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("%w: invalid output: %v", ErrRecognitionFailed, err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrRecognitionFailed, result.Error)
	}

	return &result, nil
}
