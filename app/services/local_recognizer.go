// Package services provides external service integrations and technical concerns like recognition and tokens
package services

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// LocalRecognitionService is an in-process fallback for deployments without
// the external OCR tool. It computes an average-hash perceptual fingerprint;
// text extraction is not supported and is reported as a per-field soft error.
type LocalRecognitionService struct{}

func NewLocalRecognitionService() *LocalRecognitionService {
	return &LocalRecognitionService{}
}

func (s *LocalRecognitionService) Recognize(ctx context.Context, imagePath string) (*RecognitionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}

	file, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrRecognitionFailed, err)
	}

	return &RecognitionResult{
		OcrText:  "",
		OcrError: "ocr not supported by builtin recognizer",
		Phash:    averageHash(img),
	}, nil
}

const hashDim = 8

// averageHash downscales to an 8x8 grayscale grid and emits one bit per cell:
// 1 where the cell is brighter than the mean. Encoded as 16 hex characters.
func averageHash(src image.Image) string {
	small := image.NewGray(image.Rect(0, 0, hashDim, hashDim))
	xdraw.CatmullRom.Scale(small, small.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	var sum int
	for _, px := range small.Pix {
		sum += int(px)
	}
	mean := uint8(sum / (hashDim * hashDim))

	var bits uint64
	for i, px := range small.Pix {
		if px > mean {
			bits |= 1 << uint(63-i)
		}
	}
	return fmt.Sprintf("%016x", bits)
}
