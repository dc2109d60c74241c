package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	"github.com/bbrks/go-blurhash"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// blurHashSize is the longest edge of the thumbnail the hash is computed
// from. A placeholder needs no more detail than this.
const blurHashSize = 64

// BlurHash components. Beach photos are mostly landscape, so the hash gets
// more horizontal than vertical detail.
const (
	blurHashX = 4
	blurHashY = 3
)

// BlurHash decodes an encoded image (JPEG, PNG, GIF or WebP) and returns
// its BlurHash along with the decoded format name.
func BlurHash(data []byte) (hash, format string, err error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("decode image: %w", err)
	}

	hash, err = blurhash.Encode(blurHashX, blurHashY, thumbnail(img))
	if err != nil {
		return "", format, fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, format, nil
}

// thumbnail scales img down with nearest-neighbour sampling so its longest
// edge is blurHashSize. Small images are returned as is.
func thumbnail(img image.Image) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if srcWidth <= blurHashSize && srcHeight <= blurHashSize {
		return img
	}

	dstWidth, dstHeight := blurHashSize, blurHashSize
	if srcWidth > srcHeight {
		dstHeight = max(1, srcHeight*blurHashSize/srcWidth)
	} else {
		dstWidth = max(1, srcWidth*blurHashSize/srcHeight)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for y := range dstHeight {
		for x := range dstWidth {
			srcX := int(float64(x) * xRatio)
			srcY := int(float64(y) * yRatio)
			dst.Set(x, y, img.At(bounds.Min.X+srcX, bounds.Min.Y+srcY))
		}
	}
	return dst
}
