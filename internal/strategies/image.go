package strategies

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/orisano/pixelmatch"

	"github.com/roach88/snapcheck/internal/snapshot"
)

// Image snapshots images as PNG.
//
// precision is the fraction of pixels (0..1) that must match exactly;
// 1 requires a pixel-perfect match. A zero-area produced image is treated
// as degenerate and never flagged when a reference exists.
func Image(precision float64) snapshot.Strategy[image.Image, image.Image] {
	return imageStrategy(ImageDiffing(precision))
}

// PerceptualImage is Image with a per-pixel colour tolerance.
//
// threshold (0..1) is the YIQ colour distance under which two pixels count
// as equal, and anti-aliased edge pixels are ignored. Use it for renderings
// that differ slightly across platforms.
func PerceptualImage(precision, threshold float64) snapshot.Strategy[image.Image, image.Image] {
	return imageStrategy(imageDiffing(precision, pixelmatch.Threshold(threshold)))
}

func imageStrategy(diffing snapshot.Diffing[image.Image]) snapshot.Strategy[image.Image, image.Image] {
	return snapshot.Strategy[image.Image, image.Image]{
		Snapshot: snapshot.Sync(func(img image.Image) (image.Image, error) {
			if img == nil {
				return nil, fmt.Errorf("image: nil image")
			}
			return img, nil
		}),
		Diffing:       diffing,
		PathExtension: "png",
		Degenerate: func(img image.Image) bool {
			return img == nil || img.Bounds().Empty()
		},
	}
}

// ImageDiffing is the PNG codec with an exact pixel comparator.
func ImageDiffing(precision float64) snapshot.Diffing[image.Image] {
	return imageDiffing(precision, pixelmatch.Threshold(0), pixelmatch.IncludeAntiAlias)
}

func imageDiffing(precision float64, match ...pixelmatch.MatchOption) snapshot.Diffing[image.Image] {
	return snapshot.DiffingFunc[image.Image]{
		EncodeFunc: encodePNG,
		DecodeFunc: func(b []byte) (image.Image, error) {
			img, err := png.Decode(bytes.NewReader(b))
			if err != nil {
				return nil, fmt.Errorf("image: decode: %w", err)
			}
			return img, nil
		},
		CompareFunc: func(reference, produced image.Image) *snapshot.Difference {
			return compareImages(reference, produced, precision, match...)
		},
	}
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("image: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func compareImages(reference, produced image.Image, precision float64, match ...pixelmatch.MatchOption) *snapshot.Difference {
	rb, pb := reference.Bounds(), produced.Bounds()
	if rb.Dx() != pb.Dx() || rb.Dy() != pb.Dy() {
		return &snapshot.Difference{
			Message: fmt.Sprintf("Image sizes differ: reference is %dx%d, produced is %dx%d",
				rb.Dx(), rb.Dy(), pb.Dx(), pb.Dy()),
			Attachments: imageAttachments(reference, produced, nil),
		}
	}

	var diff image.Image
	opts := append([]pixelmatch.MatchOption{pixelmatch.WriteTo(&diff)}, match...)
	differing, err := pixelmatch.MatchPixel(atOrigin(reference), atOrigin(produced), opts...)
	if err != nil {
		return &snapshot.Difference{
			Message:     fmt.Sprintf("Images could not be compared: %v", err),
			Attachments: imageAttachments(reference, produced, nil),
		}
	}

	if differing == 0 {
		return nil
	}
	total := rb.Dx() * rb.Dy()
	matched := float64(total-differing) / float64(total)
	if matched >= precision {
		return nil
	}

	return &snapshot.Difference{
		Message: fmt.Sprintf("Images differ: %d of %d pixels changed (%.2f%% match, %.2f%% required)",
			differing, total, matched*100, precision*100),
		Attachments: imageAttachments(reference, produced, diff),
	}
}

// atOrigin moves img so its bounds start at (0, 0); pixelmatch requires
// identical bounds, not just identical sizes.
func atOrigin(img image.Image) image.Image {
	b := img.Bounds()
	if b.Min == (image.Point{}) {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func imageAttachments(reference, produced, difference image.Image) []snapshot.Attachment {
	named := []struct {
		name string
		img  image.Image
	}{
		{"reference.png", reference},
		{"produced.png", produced},
		{"difference.png", difference},
	}

	var out []snapshot.Attachment
	for _, n := range named {
		if n.img == nil {
			continue
		}
		data, err := encodePNG(n.img)
		if err != nil {
			continue
		}
		out = append(out, snapshot.Attachment{Name: n.name, MediaType: "image/png", Data: data})
	}
	return out
}
