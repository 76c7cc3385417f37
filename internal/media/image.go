package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"

	"yatube/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp" // Register BMP decoder
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Thumbnail geometry used by the post card and detail templates.
const (
	ThumbWidth   = 960
	ThumbHeight  = 339
	thumbQuality = 75
	uploadDir    = "posts"

	// MaxPixels caps the declared dimensions of an upload so that decoding
	// cannot allocate more than a few hundred MB.
	MaxPixels = 40_000_000
)

// ErrInvalidImage is the user-facing message for undecodable uploads.
const ErrInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

var extensions = map[string]string{
	"gif":  "gif",
	"png":  "png",
	"jpeg": "jpg",
	"webp": "webp",
	"bmp":  "bmp",
}

// Stored names the files written for one upload.
type Stored struct {
	Image string
	Thumb string
}

// Uploader validates images and writes them with a thumbnail.
type Uploader struct {
	store    Storage
	maxBytes int64
}

// NewUploader returns an Uploader that rejects files over maxMB megabytes.
func NewUploader(store Storage, maxMB int) *Uploader {
	return &Uploader{store: store, maxBytes: int64(maxMB) * 1024 * 1024}
}

// Storage exposes the backing store, for URL building.
func (u *Uploader) Storage() Storage {
	return u.store
}

// Detect returns the decoder name for data, failing with a validation error
// when no registered decoder accepts it or the image is larger than MaxPixels.
func Detect(data []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return "", models.NewValidationError(ErrInvalidImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return "", models.NewValidationError(ErrInvalidImage)
	}
	if _, ok := extensions[format]; !ok {
		return "", models.NewValidationError(ErrInvalidImage)
	}
	return format, nil
}

// Read loads an uploaded part enforcing the size limit.
func (u *Uploader) Read(fh *multipart.FileHeader) ([]byte, error) {
	if u.maxBytes > 0 && fh.Size > u.maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", u.maxBytes/(1024*1024)))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return data, nil
}

// Save validates data and stores the original plus a WebP thumbnail.
func (u *Uploader) Save(ctx context.Context, data []byte) (Stored, error) {
	if u.maxBytes > 0 && int64(len(data)) > u.maxBytes {
		return Stored{}, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", u.maxBytes/(1024*1024)))
	}
	format, err := Detect(data)
	if err != nil {
		return Stored{}, err
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Stored{}, models.NewValidationError(ErrInvalidImage)
	}
	thumb, err := encodeWebP(Thumbnail(src, ThumbWidth, ThumbHeight))
	if err != nil {
		return Stored{}, models.NewInternalError(err)
	}

	id := uuid.NewString()
	out := Stored{
		Image: fmt.Sprintf("%s/%s.%s", uploadDir, id, extensions[format]),
		Thumb: fmt.Sprintf("%s/%s_thumb.webp", uploadDir, id),
	}
	if err := u.store.Save(ctx, out.Image, data); err != nil {
		return Stored{}, models.NewInternalError(err)
	}
	if err := u.store.Save(ctx, out.Thumb, thumb); err != nil {
		_ = u.store.Delete(ctx, out.Image)
		return Stored{}, models.NewInternalError(err)
	}
	return out, nil
}

// Remove deletes both files of an upload.
func (u *Uploader) Remove(ctx context.Context, s Stored) error {
	if err := u.store.Delete(ctx, s.Thumb); err != nil {
		return err
	}
	return u.store.Delete(ctx, s.Image)
}

// Thumbnail center-crops src to the w:h ratio and scales it down to w x h.
// Images smaller than the box are cropped but never upscaled.
func Thumbnail(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw <= 0 || sh <= 0 {
		return src
	}

	cw, ch := sw, sw*h/w
	if ch > sh {
		cw, ch = sh*w/h, sh
	}
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}
	x0 := b.Min.X + (sw-cw)/2
	y0 := b.Min.Y + (sh-ch)/2
	crop := image.Rect(x0, y0, x0+cw, y0+ch)

	dw, dh := w, h
	if cw < w {
		dw, dh = cw, ch
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	if dw == cw && dh == ch {
		draw.Draw(dst, dst.Bounds(), src, crop.Min, draw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	return dst
}

func encodeWebP(img image.Image) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: thumbQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
