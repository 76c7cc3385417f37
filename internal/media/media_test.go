package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallGIF is the 1x1 image the post form tests upload.
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	format, err := Detect(smallGIF)
	require.NoError(t, err)
	assert.Equal(t, "gif", format)

	format, err = Detect(pngBytes(t, 4, 4))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	_, err = Detect([]byte("definitely not an image"))
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"large landscape scales down", 1920, 1080, ThumbWidth, ThumbHeight},
		{"tall image is cropped then scaled", 1000, 3000, ThumbWidth, ThumbHeight},
		{"small image is not upscaled", 96, 96, 96, 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			got := Thumbnail(src, ThumbWidth, ThumbHeight)
			assert.Equal(t, tt.wantW, got.Bounds().Dx())
			assert.Equal(t, tt.wantH, got.Bounds().Dy())
		})
	}
}

func TestUploaderSaveAndRemove(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStorage(root)
	up := NewUploader(store, 1)
	ctx := context.Background()

	stored, err := up.Save(ctx, smallGIF)
	require.NoError(t, err)
	assert.Regexp(t, `^posts/[0-9a-f-]{36}\.gif$`, stored.Image)
	assert.Regexp(t, `^posts/[0-9a-f-]{36}_thumb\.webp$`, stored.Thumb)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(stored.Image)))
	require.NoError(t, err)
	assert.Equal(t, smallGIF, data)

	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(stored.Thumb)))
	require.NoError(t, err)
	assert.Equal(t, "/media/"+stored.Image, store.URL(stored.Image))

	require.NoError(t, up.Remove(ctx, stored))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(stored.Image)))
	assert.True(t, os.IsNotExist(err))
}

func TestDetectRejectsHugeDimensions(t *testing.T) {
	// A 43-byte GIF whose screen descriptor claims 65535x65535 pixels.
	huge := append([]byte(nil), smallGIF...)
	huge[6], huge[7] = 0xFF, 0xFF
	huge[8], huge[9] = 0xFF, 0xFF

	cfg, err := gif.DecodeConfig(bytes.NewReader(huge))
	require.NoError(t, err)
	require.Greater(t, int64(cfg.Width)*int64(cfg.Height), int64(MaxPixels))

	_, err = Detect(huge)
	assert.True(t, models.HasCode(err, models.CodeValidation))

	dir := t.TempDir()
	up := NewUploader(NewLocalStorage(dir), 10)
	_, err = up.Save(context.Background(), huge)
	assert.True(t, models.HasCode(err, models.CodeValidation))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written for a rejected upload")
}

func TestUploaderRejects(t *testing.T) {
	up := NewUploader(NewLocalStorage(t.TempDir()), 1)

	_, err := up.Save(context.Background(), []byte("GIF89a but broken"))
	assert.True(t, models.HasCode(err, models.CodeValidation))

	big := make([]byte, 2*1024*1024)
	_, err = up.Save(context.Background(), big)
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store := NewLocalStorage(t.TempDir())
	assert.Error(t, store.Save(context.Background(), "../escape.txt", []byte("x")))
	assert.NoError(t, store.Delete(context.Background(), "posts/missing.png"))
	assert.Equal(t, "", store.URL(""))
}

func TestGIFRoundTripDecodes(t *testing.T) {
	_, err := gif.Decode(bytes.NewReader(smallGIF))
	assert.NoError(t, err)
}
