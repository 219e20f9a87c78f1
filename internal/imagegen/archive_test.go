package imagegen

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptpix/internal/domain"
	"promptpix/internal/storage"
)

func TestBuildArchiveHandlesEveryReferenceKind(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewBlobStore("/v1/blobs")
	pngHeader := []byte("\x89PNG\r\n\x1a\n0000")
	ref, err := blobs.Put(ctx, pngHeader, "image/png")
	require.NoError(t, err)

	records := []domain.ImageRecord{
		{ID: 1, URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("local"))},
		{ID: 2, URL: ref},
		{ID: 3, URL: "https://image.example/prompt/cat?seed=1"},
		{ID: 4, URL: "/v1/blobs/missing"},
	}
	raw, skipped, err := BuildArchive(ctx, records, blobs)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	var names []string
	contents := map[string]string{}
	for _, f := range zr.File {
		names = append(names, f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		body, _ := io.ReadAll(rc)
		rc.Close()
		contents[f.Name] = string(body)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"image-1.png", "image-2.png", "image-3.url"}, names)
	assert.Equal(t, "local", contents["image-1.png"])
	assert.Equal(t, string(pngHeader), contents["image-2.png"])
	assert.Contains(t, contents["image-3.url"], "URL=https://image.example/prompt/cat?seed=1")
}
