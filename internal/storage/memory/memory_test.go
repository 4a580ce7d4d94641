package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/storage"
)

func TestStorage_UploadGetDelete(t *testing.T) {
	s := New("http://localhost:8080/photos/")
	ctx := context.Background()

	res, err := s.Upload(ctx, &storage.UploadInput{
		Key:         "ratings/u-1/p-1.jpg",
		ContentType: "image/jpeg",
		Size:        4,
		Data:        strings.NewReader("jpeg"),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/photos/ratings/u-1/p-1.jpg", res.URL)

	data, ct, ok := s.Object("ratings/u-1/p-1.jpg")
	require.True(t, ok)
	assert.Equal(t, "jpeg", string(data))
	assert.Equal(t, "image/jpeg", ct)

	url, err := s.GetURL(ctx, "ratings/u-1/p-1.jpg")
	require.NoError(t, err)
	assert.Equal(t, res.URL, url)

	require.NoError(t, s.Delete(ctx, "ratings/u-1/p-1.jpg"))
	assert.Error(t, s.Delete(ctx, "ratings/u-1/p-1.jpg"))
	_, err = s.GetURL(ctx, "ratings/u-1/p-1.jpg")
	assert.Error(t, err)
}
