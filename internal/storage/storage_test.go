package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Upload(t *testing.T) {
	fp := &fakePutter{}
	u := NewS3Uploader(fp, "colib-proofs")

	path, err := u.Upload(context.Background(), "proofs/S1/a.jpg", "image/jpeg", strings.NewReader("img"), 3)
	require.NoError(t, err)
	assert.Equal(t, "s3://colib-proofs/proofs/S1/a.jpg", path)
	assert.Equal(t, "colib-proofs", aws.ToString(fp.input.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(fp.input.ContentType))
	assert.Equal(t, "img", fp.body)
}

func TestS3UploadError(t *testing.T) {
	u := NewS3Uploader(&fakePutter{err: errors.New("denied")}, "b")
	_, err := u.Upload(context.Background(), "k", "image/png", strings.NewReader(""), 0)
	assert.Error(t, err)
}

func TestLocalUpload(t *testing.T) {
	dir := t.TempDir()
	u := NewLocalUploader(dir, "http://localhost:8080/")

	url, err := u.Upload(context.Background(), "proofs/S1/a.png", "image/png", strings.NewReader("png"), 3)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/proofs/S1/a.png", url)

	b, err := os.ReadFile(filepath.Join(dir, "proofs", "S1", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(b))
}

func TestLocalUploadStaysInDir(t *testing.T) {
	dir := t.TempDir()
	u := NewLocalUploader(dir, "")

	url, err := u.Upload(context.Background(), "../../etc/x.png", "image/png", strings.NewReader("x"), 1)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/etc/x.png", url)
	_, err = os.Stat(filepath.Join(dir, "etc", "x.png"))
	assert.NoError(t, err)
}
