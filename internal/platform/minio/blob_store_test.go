package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObjects implements objectAPI without a network.
type fakeObjects struct {
	bucketExists    bool
	bucketExistsErr error
	makeBucketErr   error
	madeBucket      string

	putErr      error
	putKey      string
	putBody     []byte
	putSize     int64
	putType     string
	removeErr   error
	removedKeys []string
}

func (f *fakeObjects) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, f.bucketExistsErr
}

func (f *fakeObjects) MakeBucket(_ context.Context, name string, _ minioLib.MakeBucketOptions) error {
	f.madeBucket = name
	return f.makeBucketErr
}

func (f *fakeObjects) PutObject(_ context.Context, _ string, key string, r io.Reader, size int64, opts minioLib.PutObjectOptions) (minioLib.UploadInfo, error) {
	if f.putErr != nil {
		return minioLib.UploadInfo{}, f.putErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return minioLib.UploadInfo{}, err
	}
	f.putKey, f.putBody, f.putSize, f.putType = key, body, size, opts.ContentType
	return minioLib.UploadInfo{Key: key, Size: size}, nil
}

func (f *fakeObjects) RemoveObject(_ context.Context, _ string, key string, _ minioLib.RemoveObjectOptions) error {
	f.removedKeys = append(f.removedKeys, key)
	return f.removeErr
}

func TestNewWithAPI(t *testing.T) {
	tests := []struct {
		name       string
		api        *fakeObjects
		wantErr    string
		wantCreate bool
	}{
		{name: "bucket exists", api: &fakeObjects{bucketExists: true}},
		{name: "bucket created", api: &fakeObjects{}, wantCreate: true},
		{name: "exists check fails", api: &fakeObjects{bucketExistsErr: errors.New("boom")}, wantErr: "failed to check bucket existence"},
		{name: "create fails", api: &fakeObjects{makeBucketErr: errors.New("denied")}, wantErr: "failed to create bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewWithAPI(context.Background(), tt.api, "attachments", nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Nil(t, s)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantCreate {
				assert.Equal(t, "attachments", tt.api.madeBucket)
			} else {
				assert.Empty(t, tt.api.madeBucket)
			}
		})
	}
}

func TestBlobStore_Put(t *testing.T) {
	api := &fakeObjects{bucketExists: true}
	s, err := NewWithAPI(context.Background(), api, "attachments", nil)
	require.NoError(t, err)

	data := []byte("%PDF-1.4")
	require.NoError(t, s.Put(context.Background(), "tasks/1-abc/report.pdf", bytes.NewReader(data), int64(len(data)), "application/pdf"))

	assert.Equal(t, "tasks/1-abc/report.pdf", api.putKey)
	assert.Equal(t, data, api.putBody)
	assert.Equal(t, int64(len(data)), api.putSize)
	assert.Equal(t, "application/pdf", api.putType)

	api.putErr = errors.New("network down")
	err = s.Put(context.Background(), "k", bytes.NewReader(data), int64(len(data)), "application/pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload object")
}

func TestBlobStore_Delete(t *testing.T) {
	api := &fakeObjects{bucketExists: true}
	s, err := NewWithAPI(context.Background(), api, "attachments", nil)
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), "tasks/1-abc/a.png"))
	assert.Equal(t, []string{"tasks/1-abc/a.png"}, api.removedKeys)

	api.removeErr = minioLib.ErrorResponse{Code: "NoSuchKey"}
	assert.NoError(t, s.Delete(context.Background(), "missing"))

	api.removeErr = errors.New("access denied")
	assert.Error(t, s.Delete(context.Background(), "tasks/1-abc/a.png"))
}
