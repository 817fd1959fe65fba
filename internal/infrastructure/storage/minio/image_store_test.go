package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/sj-huang/rdkit-m/internal/config"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/sj-huang/rdkit-m/pkg/errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type ImageStoreTestSuite struct {
	suite.Suite
	api    *MockObjectAPI
	client *Client
	store  *ImageStore
}

func (s *ImageStoreTestSuite) SetupTest() {
	s.api = new(MockObjectAPI)
	s.client = NewClientWithAPI(s.api, config.MinIOConfig{Bucket: "maps", PresignExpiry: time.Hour}, logging.NewNopLogger())
	s.store = NewImageStore(s.client, logging.NewNopLogger())
}

func (s *ImageStoreTestSuite) TestPut_SniffsContentType() {
	s.api.On("PutObject", mock.Anything, "maps", "maps/1.png", mock.Anything, int64(len(pngHeader)),
		minio.PutObjectOptions{ContentType: "image/png"}).
		Return(minio.UploadInfo{Bucket: "maps", Key: "maps/1.png", Size: int64(len(pngHeader))}, nil)

	require.NoError(s.T(), s.store.Put(context.Background(), "maps/1.png", pngHeader, ""))
	s.api.AssertExpectations(s.T())
}

func (s *ImageStoreTestSuite) TestPut_ExplicitContentType() {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	s.api.On("PutObject", mock.Anything, "maps", "maps/2.svg", mock.Anything, int64(len(svg)),
		minio.PutObjectOptions{ContentType: "image/svg+xml"}).
		Return(minio.UploadInfo{}, nil)

	require.NoError(s.T(), s.store.Put(context.Background(), "maps/2.svg", svg, "image/svg+xml"))
}

func (s *ImageStoreTestSuite) TestPut_Errors() {
	assert.Equal(s.T(), ErrInvalidKey, s.store.Put(context.Background(), "", pngHeader, ""))

	s.api.On("PutObject", mock.Anything, "maps", "k", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("503"))
	err := s.store.Put(context.Background(), "k", pngHeader, "image/png")
	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func (s *ImageStoreTestSuite) TestGet_Success() {
	s.api.On("GetObject", mock.Anything, "maps", "maps/1.png", mock.Anything).
		Return(io.NopCloser(bytes.NewReader(pngHeader)), nil)

	data, err := s.store.Get(context.Background(), "maps/1.png")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), pngHeader, data)
}

func (s *ImageStoreTestSuite) TestGet_NotFound() {
	s.api.On("GetObject", mock.Anything, "maps", "missing", mock.Anything).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey"})

	_, err := s.store.Get(context.Background(), "missing")
	assert.True(s.T(), pkgerrors.IsNotFound(err))
}

func (s *ImageStoreTestSuite) TestExists() {
	s.api.On("StatObject", mock.Anything, "maps", "a", mock.Anything).Return(minio.ObjectInfo{Key: "a"}, nil)
	s.api.On("StatObject", mock.Anything, "maps", "b", mock.Anything).Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"})

	ok, err := s.store.Exists(context.Background(), "a")
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)

	ok, err = s.store.Exists(context.Background(), "b")
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
}

func (s *ImageStoreTestSuite) TestDelete() {
	s.api.On("RemoveObject", mock.Anything, "maps", "maps/1.png", mock.Anything).Return(nil)
	assert.NoError(s.T(), s.store.Delete(context.Background(), "maps/1.png"))
	assert.Equal(s.T(), ErrInvalidKey, s.store.Delete(context.Background(), ""))
}

func (s *ImageStoreTestSuite) TestPresignedURL_DefaultExpiry() {
	u, _ := url.Parse("http://minio:9000/maps/maps/1.png?X-Amz-Signature=abc")
	s.api.On("PresignedGetObject", mock.Anything, "maps", "maps/1.png", time.Hour, url.Values(nil)).Return(u, nil)

	got, err := s.store.PresignedURL(context.Background(), "maps/1.png", 0)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), u.String(), got)
}

func (s *ImageStoreTestSuite) TestPresignedURL_Error() {
	s.api.On("PresignedGetObject", mock.Anything, "maps", "k", 5*time.Minute, url.Values(nil)).Return(nil, errors.New("bad creds"))

	_, err := s.store.PresignedURL(context.Background(), "k", 5*time.Minute)
	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func (s *ImageStoreTestSuite) TestClosedClient() {
	require.NoError(s.T(), s.client.Close())
	assert.Equal(s.T(), ErrMinIOClientClosed, s.store.Put(context.Background(), "k", pngHeader, ""))
	_, err := s.store.Get(context.Background(), "k")
	assert.Equal(s.T(), ErrMinIOClientClosed, err)
}

func TestImageStoreSuite(t *testing.T) {
	suite.Run(t, new(ImageStoreTestSuite))
}

//Personal.AI order the ending
