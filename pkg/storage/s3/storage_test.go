package s3

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mocks "github.com/mosajjal/ecs-events-to-slack/pkg/mock/client"
	"github.com/mosajjal/ecs-events-to-slack/pkg/models"
	"github.com/mosajjal/ecs-events-to-slack/pkg/storage"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		url     string
		bucket  string
		prefix  string
		wantErr bool
	}{
		{"https://archive.s3.eu-west-1.amazonaws.com/ecs/events/", "archive", "ecs/events", false},
		{"https://archive.s3-eu-west-1.amazonaws.com/", "archive", "", false},
		{"https://s3.eu-west-1.amazonaws.com/archive/ecs", "archive", "ecs", false},
		{"https://s3.eu-west-1.amazonaws.com/", "", "", true},
		{"://bad", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			bucket, prefix, err := ParseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.prefix, prefix)
		})
	}
}

func TestObjectKey(t *testing.T) {
	ts := time.Date(2020, 1, 2, 3, 4, 5, 678000000, time.UTC)

	assert.Equal(t, "ecs/2020/01/02/03/2020-01-02T03:04:05.678Z-evt-1.json.gz", objectKey("ecs", ts, "evt-1", ".json.gz"))
	assert.Equal(t, "2020/01/02/03/2020-01-02T03:04:05.678Z-evt-1.json", objectKey("", ts, "evt-1", ".json"))

	generated := objectKey("", ts, "", ".json")
	assert.True(t, strings.HasPrefix(generated, "2020/01/02/03/2020-01-02T03:04:05.678Z-"))
	assert.Greater(t, len(generated), len("2020/01/02/03/2020-01-02T03:04:05.678Z-.json"))
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	m := new(mocks.MockS3Client)

	var uploaded []byte
	m.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "archive" &&
			aws.ToString(in.Key) == "ecs/2020/01/02/03/2020-01-02T03:04:05.000Z-evt-1.json.gz"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		uploaded, _ = io.ReadAll(in.Body)
	}).Return(&s3.PutObjectOutput{}, nil)

	st, err := NewStorageWithClient(storage.Config{URL: "https://archive.s3.eu-west-1.amazonaws.com/ecs"}, m)
	require.NoError(t, err)

	payload := []byte(`{"id":"evt-1"}`)
	err = st.Store(ctx, &models.ArchiveRecord{
		EventID:  "evt-1",
		Received: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		Payload:  payload,
	})
	require.NoError(t, err)
	m.AssertExpectations(t)

	gz, err := gzip.NewReader(bytes.NewReader(uploaded))
	require.NoError(t, err)
	decompressed, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, payload, decompressed)
}

func TestStore_Uncompressed(t *testing.T) {
	m := new(mocks.MockS3Client)
	m.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return strings.HasSuffix(aws.ToString(in.Key), "-evt-1.json")
	})).Return(&s3.PutObjectOutput{}, nil)

	st, err := NewStorageWithClient(storage.Config{URL: "https://archive.s3.eu-west-1.amazonaws.com/", CompressionType: "none"}, m)
	require.NoError(t, err)

	err = st.Store(context.Background(), &models.ArchiveRecord{EventID: "evt-1", Received: time.Now(), Payload: []byte(`{}`)})
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestStore_UploadError(t *testing.T) {
	m := new(mocks.MockS3Client)
	m.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	st, err := NewStorageWithClient(storage.Config{URL: "https://archive.s3.eu-west-1.amazonaws.com/"}, m)
	require.NoError(t, err)

	err = st.Store(context.Background(), &models.ArchiveRecord{EventID: "evt-1", Received: time.Now(), Payload: []byte(`{}`)})
	assert.ErrorContains(t, err, "access denied")
}

func TestNewStorageWithClient_InvalidURL(t *testing.T) {
	st, err := NewStorageWithClient(storage.Config{URL: "https://s3.amazonaws.com/"}, new(mocks.MockS3Client))
	assert.Error(t, err)
	assert.Nil(t, st)
}
