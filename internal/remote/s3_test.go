package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"gestor-go/internal/gestor"
)

type fakeS3 struct {
	objects map[string][]byte
	getErr  error
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) Upload(ctx context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = data
	return &manager.UploadOutput{}, nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	s := newS3Store("bucket", "prod", fake, fake)
	ctx := context.Background()

	if _, found, err := s.Fetch(ctx, "u1", gestor.Credentials{}); err != nil || found {
		t.Fatalf("Fetch() = found %v, err %v; want not found", found, err)
	}

	if err := s.Store(ctx, "u1", sampleSnapshot(), gestor.Credentials{}); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if _, ok := fake.objects["bucket/prod/userData/u1.json"]; !ok {
		t.Fatalf("object not written at expected key; have %v", fake.objects)
	}

	got, found, err := s.Fetch(ctx, "u1", gestor.Credentials{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !found || len(got.Documents) != 1 {
		t.Errorf("Fetch() = %+v, found %v", got, found)
	}
}

func TestS3Store_FetchError(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, getErr: errors.New("access denied")}
	s := newS3Store("bucket", "", fake, fake)

	if _, _, err := s.Fetch(context.Background(), "u1", gestor.Credentials{}); err == nil {
		t.Fatal("Fetch() expected error")
	}
}

func TestS3Store_ObjectKey(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "userData/u1.json"},
		{"prod", "prod/userData/u1.json"},
		{"a/b/", "a/b/userData/u1.json"},
	}
	for _, tt := range tests {
		s := newS3Store("bucket", tt.prefix, nil, nil)
		if got := s.objectKey("u1"); got != tt.want {
			t.Errorf("objectKey() with prefix %q = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}
