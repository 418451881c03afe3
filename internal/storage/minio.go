package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/KevinKickass/ScriptSynth/internal/artifacts"
	"github.com/KevinKickass/ScriptSynth/internal/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const revisionPrefix = "revisions/"

// MinioStore implements artifacts.Store on an S3 compatible bucket. The
// current artifact lives under its name; every Put also writes a copy under
// revisions/<name>/ carrying the revision fields as user metadata.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(ctx context.Context, cfg config.MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) Backend() string { return "minio" }

func (s *MinioStore) Put(ctx context.Context, u artifacts.Upload) (artifacts.Revision, error) {
	rev := artifacts.NewRevision(u)

	opts := minio.PutObjectOptions{
		ContentType: "application/yaml",
		UserMetadata: map[string]string{
			"revision-id": rev.ID.String(),
			"checksum":    rev.Checksum,
			"test-name":   rev.TestName,
			"created-at":  rev.CreatedAt.Format(time.RFC3339Nano),
		},
	}

	_, err := s.client.PutObject(ctx, s.bucket, revisionKey(rev), bytes.NewReader(u.Content), int64(len(u.Content)), opts)
	if err != nil {
		return artifacts.Revision{}, fmt.Errorf("failed to put revision: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, u.Name, bytes.NewReader(u.Content), int64(len(u.Content)), opts)
	if err != nil {
		return artifacts.Revision{}, fmt.Errorf("failed to put artifact: %w", err)
	}

	return rev, nil
}

func (s *MinioStore) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(name, err)
	}
	defer obj.Close()

	if _, err := obj.Stat(); err != nil {
		return nil, s.translate(name, err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

// List returns revisions newest first.
func (s *MinioStore) List(ctx context.Context, name string) ([]artifacts.Revision, error) {
	revisions := make([]artifacts.Revision, 0)

	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    revisionPrefix + name + "/",
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list revisions: %w", info.Err)
		}

		stat, err := s.client.StatObject(ctx, s.bucket, info.Key, minio.StatObjectOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to stat revision %s: %w", info.Key, err)
		}

		revisions = append(revisions, revisionFromObject(name, stat))
	}

	sort.SliceStable(revisions, func(i, j int) bool {
		return revisions[i].CreatedAt.After(revisions[j].CreatedAt)
	})
	return revisions, nil
}

func (s *MinioStore) translate(name string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%s: %w", name, artifacts.ErrNotFound)
	}
	return fmt.Errorf("failed to get artifact: %w", err)
}

func revisionKey(rev artifacts.Revision) string {
	stamp := strconv.FormatInt(rev.CreatedAt.UnixNano(), 10)
	return path.Join(revisionPrefix+rev.Name, stamp+"-"+rev.ID.String())
}

func revisionFromObject(name string, info minio.ObjectInfo) artifacts.Revision {
	rev := artifacts.Revision{
		Name:      name,
		Size:      int(info.Size),
		CreatedAt: info.LastModified,
	}

	for key, value := range info.UserMetadata {
		switch strings.ToLower(key) {
		case "revision-id":
			if id, err := uuid.Parse(value); err == nil {
				rev.ID = id
			}
		case "checksum":
			rev.Checksum = value
		case "test-name":
			rev.TestName = value
		case "created-at":
			if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
				rev.CreatedAt = t
			}
		}
	}
	return rev
}
