package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/siteadmin/internal/filex"
	sc "github.com/dmitrijs2005/siteadmin/internal/server/config"
	"github.com/google/uuid"
)

// maxExtLen bounds the extension carried over from client file names.
const maxExtLen = 16

// UploadedFile describes a stored upload as reported back to the client.
type UploadedFile struct {
	OriginalName string
	FileName     string
	Path         string
	MimeType     string
	Size         int64
}

// UploadStore persists uploaded files. size is the length reported by the
// client; r must yield exactly that many bytes.
type UploadStore interface {
	Save(ctx context.Context, originalName, mimeType string, size int64, r io.Reader) (*UploadedFile, error)
}

// NewUploadStore returns the store selected by cfg.UploadBackend.
func NewUploadStore(ctx context.Context, cfg *sc.Config) (UploadStore, error) {
	switch cfg.UploadBackend {
	case sc.UploadBackendDisk:
		return NewDiskStore(cfg.UploadDir)
	case sc.UploadBackendS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.UploadBackend)
	}
}

// storedName builds a collision-free name keeping a sanitised extension of
// the client-supplied name.
func storedName(originalName string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if len(ext) > maxExtLen || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), uuid.NewString(), ext)
}

// DiskStore writes uploads into a local directory.
type DiskStore struct {
	dir string
	now func() time.Time
}

func NewDiskStore(dir string) (*DiskStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	return &DiskStore{dir: abs, now: time.Now}, nil
}

// Dir returns the absolute upload directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

func (s *DiskStore) Save(ctx context.Context, originalName, mimeType string, _ int64, r io.Reader) (*UploadedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := storedName(originalName, s.now())
	dst := filepath.Join(s.dir, name)

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", dst, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return nil, fmt.Errorf("write %s: %w", dst, err)
	}

	return &UploadedFile{
		OriginalName: originalName,
		FileName:     name,
		Path:         dst,
		MimeType:     mimeType,
		Size:         n,
	}, nil
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// s3PutObjectAPI is the part of *s3.Client the store needs.
type s3PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes uploads to an S3-compatible bucket (MinIO in development).
type S3Store struct {
	client s3PutObjectAPI
	bucket string
	now    func() time.Time
}

func NewS3Store(ctx context.Context, cfg *sc.Config) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, errors.New("s3 bucket is not configured")
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.S3Bucket, now: time.Now}, nil
}

// objectKey groups uploads by day.
func (s *S3Store) objectKey(name string, d time.Time) string {
	return path.Join("uploads", fmt.Sprintf("%d/%02d/%02d", d.Year(), d.Month(), d.Day()), name)
}

func (s *S3Store) Save(ctx context.Context, originalName, mimeType string, size int64, r io.Reader) (*UploadedFile, error) {
	now := s.now()
	name := storedName(originalName, now)
	key := s.objectKey(name, now)

	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
	}
	if mimeType != "" {
		in.ContentType = aws.String(mimeType)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	return &UploadedFile{
		OriginalName: originalName,
		FileName:     name,
		Path:         key,
		MimeType:     mimeType,
		Size:         size,
	}, nil
}
