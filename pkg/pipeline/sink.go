package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
)

// Sink stores job outputs. Put returns the location reported to users: a
// file path or an object URL. Implementations must be safe for concurrent
// use.
type Sink interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Content types of job outputs.
const (
	ContentTypePNG = "image/png"
	ContentTypeSVG = "image/svg+xml"
	ContentTypeDOT = "text/vnd.graphviz"
)

// FileSink writes outputs into a directory, creating it on first use.
type FileSink struct {
	Dir string
}

// NewFileSink returns a sink writing into dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

// Put writes data to Dir/name atomically: readers see either the previous
// file or the complete new one.
func (s *FileSink) Put(ctx context.Context, name string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", snaperrors.Cancelled(err, "write %s", name)
	}
	if name == "" || filepath.Base(name) != name {
		return "", snaperrors.New(snaperrors.ErrCodeWrite, "invalid output name %q", name)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", snaperrors.Wrap(snaperrors.ErrCodeWrite, err, "create output directory")
	}

	dst := filepath.Join(s.Dir, name)
	tmp, err := os.CreateTemp(s.Dir, "."+name+".*.tmp")
	if err != nil {
		return "", snaperrors.Wrap(snaperrors.ErrCodeWrite, err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", snaperrors.Wrap(snaperrors.ErrCodeWrite, err, "write %s", name)
	}
	if err := tmp.Close(); err != nil {
		return "", snaperrors.Wrap(snaperrors.ErrCodeWrite, err, "close %s", name)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", snaperrors.Wrap(snaperrors.ErrCodeWrite, err, "chmod %s", name)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", snaperrors.Wrap(snaperrors.ErrCodeWrite, err, "rename %s", name)
	}
	return dst, nil
}

// PutObjectAPI is the subset of the S3 client used by S3Sink.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads outputs to s3://Bucket/Prefix/name.
type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Sink returns a sink uploading through client.
func NewS3Sink(client PutObjectAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Sink) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Put uploads data and returns its s3:// URL.
func (s *S3Sink) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := s.key(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", snaperrors.Cancelled(ctx.Err(), "upload %s", key)
		}
		return "", snaperrors.Wrap(snaperrors.ErrCodeWrite, err, "upload s3://%s/%s", s.bucket, key)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
