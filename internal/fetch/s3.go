package fetch

import (
	"context"
	"fmt"
	"io"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// S3Source reads an S3 object through ranged GetObject calls, the AWS
// counterpart to HTTPSource. Construction defers to aws-sdk-go-v2's default
// config chain, which reads the standard region, profile and credential
// variables (AWS_REGION, AWS_PROFILE, AWS_ACCESS_KEY_ID, ...); the
// grkruntime.Config fields AWSS3Endpoint, AWSVirtualHost, AWSHTTPS and
// AWSNoSign are not applied to the client.
type S3Source struct {
	client  *s3.Client
	bucket  string
	key     string
	size    int64
	pos     int64
	batch   int
	retries int
}

// NewS3Source resolves credentials via the default AWS config chain and
// HEADs the object to learn its size.
func NewS3Source(ctx context.Context, bucket, key string, opts ...func(*S3Source)) (*S3Source, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch: load AWS config")
	}
	client := s3.NewFromConfig(cfg)
	s := &S3Source{
		client:  client,
		bucket:  bucket,
		key:     key,
		batch:   defaultBatchSize,
		retries: defaultRetries,
	}
	for _, o := range opts {
		o(s)
	}
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, errors.Wrap(err, "fetch: S3 HeadObject")
	}
	if head.ContentLength != nil {
		s.size = *head.ContentLength
	}
	return s, nil
}

func (s *S3Source) getRange(ctx context.Context, off, length int64) ([]byte, error) {
	rangeHdr := fmt.Sprintf("bytes=%d-%d", off, off+length-1)
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: &s.bucket,
			Key:    &s.key,
			Range:  &rangeHdr,
		})
		if err != nil {
			lastErr = err
			continue
		}
		data, err := func() ([]byte, error) {
			defer out.Body.Close()
			return io.ReadAll(out.Body)
		}()
		if err != nil {
			lastErr = err
			continue
		}
		return data, nil
	}
	return nil, errors.Wrapf(lastErr, "fetch: S3 range GetObject failed after %d attempts", s.retries+1)
}

func (s *S3Source) ReadAt(dst []byte, off int64) (int, error) {
	data, err := s.getRange(context.Background(), off, int64(len(dst)))
	if err != nil {
		return 0, err
	}
	return copy(dst, data), nil
}

func (s *S3Source) Read(dst []byte) (int, error) {
	n, err := s.ReadAt(dst, s.pos)
	if err != nil {
		return 0, err
	}
	s.pos += int64(n)
	return n, nil
}

func (s *S3Source) ReadZeroCopy(n int) ([]byte, error) {
	out := make([]byte, n)
	read, err := s.Read(out)
	if err != nil {
		return nil, err
	}
	return out[:read], nil
}

func (s *S3Source) Seek(offset int64) error {
	if offset < 0 || offset > s.size {
		return ErrOutOfRange
	}
	s.pos = offset
	return nil
}

func (s *S3Source) Tell() int64           { return s.pos }
func (s *S3Source) Skip(n int64) error    { return s.Seek(s.pos + n) }
func (s *S3Source) NumBytesLeft() int64   { return s.size - s.pos }
func (s *S3Source) MemAdvise(o, l int64, a MemAdvice) {}

// FetchChunks mirrors HTTPSource's bounded-batch errgroup fan-out.
func (s *S3Source) FetchChunks(ctx context.Context, ranges []Range) ([]ChunkResult, error) {
	out := make([]ChunkResult, len(ranges))
	var mu sync.Mutex
	for start := 0; start < len(ranges); start += s.batch {
		end := start + s.batch
		if end > len(ranges) {
			end = len(ranges)
		}
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				data, err := s.getRange(gctx, ranges[i].Offset, ranges[i].Length)
				mu.Lock()
				defer mu.Unlock()
				out[i] = ChunkResult{Range: ranges[i], Data: data, Err: err}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (s *S3Source) Close() error { return nil }
