// Package storage wraps the Cloud Storage bucket used for chat
// attachments, study-log files, post images and profile photos.
package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type Service struct {
	client *gcs.Client
	bucket string
}

// ProgressFunc receives upload progress in the range 0..100.
type ProgressFunc func(percent int)

func NewService(ctx context.Context, bucket, credentialsFile string) (*Service, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err == nil {
			opts = append(opts, option.WithCredentialsFile(credentialsFile))
		}
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating storage client: %v", err)
	}

	return &Service{client: client, bucket: bucket}, nil
}

// Upload streams r into the bucket under prefix with a timestamped
// object name so repeated uploads of the same filename never collide.
// progress may be nil.
func (s *Service) Upload(ctx context.Context, prefix, filename, contentType string, size int64, r io.Reader, progress ProgressFunc) (string, error) {
	object := fmt.Sprintf("%s/%d_%s", prefix, time.Now().UnixMilli(), filename)

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	src := io.Reader(r)
	if progress != nil && size > 0 {
		src = &progressReader{r: r, total: size, report: progress}
	}

	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return "", fmt.Errorf("error uploading object %s: %v", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("error finalizing object %s: %v", object, err)
	}
	if progress != nil {
		progress(100)
	}

	return publicURL(s.bucket, object), nil
}

// UploadProfilePhoto writes the photo at a per-user fixed path so a new
// upload replaces the previous one.
func (s *Service) UploadProfilePhoto(ctx context.Context, userID, contentType string, r io.Reader) (string, error) {
	object := fmt.Sprintf("profile-photos/%s", userID)

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("error uploading profile photo for %s: %v", userID, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("error finalizing profile photo for %s: %v", userID, err)
	}

	return publicURL(s.bucket, object), nil
}

// Download opens the object behind a previously issued URL.
func (s *Service) Download(ctx context.Context, objectURL string) (io.ReadCloser, error) {
	object, err := objectFromURL(s.bucket, objectURL)
	if err != nil {
		return nil, err
	}

	r, err := s.client.Bucket(s.bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("error opening object %s: %v", object, err)
	}
	return r, nil
}

// Delete removes the object behind a previously issued URL. Missing
// objects are not an error, deletes are idempotent.
func (s *Service) Delete(ctx context.Context, objectURL string) error {
	object, err := objectFromURL(s.bucket, objectURL)
	if err != nil {
		return err
	}

	if err := s.client.Bucket(s.bucket).Object(object).Delete(ctx); err != nil {
		if err == gcs.ErrObjectNotExist {
			log.Printf("Storage: object %s already gone", object)
			return nil
		}
		return fmt.Errorf("error deleting object %s: %v", object, err)
	}
	return nil
}

func (s *Service) Close() error {
	return s.client.Close()
}

func publicURL(bucket, object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, url.PathEscape(object))
}

func objectFromURL(bucket, objectURL string) (string, error) {
	u, err := url.Parse(objectURL)
	if err != nil {
		return "", fmt.Errorf("invalid object url %q: %v", objectURL, err)
	}
	prefix := "/" + bucket + "/"
	path, err := url.PathUnescape(u.Path)
	if err != nil {
		return "", fmt.Errorf("invalid object url %q: %v", objectURL, err)
	}
	if len(path) <= len(prefix) || path[:len(prefix)] != prefix {
		return "", fmt.Errorf("object url %q does not belong to bucket %s", objectURL, bucket)
	}
	return path[len(prefix):], nil
}

type progressReader struct {
	r       io.Reader
	total   int64
	read    int64
	lastPct int
	report  ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)

	pct := int(p.read * 100 / p.total)
	if pct > 99 {
		pct = 99
	}
	if pct > p.lastPct {
		p.lastPct = pct
		p.report(pct)
	}
	return n, err
}
