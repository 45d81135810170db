package storage

import (
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

const presignDuration = 15 * time.Minute

type S3Storage struct {
	bucket   Bucket
	s3Client *s3.S3
}

func NewS3Storage(bucket *Bucket) *S3Storage {
	return &S3Storage{
		bucket:   *bucket,
		s3Client: bucket.CreateSVC(),
	}
}

func (s *S3Storage) key(path string) (*string, error) {
	clean, err := CleanPath(path)
	if err != nil {
		return nil, err
	}
	return aws.String(s.bucket.GetRemotePath(clean)), nil
}

type countingReader struct {
	io.Reader
	n int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	r.n += int64(n)
	return n, err
}

func (s *S3Storage) Save(path string, reader io.Reader) (int64, error) {
	key, err := s.key(path)
	if err != nil {
		return 0, err
	}
	body := &countingReader{Reader: reader}
	input := s3manager.UploadInput{
		Bucket: &s.bucket.Name,
		Key:    key,
		Body:   body,
	}
	if mimeType := mime.TypeByExtension(filepath.Ext(path)); mimeType != "" {
		input.ContentType = &mimeType
	}
	uploader := s3manager.NewUploaderWithClient(s.s3Client)
	if _, err = uploader.Upload(&input); err != nil {
		return 0, err
	}
	return body.n, nil
}

func (s *S3Storage) Load(path string, writer io.Writer) (int64, error) {
	key, err := s.key(path)
	if err != nil {
		return 0, err
	}
	resp, err := s.s3Client.GetObject(&s3.GetObjectInput{
		Bucket: &s.bucket.Name,
		Key:    key,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return io.Copy(writer, resp.Body)
}

// Serve redirects to a short-lived pre-signed URL
func (s *S3Storage) Serve(path string, request *http.Request, writer http.ResponseWriter) {
	key, err := s.key(path)
	if err != nil {
		http.NotFound(writer, request)
		return
	}
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: &s.bucket.Name,
		Key:    key,
	})
	url, err := req.Presign(presignDuration)
	if err != nil {
		log.Printf("Presign error for %s: %v", *key, err)
		http.Error(writer, "storage error", http.StatusInternalServerError)
		return
	}
	http.Redirect(writer, request, url, http.StatusFound)
}

func (s *S3Storage) Delete(path string) error {
	key, err := s.key(path)
	if err != nil {
		return err
	}
	_, err = s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: &s.bucket.Name,
		Key:    key,
	})
	return err
}

// GetFreeSpace is not limited for S3 buckets, 0 means unknown
func (s *S3Storage) GetFreeSpace() uint64 {
	return 0
}

func (s *S3Storage) GetBucket() *Bucket {
	return &s.bucket
}
