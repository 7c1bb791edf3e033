package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goph/emperror"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Fs struct {
	name     string
	s3       *minio.Client
	endpoint string
}

func NewS3Fs(name,
	endpoint string,
	accessKeyId string,
	secretAccessKey string,
	useSSL bool) (*S3Fs, error) {
	// connect to S3 / Minio
	s3, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyId, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, emperror.Wrap(err, "cannot connect to s3 instance")
	}
	return &S3Fs{name: name, s3: s3, endpoint: endpoint}, nil
}

func (fs *S3Fs) IsLocal() bool { return false }

func (fs *S3Fs) Protocol() string {
	return fmt.Sprintf("s3://%s", fs.name)
}

func (fs *S3Fs) String() string {
	return fs.s3.EndpointURL().String()
}

func (fs *S3Fs) FileExists(folder, name string) (bool, error) {
	_, err := fs.s3.StatObject(context.Background(), folder, name, minio.StatObjectOptions{})
	if err != nil {
		// no file no error
		s3Err, ok := err.(minio.ErrorResponse)
		if ok {
			if s3Err.StatusCode == http.StatusNotFound {
				return false, nil
			}
		}
		return false, emperror.Wrapf(err, "cannot get file info for %v/%v", folder, name)
	}
	return true, nil
}

func (fs *S3Fs) FileGet(folder, name string, opts FileGetOptions) ([]byte, error) {
	object, err := fs.s3.GetObject(context.Background(), folder, name, minio.GetObjectOptions{VersionID: opts.VersionID})
	if err != nil {
		// no file no error
		s3Err, ok := err.(minio.ErrorResponse)
		if ok {
			if s3Err.StatusCode == http.StatusNotFound {
				return nil, &NotFoundError{err: s3Err}
			}
		}
		return nil, emperror.Wrapf(err, "cannot get file info for %v/%v", folder, name)
	}
	defer object.Close()

	var b = &bytes.Buffer{}
	if _, err := io.Copy(b, object); err != nil {
		return nil, emperror.Wrapf(err, "cannot copy data from %v/%v", folder, name)
	}
	return b.Bytes(), nil
}

func (fs *S3Fs) FilePut(folder, name string, data []byte, opts FilePutOptions) error {
	if _, err := fs.s3.PutObject(
		context.Background(),
		folder,
		name,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: opts.ContentType},
	); err != nil {
		return emperror.Wrapf(err, "cannot put %v/%v", folder, name)
	}
	return nil
}
