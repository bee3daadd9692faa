/*
Copyright © 2021 the icegrid authors.
This file is part of icegrid.

icegrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

icegrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with icegrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package icegridutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
)

// maybeDownload checks if the input is an existing file locally.
// If not, it checks whether the file is an http(s) URL or a blob
// storage location; if it is, it downloads the file and returns
// the path to the downloaded copy. c, if not nil, is a channel
// across which logging messages will be sent.
func maybeDownload(ctx context.Context, path string, c chan string) (string, error) {
	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return downloadHTTP(path, c)
	}

	if IsBlob(path) {
		return downloadBlob(ctx, path, c)
	}

	return path, nil
}

// downloadHTTP downloads a file from the specified URL and returns
// the path to the downloaded file. Transient failures are retried
// with exponential backoff.
func downloadHTTP(path string, c chan string) (string, error) {
	dir, err := ioutil.TempDir("", "icegrid")
	if err != nil {
		return "", fmt.Errorf("icegridutil: failed creating temporary download directory: %v", err)
	}
	out := filepath.Join(dir, filepath.Base(path))

	get := func() error {
		resp, err := http.Get(path)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %s", resp.Status)
		}
		w, err := os.Create(out)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, resp.Body); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	}
	notify := func(err error, d time.Duration) {
		if c != nil {
			c <- fmt.Sprintf("retrying download of %s after %v: %v", path, d, err)
		}
	}
	if err := backoff.RetryNotify(get, backoff.NewExponentialBackOff(), notify); err != nil {
		return "", fmt.Errorf("icegridutil: downloading %s: %v", path, err)
	}
	return out, nil
}

// IsBlob returns whether the given filename represents a blob.
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// Even if name contains subdirectories, only the base directory name will be
// used when opening the bucket.
// The currently accepted storage providers are "file" for the local filesystem
// (e.g., for testing), "gs" for Google Cloud Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	url, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("icegridutil.OpenBucket: %v", err)
	}
	switch url.Scheme {
	case "file":
		return fileblob.NewBucket(url.Hostname())
	case "gs":
		return gsBucket(ctx, url.Hostname())
	case "s3":
		return s3Bucket(ctx, url.Hostname())
	default:
		return nil, fmt.Errorf("icegridutil.OpenBucket: invalid provider %s", url.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s := session.Must(session.NewSession(c))
	return s3blob.OpenBucket(ctx, s, name)
}

// downloadBlob downloads the specified file from blob storage.
func downloadBlob(ctx context.Context, path string, c chan string) (string, error) {
	url, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("icegridutil: downloading %s: %v", path, err)
	}
	bucket, err := OpenBucket(ctx, url.Scheme+"://"+url.Host)
	if err != nil {
		return "", fmt.Errorf("icegridutil: downloading %s: %v", path, err)
	}
	dir, err := ioutil.TempDir("", "icegrid")
	if err != nil {
		return "", fmt.Errorf("icegridutil: failed creating temporary download directory: %v", err)
	}
	out := filepath.Join(dir, filepath.Base(url.Path))
	w, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("icegridutil: downloading %s: %v", path, err)
	}
	r, err := bucket.NewReader(ctx, strings.TrimPrefix(url.Path, "/"))
	if err != nil {
		w.Close()
		return "", fmt.Errorf("icegridutil: downloading %s: %v", path, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		r.Close()
		w.Close()
		return "", fmt.Errorf("icegridutil: downloading %s: %v", path, err)
	}
	r.Close()
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("icegridutil: downloading %s: %v", path, err)
	}
	if c != nil {
		c <- fmt.Sprintf("downloaded %s", path)
	}
	return out, nil
}
