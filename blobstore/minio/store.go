package minio

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/glyphscan/blobstore"
)

// Store reads glyph files from, and writes reports to, a MinIO bucket.
type Store struct {
	client *minio.Client
	bucket string
	root   string
}

// NewStore returns a store over bucket. Every name is resolved below
// rootPrefix ("" for the bucket root).
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{client: client, bucket: bucket, root: strings.Trim(rootPrefix, "/")}
}

var _ blobstore.Store = (*Store)(nil)

// key maps a name to an object key. A trailing slash survives so that
// directory-style prefixes only match their own subtree.
func (s *Store) key(name string) string {
	k := path.Join(s.root, name)
	if strings.HasSuffix(name, "/") || (name == "" && s.root != "") {
		k += "/"
	}
	return strings.TrimPrefix(k, "/")
}

func (s *Store) name(key string) string {
	if s.root == "" {
		return key
	}
	return strings.TrimPrefix(key, s.root+"/")
}

// Open fails with blobstore.ErrNotFound for missing objects. GetObject alone
// would only report that on the first Read, so the object is stat'ed first.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	k := s.key(name)
	if _, err := s.client.StatObject(ctx, s.bucket, k, minio.StatObjectOptions{}); err != nil {
		return nil, mapError(err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, k, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err)
	}
	return obj, nil
}

// Put uploads data, tagging reports with a content type derived from the name.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType(name)})
	return mapError(err)
}

// List walks every object below prefix and returns the names sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, mapError(obj.Err)
		}
		if n := s.name(obj.Key); n != "" && !strings.HasSuffix(n, "/") {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return blobstore.ErrNotFound
	}
	return err
}
