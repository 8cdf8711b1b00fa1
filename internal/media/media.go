package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/choshma-zone/storefront/internal/config"
)

var ErrDisabled = errors.New("media storage is not configured")

// Store keeps product images in a publicly readable GCS bucket. Objects live
// under products/{productID}/<fileName>; the bucket grants allUsers object
// read via uniform IAM, so PublicURL needs no signing.
type Store struct {
	client        *gcs.Client
	bucket        string
	publicBaseURL string
	logger        *zap.Logger
}

func NewStore(client *gcs.Client, cfg config.Media, logger *zap.Logger) *Store {
	return &Store{
		client:        client,
		bucket:        strings.TrimSpace(cfg.Bucket),
		publicBaseURL: strings.TrimSpace(cfg.PublicBaseURL),
		logger:        logger,
	}
}

// Enabled reports whether uploads can be served; without a bucket the admin
// image endpoints answer 503 and products keep whatever URL they carry.
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil && s.bucket != ""
}

// UploadProductImage stores the bytes and returns the public URL.
func (s *Store) UploadProductImage(ctx context.Context, productID, fileName, contentType string, data []byte) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	obj := ObjectPath(productID, fileName)
	if obj == "" {
		return "", errors.New("empty product id or file name")
	}

	w := s.client.Bucket(s.bucket).Object(obj).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	}
	w.ChunkSize = 0
	w.Metadata = map[string]string{
		"uploadedAt": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", obj, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", obj, err)
	}

	s.logger.Info("product image uploaded",
		zap.String("product_id", productID),
		zap.String("object", obj),
		zap.Int("bytes", len(data)),
	)
	return s.PublicURL(obj), nil
}

// DeleteProductImages removes every object under the product's prefix.
// A missing object is not an error.
func (s *Store) DeleteProductImages(ctx context.Context, productID string) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	prefix := "products/" + strings.TrimSpace(productID) + "/"
	paths, err := s.list(ctx, prefix)
	if err != nil {
		return err
	}
	bh := s.client.Bucket(s.bucket)
	for _, p := range paths {
		if err := bh.Object(p).Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			return fmt.Errorf("delete %s: %w", p, err)
		}
	}
	if len(paths) > 0 {
		s.logger.Info("product images deleted",
			zap.String("product_id", productID),
			zap.Int("objects", len(paths)),
		)
	}
	return nil
}

func (s *Store) list(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
	var out []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		if attrs == nil || attrs.Name == "" {
			continue
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

// PublicURL encodes each path segment but keeps the "/" separators.
func (s *Store) PublicURL(objectPath string) string {
	base := s.publicBaseURL
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	parts := strings.Split(objectPath, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), s.bucket, strings.Join(parts, "/"))
}

// ObjectPath builds products/{id}/{file}, flattening any directory part the
// client smuggled into the file name.
func ObjectPath(productID, fileName string) string {
	id := strings.TrimSpace(productID)
	name := path.Base(strings.TrimSpace(fileName))
	if id == "" || name == "" || name == "." || name == "/" {
		return ""
	}
	return "products/" + id + "/" + name
}
