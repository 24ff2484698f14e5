package uploads

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// URLPrefix is where stored images are served from.
const URLPrefix = "/uploads/"

var extensionFor = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Store writes uploaded event images to a directory and serves them back.
// All filesystem access goes through os.Root so a crafted name can never
// escape the upload directory.
type Store struct {
	root     *os.Root
	maxBytes int64
}

func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open upload dir: %w", err)
	}
	return &Store{root: root, maxBytes: maxBytes}, nil
}

// Save stores an uploaded image and returns its public URL path. The content
// type is sniffed from the bytes, not trusted from the request, and anything
// outside the image allowlist is rejected.
func (s *Store) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > s.maxBytes {
		return "", fmt.Errorf("image exceeds %d byte limit", s.maxBytes)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read image: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := extensionFor[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported image type %s", contentType)
	}

	name, err := randomName(ext)
	if err != nil {
		return "", err
	}

	dst, err := s.root.Create(name)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := dst.Write(head); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	if _, err := io.Copy(dst, io.LimitReader(file, s.maxBytes)); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	return URLPrefix + name, nil
}

// Handler serves stored images. Directory listings fall through to 404
// because generated names are the only valid paths.
func (s *Store) Handler() http.Handler {
	return http.StripPrefix(URLPrefix, http.FileServerFS(s.root.FS()))
}

// Remove deletes a stored image given its public URL path. Unknown paths are
// not an error; the image may never have existed.
func (s *Store) Remove(urlPath string) error {
	name := filepath.Base(urlPath)
	if name == "." || name == "/" || name == "" {
		return nil
	}
	if err := s.root.Remove(name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.root.Close()
}

func randomName(ext string) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate image name: %w", err)
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), hex.EncodeToString(buf), ext), nil
}
