package fragment

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"bvdump/internal/services"
)

// Reader returns a lazy reader over the stream's payload bytes in sequence
// order. At most one fragment file is open at a time; the client's cache
// prefix is skipped on each fragment and declared checksums are verified as
// the bytes flow past.
func (s *Stream) Reader() io.ReadCloser {
	return &streamReader{fragments: s.Fragments}
}

// WriteFile streams the assembled payload into path.
func (s *Stream) WriteFile(path string) (int64, error) {
	reader := s.Reader()
	defer reader.Close()

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create stream file: %w", err)
	}
	written, err := io.Copy(out, reader)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return 0, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("close stream file: %w", err)
	}
	return written, nil
}

type streamReader struct {
	fragments []Fragment
	pos       int
	current   *os.File
	hasher    hash.Hash
	closed    bool
}

func (r *streamReader) Read(p []byte) (int, error) {
	for {
		if r.closed {
			return 0, os.ErrClosed
		}
		if r.current == nil {
			if r.pos >= len(r.fragments) {
				return 0, io.EOF
			}
			if err := r.open(r.fragments[r.pos]); err != nil {
				return 0, err
			}
		}

		n, err := r.current.Read(p)
		if n > 0 && r.hasher != nil {
			_, _ = r.hasher.Write(p[:n])
		}
		if err == io.EOF {
			if err := r.finishFragment(); err != nil {
				return n, err
			}
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (r *streamReader) open(frag Fragment) error {
	file, err := os.Open(frag.Path)
	if err != nil {
		return services.Wrap(services.ErrMalformedLayout, "assembler", "open fragment", frag.Path, err)
	}
	if _, err := file.Seek(cachedPrefixLen, io.SeekStart); err != nil {
		_ = file.Close()
		return services.Wrap(services.ErrFragmentCorrupt, "assembler", "skip cache prefix", frag.Path, err)
	}
	r.current = file
	r.hasher = nil
	if frag.MD5 != "" {
		r.hasher = md5.New()
	}
	return nil
}

func (r *streamReader) finishFragment() error {
	frag := r.fragments[r.pos]
	closeErr := r.current.Close()
	r.current = nil
	r.pos++
	if closeErr != nil {
		return closeErr
	}
	if r.hasher != nil {
		digest := hex.EncodeToString(r.hasher.Sum(nil))
		r.hasher = nil
		if digest != frag.MD5 {
			return services.Wrap(services.ErrFragmentCorrupt, "assembler", "verify checksum",
				fmt.Sprintf("%s: declared md5 %s, payload digests to %s", frag.Path, frag.MD5, digest), nil)
		}
	}
	return nil
}

func (r *streamReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.current != nil {
		err := r.current.Close()
		r.current = nil
		return err
	}
	return nil
}
