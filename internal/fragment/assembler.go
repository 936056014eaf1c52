package fragment

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"bvdump/internal/metadata"
	"bvdump/internal/services"
)

const (
	// cachedPrefixLen is the number of bytes the client prepends to every
	// cached fragment before the real container payload starts.
	cachedPrefixLen = 9

	fragmentExtension = ".m4s"
)

// Fragment is one contiguous chunk of a variant's elementary data.
type Fragment struct {
	Index       int
	Path        string
	PayloadSize int64
	MD5         string
}

// Stream is the validated, ordered fragment sequence for one variant. The
// payload bytes are not held in memory; Reader streams them one fragment at
// a time.
type Stream struct {
	Variant   metadata.StreamVariant
	Fragments []Fragment
}

// TotalSize returns the summed payload size across all fragments.
func (s *Stream) TotalSize() int64 {
	var total int64
	for _, frag := range s.Fragments {
		total += frag.PayloadSize
	}
	return total
}

// Assemble lists the variant's fragment directory, orders the fragments by
// the sequence index in their names, and verifies the indices form a dense
// 0-based range. Declared sizes are checked here; declared checksums are
// checked while streaming.
func Assemble(dir string, variant metadata.StreamVariant) (*Stream, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedLayout, "assembler", "list fragment dir", dir, err)
	}

	byIndex := make(map[int]Fragment)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		index, err := parseIndex(entry.Name())
		if err != nil {
			return nil, services.Wrap(services.ErrMalformedLayout, "assembler", "parse fragment name",
				filepath.Join(dir, entry.Name()), err)
		}
		if _, exists := byIndex[index]; exists {
			return nil, services.Wrap(services.ErrFragmentDuplicate, "assembler", "order fragments",
				fmt.Sprintf("%s: index %d appears more than once", dir, index), nil)
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return nil, services.Wrap(services.ErrMalformedLayout, "assembler", "stat fragment", path, err)
		}
		if info.Size() <= cachedPrefixLen {
			return nil, services.Wrap(services.ErrFragmentCorrupt, "assembler", "stat fragment",
				fmt.Sprintf("%s: %d bytes is shorter than the cache prefix", path, info.Size()), nil)
		}
		byIndex[index] = Fragment{Index: index, Path: path, PayloadSize: info.Size() - cachedPrefixLen}
	}
	if len(byIndex) == 0 {
		return nil, services.Wrap(services.ErrMalformedLayout, "assembler", "order fragments",
			fmt.Sprintf("%s holds no fragments", dir), nil)
	}

	stream := &Stream{Variant: variant}
	if err := orderDense(stream, byIndex, dir, variant.FragmentCount); err != nil {
		return nil, err
	}
	if err := applyDeclarations(stream, variant, dir); err != nil {
		return nil, err
	}
	return stream, nil
}

// orderDense verifies the collected indices form [0, N) with no gaps and
// fills the stream in sequence order.
func orderDense(stream *Stream, byIndex map[int]Fragment, dir string, declaredCount int) error {
	indices := make([]int, 0, len(byIndex))
	for index := range byIndex {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	// Indices are unique and sorted, so any hole shows up as index != position.
	for i, index := range indices {
		if index != i {
			return services.Wrap(services.ErrFragmentGap, "assembler", "verify sequence",
				fmt.Sprintf("%s: index %d is missing", dir, i), nil)
		}
	}
	if declaredCount > len(indices) {
		return services.Wrap(services.ErrFragmentGap, "assembler", "verify sequence",
			fmt.Sprintf("%s: index %d is missing", dir, len(indices)), nil)
	}

	stream.Fragments = make([]Fragment, 0, len(indices))
	for _, index := range indices {
		stream.Fragments = append(stream.Fragments, byIndex[index])
	}
	return nil
}

// applyDeclarations cross-checks the metadata's optional count, size, and
// checksum declarations against what is on disk.
func applyDeclarations(stream *Stream, variant metadata.StreamVariant, dir string) error {
	if variant.FragmentCount > 0 && len(stream.Fragments) != variant.FragmentCount {
		return services.Wrap(services.ErrFragmentCorrupt, "assembler", "verify declarations",
			fmt.Sprintf("%s: %d fragments on disk, metadata declares %d", dir, len(stream.Fragments), variant.FragmentCount), nil)
	}
	for _, part := range variant.Parts {
		if part.Index >= len(stream.Fragments) {
			return services.Wrap(services.ErrMalformedMetadata, "assembler", "verify declarations",
				fmt.Sprintf("%s: metadata declares part %d beyond fragment range", dir, part.Index), nil)
		}
		frag := &stream.Fragments[part.Index]
		if part.Size > 0 && part.Size != frag.PayloadSize {
			return services.Wrap(services.ErrFragmentCorrupt, "assembler", "verify declarations",
				fmt.Sprintf("%s: declared size %d, payload is %d bytes", frag.Path, part.Size, frag.PayloadSize), nil)
		}
		frag.MD5 = part.MD5
	}
	if variant.TotalSize > 0 && stream.TotalSize() != variant.TotalSize {
		return services.Wrap(services.ErrFragmentCorrupt, "assembler", "verify declarations",
			fmt.Sprintf("%s: declared variant size %d, payloads sum to %d", dir, variant.TotalSize, stream.TotalSize()), nil)
	}
	return nil
}

func parseIndex(name string) (int, error) {
	base, ok := strings.CutSuffix(name, fragmentExtension)
	if !ok {
		return 0, fmt.Errorf("unexpected extension on %q", name)
	}
	index, err := strconv.Atoi(base)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("no sequence index in %q", name)
	}
	return index, nil
}
