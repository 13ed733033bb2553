// Package blocksize parses the human-readable block-size grammar used in
// blocksync configuration: a bare integer (bytes), or digits followed by a
// unit suffix. Decimal units (KB, MB, GB) use powers of 1000; binary units
// (KiB, MiB, GiB, and the unqualified K, M, G) use powers of 1024.
package blocksize

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	B   int64 = 1
	KB  int64 = 1000
	MB  int64 = KB * 1000
	GB  int64 = MB * 1000
	KiB int64 = 1 << 10
	MiB int64 = KiB << 10
	GiB int64 = MiB << 10
)

var units = map[string]int64{
	"B":   B,
	"KB":  KB,
	"MB":  MB,
	"GB":  GB,
	"KIB": KiB,
	"K":   KiB,
	"MIB": MiB,
	"M":   MiB,
	"GIB": GiB,
	"G":   GiB,
}

var pattern = regexp.MustCompile(`^([0-9]+)(B|KB|MB|GB|KiB|K|MiB|M|GiB|G)$`)

// Parse resolves a human-readable block-size string. A bare integer
// literal is bytes; an integer followed by a unit suffix (B, KB, MB, GB,
// or the binary KiB/K, MiB/M, GiB/G) is scaled accordingly. ParseInt-style
// errors are wrapped with the offending input for easier diagnosis.
func Parse(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("blocksize: negative size %q", s)
		}
		return n, nil
	}

	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("blocksize: invalid size %q", s)
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("blocksize: invalid size %q: %w", s, err)
	}

	factor, ok := units[normalizeUnit(m[2])]
	if !ok {
		return 0, fmt.Errorf("blocksize: unknown unit in %q", s)
	}
	return n * factor, nil
}

// Resolve accepts either an int/int64 (already in bytes) or a
// human-readable string, so callers can configure block_size either way.
func Resolve(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		if x < 0 {
			return 0, fmt.Errorf("blocksize: negative size %d", x)
		}
		return x, nil
	case int:
		return Resolve(int64(x))
	case string:
		return Parse(x)
	default:
		return 0, fmt.Errorf("blocksize: unsupported value %T", v)
	}
}

func normalizeUnit(u string) string {
	out := make([]byte, len(u))
	for i := 0; i < len(u); i++ {
		c := u[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
