// Package simhash detects near-duplicate page content.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
)

// DefaultThreshold is the largest Hamming distance treated as a duplicate.
const DefaultThreshold = 3

// Fingerprint computes a 64-bit SimHash over the lower-cased words of text.
func Fingerprint(text string) uint64 {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}

	var vector [64]int
	h := fnv.New64a()
	for _, word := range words {
		h.Reset()
		h.Write([]byte(word))
		sum := h.Sum64()
		for i := 0; i < 64; i++ {
			if sum&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// FingerprintMarkdown fingerprints a Markdown page, ignoring a leading
// <!-- source --> comment line so the same content at two URLs matches.
func FingerprintMarkdown(md string) uint64 {
	md = strings.TrimLeft(md, " \t\r\n")
	if strings.HasPrefix(md, "<!--") {
		if end := strings.Index(md, "-->"); end >= 0 {
			md = md[end+len("-->"):]
		}
	}
	return Fingerprint(md)
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether a and b are within threshold bits.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// Index remembers fingerprints and flags near-duplicates. It is not safe for
// concurrent use.
type Index struct {
	threshold int
	seen      []uint64
}

// NewIndex creates an Index with the given threshold.
func NewIndex(threshold int) *Index {
	return &Index{threshold: threshold}
}

// Add records fp and reports whether it was new. A fingerprint within the
// threshold of one already recorded is a duplicate and is not recorded.
func (x *Index) Add(fp uint64) bool {
	for _, s := range x.seen {
		if Similar(fp, s, x.threshold) {
			return false
		}
	}
	x.seen = append(x.seen, fp)
	return true
}

// Len returns the number of distinct fingerprints recorded.
func (x *Index) Len() int { return len(x.seen) }
