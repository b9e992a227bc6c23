package progresscheck

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// AbuseSampler is a bounded duplicate-fingerprint detector shared by all
// participant checks within one progress-check run. Fingerprints are
// sampled (at most sampleSize per participant) and kept in an LRU set with
// a hard capacity, so memory stays bounded no matter the trade volume.
type AbuseSampler struct {
	sampleSize int
	seen       *lru.Cache[string, struct{}]
}

func NewAbuseSampler(sampleSize int, capacity int) (*AbuseSampler, error) {
	seen, err := lru.New[string, struct{}](capacity)
	if err != nil {
		return nil, err
	}

	return &AbuseSampler{
		sampleSize: sampleSize,
		seen:       seen,
	}, nil
}

// SampleSize is the max number of fingerprints one participant submits.
func (s *AbuseSampler) SampleSize() int {
	return s.sampleSize
}

// Seen reports whether the fingerprint was already submitted during this run.
func (s *AbuseSampler) Seen(fingerprint string) bool {
	return s.seen.Contains(fingerprint)
}

// Add records a fingerprint for cross-participant duplicate detection.
func (s *AbuseSampler) Add(fingerprint string) {
	s.seen.Add(fingerprint, struct{}{})
}
