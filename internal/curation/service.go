// Package curation executes bulk library mutations derived from
// analysis output: duplicate removal, album removal, and year playlist
// creation. Operations batch their remote writes and accumulate partial
// results; a half-applied mutation is a valid, reported terminal state
// and is never rolled back.
package curation

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jonjanego/spotify-library-curation/internal/analysis"
	"github.com/jonjanego/spotify-library-curation/internal/library"
)

const (
	// DefaultRemoveBatchSize is how many track removals go into one
	// remote call.
	DefaultRemoveBatchSize = 50

	// DefaultPlaylistBatchSize is how many tracks one playlist-append
	// call carries.
	DefaultPlaylistBatchSize = 100

	// DefaultAppendAttempts is how often a failed playlist-append
	// batch is retried before the year is given up on.
	DefaultAppendAttempts = 3

	// DefaultBackoffUnit scales the linear retry backoff: the delay
	// before attempt n is n times this unit.
	DefaultBackoffUnit = time.Second
)

// Service runs bulk mutations against the library source.
type Service struct {
	source   library.Source
	logger   *log.Logger
	albumCfg analysis.AlbumConfig
	location *time.Location

	removeBatchSize   int
	playlistBatchSize int
	appendAttempts    int
	backoffUnit       time.Duration
	sleep             func(time.Duration)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the operation logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAlbumConfig overrides the album classification thresholds.
func WithAlbumConfig(cfg analysis.AlbumConfig) Option {
	return func(s *Service) {
		s.albumCfg = cfg
	}
}

// WithLocation sets the timezone year buckets are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.location = loc
	}
}

// WithBatchSizes overrides the remote write batch sizes.
func WithBatchSizes(removeBatch, playlistBatch int) Option {
	return func(s *Service) {
		if removeBatch > 0 {
			s.removeBatchSize = removeBatch
		}
		if playlistBatch > 0 {
			s.playlistBatchSize = playlistBatch
		}
	}
}

// WithAppendRetry tunes the playlist-append retry loop.
func WithAppendRetry(attempts int, unit time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.appendAttempts = attempts
		}
		s.backoffUnit = unit
	}
}

// WithSleep replaces the sleep function used for retry backoff, so
// tests run without real delays.
func WithSleep(sleep func(time.Duration)) Option {
	return func(s *Service) {
		s.sleep = sleep
	}
}

// NewService creates a curation service over the given library source.
func NewService(source library.Source, opts ...Option) *Service {
	s := &Service{
		source:            source,
		logger:            log.New(io.Discard),
		albumCfg:          analysis.DefaultAlbumConfig(),
		location:          time.Local,
		removeBatchSize:   DefaultRemoveBatchSize,
		playlistBatchSize: DefaultPlaylistBatchSize,
		appendAttempts:    DefaultAppendAttempts,
		backoffUnit:       DefaultBackoffUnit,
		sleep:             time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// invalidate discards the library snapshot after a successful write so
// the next analysis reflects the change.
func (s *Service) invalidate() {
	if err := s.source.InvalidateCache(); err != nil {
		s.logger.Warn("could not invalidate library snapshot", "err", err)
	}
}
