package index

import "github.com/mwantia/grove/log"

type Options struct {
	Recursive   bool
	IncludeDocs bool
	SchemeName  string
	Logger      *log.Logger
	Cache       CacheStore
}

type Option func(*Options) error

func newDefaultOptions() *Options {
	return &Options{}
}

// WithRecursive scans the whole tree below the root instead of only
// its direct children.
func WithRecursive() Option {
	return func(opts *Options) error {
		opts.Recursive = true
		return nil
	}
}

// WithDocuments loads the document sidecar into every record at build
// time, making the doc namespace queryable.
func WithDocuments() Option {
	return func(opts *Options) error {
		opts.IncludeDocs = true
		return nil
	}
}

// WithScheme tags the index with an identifier-scheme name. The tag is
// persisted into the cache and checked on load.
func WithScheme(name string) Option {
	return func(opts *Options) error {
		opts.SchemeName = name
		return nil
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(opts *Options) error {
		opts.Logger = logger
		return nil
	}
}

// WithCache replaces the default cache file with another store.
func WithCache(store CacheStore) Option {
	return func(opts *Options) error {
		opts.Cache = store
		return nil
	}
}
