package grove

import (
	"github.com/mwantia/grove/log"
	"github.com/mwantia/grove/scheme"
)

type WorkspaceOptions struct {
	Scheme scheme.Scheme
	Logger *log.Logger
}

type WorkspaceOption func(*WorkspaceOptions) error

func newDefaultWorkspaceOptions() *WorkspaceOptions {
	return &WorkspaceOptions{}
}

// WithScheme binds an identifier scheme instance. Without this option
// the scheme is resolved from the workspace record, falling back to
// the default content-hash scheme.
func WithScheme(s scheme.Scheme) WorkspaceOption {
	return func(opts *WorkspaceOptions) error {
		opts.Scheme = s
		return nil
	}
}

// WithSchemeName resolves and binds a registered scheme by name.
func WithSchemeName(name string) WorkspaceOption {
	return func(opts *WorkspaceOptions) error {
		s, err := scheme.Lookup(name)
		if err != nil {
			return err
		}
		opts.Scheme = s
		return nil
	}
}

func WithLogger(logger *log.Logger) WorkspaceOption {
	return func(opts *WorkspaceOptions) error {
		opts.Logger = logger
		return nil
	}
}
