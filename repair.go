package grove

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mwantia/grove/data"
)

// stagingPrefix marks directories parked under a temporary name while
// a repair batch resolves naming cycles. Staged directories are still
// managed, so an interrupted repair converges on the next run.
const stagingPrefix = "grove-tmp-"

type pendingRename struct {
	current string
	want    string
}

// Repair renames managed directories back to the identifier computed
// from their current attributes. Given identifiers restrict the batch;
// without any, every managed directory is considered. Renames within a
// batch are ordered to avoid collisions: a directory whose target name
// is still occupied by another batch member waits, and pure permutation
// cycles are broken by staging one member through a temporary name.
//
// Repair is not transactional across the batch. Every completed rename
// independently re-establishes the invariant for its directory, so a
// crashed repair is safely re-runnable.
func (w *Workspace) Repair(ctx context.Context, ids ...string) error {
	targets := ids
	if len(targets) == 0 {
		var err error
		if targets, err = w.managed(); err != nil {
			return err
		}
	}

	pending, err := w.plan(ctx, targets)
	if err != nil {
		return err
	}

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		occupied := make(map[string]bool, len(pending))
		for _, p := range pending {
			occupied[p.current] = true
		}

		progressed := false
		var remaining []pendingRename
		for _, p := range pending {
			if w.exists(p.want) {
				remaining = append(remaining, p)
				continue
			}
			if err := w.rename(p.current, p.want); err != nil {
				return err
			}
			progressed = true
		}

		if !progressed && len(remaining) > 0 {
			// Every remaining target is occupied. If some blocker is
			// itself awaiting repair this is a cycle; park one member
			// under a staging name to break it. Otherwise a directory
			// outside the batch owns the target and repair cannot
			// proceed.
			staged := false
			for i, p := range remaining {
				if !occupied[p.want] {
					continue
				}
				tmp := stagingPrefix + uuid.Must(uuid.NewV7()).String()
				if err := w.rename(p.current, tmp); err != nil {
					return err
				}
				remaining[i].current = tmp
				staged = true
				break
			}
			if !staged {
				return fmt.Errorf("%w: repair target %s is occupied outside the batch",
					data.ErrCorrupted, remaining[0].want)
			}
		}

		pending = remaining
	}
	return nil
}

// plan computes the rename set for the batch, skipping directories
// whose name is already correct.
func (w *Workspace) plan(ctx context.Context, targets []string) ([]pendingRename, error) {
	var pending []pendingRename
	for _, name := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(w.root, name)
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("grove: repair %s: %w", name, err)
			}
			return nil, fmt.Errorf("%w: %s", data.ErrNotExist, name)
		}

		attrs, err := data.ReadAttrs(path)
		if err != nil {
			return nil, err
		}

		want, err := w.AttrsID(attrs)
		if err != nil {
			return nil, err
		}
		if want == name {
			continue
		}

		pending = append(pending, pendingRename{current: name, want: want})
	}
	return pending, nil
}

func (w *Workspace) exists(name string) bool {
	_, err := os.Stat(filepath.Join(w.root, name))
	return err == nil
}

func (w *Workspace) rename(from, to string) error {
	if err := os.Rename(filepath.Join(w.root, from), filepath.Join(w.root, to)); err != nil {
		return fmt.Errorf("grove: repair rename %s -> %s: %w", from, to, err)
	}

	w.log.Info("renamed %s -> %s", from, to)
	return nil
}
