package cli

import (
	"fmt"

	"github.com/mesh-intelligence/spsync/internal/persist"
	"github.com/mesh-intelligence/spsync/internal/records"
	"github.com/mesh-intelligence/spsync/internal/sqlobject"
	"github.com/mesh-intelligence/spsync/pkg/types"
)

// session is one commit of a record stream.
type session struct {
	factory *persist.Factory
	roots   []types.Object
	index   map[string]int
	events  persist.Queue
}

// commitEntries commits entries into a fresh object graph. The returned
// session is usable even when err is not nil: it holds every root that was
// constructed.
func (a *app) commitEntries(entries []records.Entry, sink types.Sink) (*session, error) {
	objects, properties := records.Split(entries)
	pass, err := persist.NewPass(objects, properties)
	if err != nil {
		return nil, err
	}

	s := &session{index: make(map[string]int, len(objects))}
	for _, rec := range objects {
		s.index[rec.ID] = rec.Index
	}
	s.factory = persist.NewFactory(sqlobject.Registry(), sink,
		persist.WithLogger(a.log),
		persist.WithListener(s.events.Listen),
	)
	s.roots, err = s.factory.Commit(pass)
	return s, err
}

// commitFile reads and commits the JSONL stream at path. Unreadable input
// and a failed commit are user errors.
func (a *app) commitFile(path string, sink types.Sink) (*session, error) {
	entries, err := records.ReadFile(path)
	if err != nil {
		return nil, userError(err)
	}
	s, err := a.commitEntries(entries, sink)
	if err != nil {
		return s, userError(fmt.Errorf("commit %s: %w", path, err))
	}
	return s, nil
}

// persist replays every root of the session into its factory's sink.
func (s *session) persist() error {
	for _, root := range s.roots {
		if err := s.factory.PersistTree(root, s.index[root.UUID()]); err != nil {
			return err
		}
	}
	return nil
}

// snapshot captures every root of the session.
func (s *session) snapshot() (snapshot, error) {
	var out snapshot
	for _, root := range s.roots {
		n, err := s.factory.Snapshot(root)
		if err != nil {
			return snapshot{}, err
		}
		out.Roots = append(out.Roots, n)
	}
	return out, nil
}

// count returns the number of events of kind.
func (s *session) count(kind persist.EventKind) int {
	n := 0
	for _, ev := range s.events.Events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
