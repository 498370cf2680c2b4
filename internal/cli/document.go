package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/roach88/recordings/internal/journal"
	"github.com/roach88/recordings/internal/notify"
	"github.com/roach88/recordings/internal/tree"
)

// session is one mutating command's view of a document: the tree loaded
// into a Store whose changes go to the journal.
type session struct {
	opts     *RootOptions
	docPath  string
	journal  *journal.Journal
	recorder *journal.Recorder
	store    *tree.Store
	report   tree.LoadReport
}

// openSession loads the document at docPath and attaches it to a Store
// whose clock resumes from the journal's last sequence number.
func openSession(ctx context.Context, opts *RootOptions, docPath string) (*session, error) {
	cfg := opts.settings()
	logger := opts.log()

	root, report, err := readDocument(docPath)
	if err != nil {
		return nil, err
	}
	if report.Skipped > 0 {
		if !opts.Repair {
			return nil, NewExitError(ExitFailure, fmt.Sprintf(
				"%s has %d malformed or duplicate record(s); run validate, or pass --repair to drop them",
				docPath, report.Skipped))
		}
		logger.Warn("dropping malformed records",
			"document", docPath,
			"skipped", report.Skipped,
			"duplicates", report.Duplicates)
	}

	collation, err := cfg.Collation.Collation()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid collation config", err)
	}

	j, err := journal.Open(cfg.Database.Path, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	lastSeq, err := j.LastSeq(ctx)
	if err != nil {
		j.Close()
		return nil, WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	rec := j.Recorder(ctx)
	st := tree.New(
		tree.WithRoot(root),
		tree.WithClock(tree.NewClockAt(lastSeq)),
		tree.WithCollation(collation),
		tree.WithIDGenerator(opts.idGenerator()),
		tree.WithLogger(logger),
		tree.WithNotifier(notify.Fanout{rec, notify.NewLogNotifier(logger)}),
	)
	logger.Debug("document loaded",
		"document", docPath,
		"items", st.Len(),
		"last_seq", lastSeq)

	return &session{
		opts:     opts,
		docPath:  docPath,
		journal:  j,
		recorder: rec,
		store:    st,
		report:   report,
	}, nil
}

// lookup parses arg as an identity and finds the attached item.
func (s *session) lookup(arg string) (tree.Item, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid id %q", arg), err)
	}
	it, ok := s.store.Lookup(id)
	if !ok {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("no item %s in %s", id, s.docPath))
	}
	return it, nil
}

// commit checks the journal, writes the document back and snapshots it.
// It returns the snapshot digest.
func (s *session) commit(ctx context.Context) (string, error) {
	if err := s.recorder.Err(); err != nil {
		return "", WrapExitError(ExitCommandError, "journal write failed", err)
	}
	if err := writeDocument(s.docPath, s.store.Root()); err != nil {
		return "", err
	}
	digest, inserted, err := s.journal.WriteSnapshot(ctx, s.store.Root(), s.store.Clock().Current())
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to write snapshot", err)
	}
	s.opts.log().Debug("snapshot written", "digest", digest, "inserted", inserted)
	return digest, nil
}

func (s *session) close() {
	if err := s.journal.Close(); err != nil {
		s.opts.log().Warn("closing journal", "error", err)
	}
}

// readDocument loads a document whose top-level node is a folder.
func readDocument(path string) (*tree.Folder, tree.LoadReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tree.LoadReport{}, WrapExitError(ExitCommandError, "failed to read document", err)
	}
	root, report, err := tree.DecodeFolder(data)
	if err != nil {
		return nil, report, WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", path), err)
	}
	return root, report, nil
}

// writeDocument replaces the file at path with the canonical encoding of
// root. The new content is written to a sibling file and renamed into place.
func writeDocument(path string, root *tree.Folder) error {
	data, err := tree.Encode(root)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode document", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write document", err)
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(tmp.Name())
		return WrapExitError(ExitCommandError, "failed to write document", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return WrapExitError(ExitCommandError, "failed to write document", err)
	}
	return nil
}
