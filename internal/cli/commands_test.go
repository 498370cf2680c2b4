package cli

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordings/internal/journal"
	"github.com/roach88/recordings/internal/tree"
)

func TestInit(t *testing.T) {
	env := newTestEnv(t)

	var result InitResult
	env.mustRun(t, &result, NewInitCommand, env.doc, "--name", "Library")

	assert.Equal(t, id(1).String(), result.Root)
	assert.Equal(t, "Library", result.Name)
	assert.NotEmpty(t, result.Snapshot)

	data, err := os.ReadFile(env.doc)
	require.NoError(t, err)
	assert.Equal(t,
		`{"children":[],"isFolder":true,"name":"Library","uuid":"00000000-0000-7000-8000-000000000001"}`,
		string(data))
}

func TestInit_RefusesExistingDocument(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, nil, NewInitCommand, env.doc)

	_, err := env.run(NewInitCommand, env.doc)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "already exists")

	var result InitResult
	env.mustRun(t, &result, NewInitCommand, env.doc, "--force", "--name", "Fresh")
	assert.Equal(t, id(2).String(), result.Root)
}

func TestAdd_SortedAndJournaled(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, nil, NewInitCommand, env.doc, "--name", "Library")
	env.mustRun(t, nil, NewAddCommand, env.doc, id(1).String(), "Sessions", "--folder")
	env.mustRun(t, nil, NewAddCommand, env.doc, id(2).String(), "Take 10")

	var result ChangeResult
	env.mustRun(t, &result, NewAddCommand, env.doc, id(2).String(), "Take 2")

	assert.Equal(t, int64(3), result.Seq, "clock resumes from the journal")
	assert.Equal(t, "added", result.Reason)
	assert.Equal(t, id(4).String(), result.Subject)
	assert.Equal(t, []string{id(1).String(), id(2).String(), id(4).String()}, result.Path)
	assert.Equal(t, float64(0), result.Payload[tree.NewValueKey], "numeric order puts Take 2 first")
	assert.Equal(t, id(2).String(), result.Payload[tree.ParentFolderKey])
}

func TestWorkflow_DocumentGolden(t *testing.T) {
	env := newTestEnv(t)
	env.buildLibrary(t)

	data, err := os.ReadFile(env.doc)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "workflow", data)
}

func TestAdd_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.buildLibrary(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown parent", []string{env.doc, id(30).String(), "x"}},
		{"invalid id", []string{env.doc, "not-a-uuid", "x"}},
		{"missing document", []string{env.dir + "/missing.json", id(1).String(), "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(NewAddCommand, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}

	t.Run("recording parent", func(t *testing.T) {
		_, err := env.run(NewAddCommand, env.doc, id(5).String(), "x")
		require.Error(t, err)
		assert.True(t, errors.Is(err, tree.ErrNotFolder))
	})
}

func TestRename_ReportsIndices(t *testing.T) {
	env := newTestEnv(t)
	env.buildLibrary(t)

	var result ChangeResult
	env.mustRun(t, &result, NewRenameCommand, env.doc, id(4).String(), "Take 30")

	assert.Equal(t, int64(5), result.Seq)
	assert.Equal(t, "renamed", result.Reason)
	assert.Equal(t, "Take 30", result.Name)
	assert.Equal(t, float64(0), result.Payload[tree.OldValueKey])
	assert.Equal(t, float64(1), result.Payload[tree.NewValueKey])

	root, _, err := readDocument(env.doc)
	require.NoError(t, err)
	sessions := root.Child(1).(*tree.Folder)
	assert.Equal(t, []string{"Take 10", "Take 30"}, sessions.Names())
}

func TestRename_RootRecordsNothing(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, nil, NewInitCommand, env.doc, "--name", "Library")

	var result ChangeResult
	env.mustRun(t, &result, NewRenameCommand, env.doc, id(1).String(), "Archive")
	assert.Zero(t, result.Seq)

	root, _, err := readDocument(env.doc)
	require.NoError(t, err)
	assert.Equal(t, "Archive", root.Name())

	j, err := journal.Open(env.db, nil)
	require.NoError(t, err)
	defer j.Close()
	last, err := j.LastSeq(context.Background())
	require.NoError(t, err)
	assert.Zero(t, last)
}

func TestRemove(t *testing.T) {
	env := newTestEnv(t)
	env.buildLibrary(t)

	var result ChangeResult
	env.mustRun(t, &result, NewRemoveCommand, env.doc, id(2).String())

	assert.Equal(t, int64(5), result.Seq)
	assert.Equal(t, "removed", result.Reason)
	assert.Equal(t, []string{id(1).String(), id(2).String()}, result.Path)

	old, ok := result.Payload[tree.OldValueKey].(map[string]any)
	require.True(t, ok, "removed payload carries the detached record")
	assert.Equal(t, "Sessions", old[tree.NameKey])
	assert.Len(t, old[tree.ChildrenKey], 2)

	root, _, err := readDocument(env.doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Intro"}, root.Names())
}

func TestRemove_Root(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, nil, NewInitCommand, env.doc)

	_, err := env.run(NewRemoveCommand, env.doc, id(1).String())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "root")
}

func TestMutation_WritesSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.buildLibrary(t)

	var result ChangeResult
	env.mustRun(t, &result, NewRenameCommand, env.doc, id(5).String(), "Overture")

	j, err := journal.Open(env.db, nil)
	require.NoError(t, err)
	defer j.Close()

	snap, err := j.LatestSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), snap.LastSeq)
	assert.Equal(t, result.Snapshot, snap.Digest)

	data, err := os.ReadFile(env.doc)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(snap.Document))
}

func TestShow_Text(t *testing.T) {
	env := newTestEnv(t)
	env.buildLibrary(t)
	env.opts.Format = "text"

	buf, err := env.run(NewShowCommand, env.doc)
	require.NoError(t, err)

	want := "Library/  " + id(1).String() + "\n" +
		"  Intro  " + id(5).String() + "\n" +
		"  Sessions/  " + id(2).String() + "\n" +
		"    Take 2  " + id(4).String() + "\n" +
		"    Take 10  " + id(3).String() + "\n"
	assert.Equal(t, want, buf.String())
}

func TestShow_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.buildLibrary(t)

	var record map[string]any
	env.mustRun(t, &record, NewShowCommand, env.doc)

	assert.Equal(t, "Library", record[tree.NameKey])
	children := record[tree.ChildrenKey].([]any)
	require.Len(t, children, 2)
	assert.Equal(t, "Intro", children[0].(map[string]any)[tree.NameKey])
}

func TestShow_ResortsUnderConfiguredCollation(t *testing.T) {
	env := newTestEnv(t)
	env.opts.Format = "text"
	doc := `{"name":"Library","uuid":"` + id(1).String() + `","isFolder":true,"children":[` +
		`{"name":"b","uuid":"` + id(2).String() + `","isFolder":false},` +
		`{"name":"a","uuid":"` + id(3).String() + `","isFolder":false}]}`
	require.NoError(t, os.WriteFile(env.doc, []byte(doc), 0o644))

	buf, err := env.run(NewShowCommand, env.doc)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "  a  "+id(3).String()+"\n  b  "+id(2).String())
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t)
	env.buildLibrary(t)

	var result ValidateResult
	env.mustRun(t, &result, NewValidateCommand, env.doc)
	assert.True(t, result.Valid)
	assert.Equal(t, 5, result.Loaded)
	assert.Empty(t, result.Violations)
}

func TestValidate_SkippedRecords(t *testing.T) {
	env := newTestEnv(t)
	doc := `{"name":"Library","uuid":"` + id(1).String() + `","isFolder":true,"children":[` +
		`{"name":"ok","uuid":"` + id(2).String() + `","isFolder":false},` +
		`{"name":"no id","isFolder":false}]}`
	require.NoError(t, os.WriteFile(env.doc, []byte(doc), 0o644))

	buf, err := env.run(NewValidateCommand, env.doc)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ValidateResult
	decodeData(t, buf, &result)
	assert.False(t, result.Valid)
	assert.Equal(t, 2, result.Loaded)
	assert.Equal(t, 1, result.Skipped)
}

func TestMutate_RefusesMalformedDocumentWithoutRepair(t *testing.T) {
	env := newTestEnv(t)
	doc := `{"name":"Library","uuid":"` + id(1).String() + `","isFolder":true,"children":[` +
		`{"name":"ok","uuid":"` + id(2).String() + `","isFolder":false},` +
		`{"name":"no id","isFolder":false}]}`
	require.NoError(t, os.WriteFile(env.doc, []byte(doc), 0o644))
	env.opts.IDs = tree.NewFixedGenerator(id(3))

	_, err := env.run(NewAddCommand, env.doc, id(1).String(), "Take 1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "--repair")
	data, err := os.ReadFile(env.doc)
	require.NoError(t, err)
	assert.Equal(t, doc, string(data), "document must be left untouched")

	var result ChangeResult
	env.mustRun(t, &result, NewAddCommand, env.doc, id(1).String(), "Take 1", "--repair")
	assert.Equal(t, "added", result.Reason)
	assert.Equal(t, 1, result.Dropped)

	var valid ValidateResult
	env.mustRun(t, &valid, NewValidateCommand, env.doc)
	assert.True(t, valid.Valid)
	assert.Equal(t, 3, valid.Loaded)
}

func TestValidate_RecordingAtTop(t *testing.T) {
	env := newTestEnv(t)
	doc := `{"name":"solo","uuid":"` + id(1).String() + `","isFolder":false}`
	require.NoError(t, os.WriteFile(env.doc, []byte(doc), 0o644))

	buf, err := env.run(NewValidateCommand, env.doc)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ValidateResult
	decodeData(t, buf, &result)
	require.NotEmpty(t, result.Violations)
	assert.Contains(t, result.Violations[len(result.Violations)-1].Message, "not a folder")
}

func TestValidate_Unparsable(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.doc, []byte("{not json"), 0o644))

	_, err := env.run(NewValidateCommand, env.doc)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLog_CursorWalk(t *testing.T) {
	env := newTestEnv(t)
	env.buildLibrary(t)
	env.mustRun(t, nil, NewRenameCommand, env.doc, id(4).String(), "Take 30")
	env.mustRun(t, nil, NewRemoveCommand, env.doc, id(4).String())

	var entries []LogEntry
	env.mustRun(t, &entries, NewLogCommand, id(4).String())
	require.Len(t, entries, 3)
	assert.Equal(t, []int64{3, 5, 6}, []int64{entries[0].Seq, entries[1].Seq, entries[2].Seq})
	assert.Equal(t, []string{"added", "renamed", "removed"},
		[]string{entries[0].Reason, entries[1].Reason, entries[2].Reason})

	entries = nil
	env.mustRun(t, &entries, NewLogCommand, id(4).String(), "--after", "3")
	require.Len(t, entries, 2)
	assert.Equal(t, int64(5), entries[0].Seq)

	entries = nil
	env.mustRun(t, &entries, NewLogCommand, id(4).String(), "--latest")
	require.Len(t, entries, 1)
	assert.Equal(t, "removed", entries[0].Reason)
}

func TestLog_AllAndEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.buildLibrary(t)

	var entries []LogEntry
	env.mustRun(t, &entries, NewLogCommand)
	assert.Len(t, entries, 4)

	entries = nil
	env.mustRun(t, &entries, NewLogCommand, "--after", "4")
	assert.Empty(t, entries)

	env.opts.Format = "text"
	buf, err := env.run(NewLogCommand, id(30).String())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No changes found.")
}

func TestLog_LatestRequiresID(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(NewLogCommand, "--latest")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
