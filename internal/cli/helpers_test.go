package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordings/internal/tree"
)

// testEnv is a document and journal in a temp dir, driven with sequential
// ids: init takes id 1 and every later item the next one.
type testEnv struct {
	dir  string
	doc  string
	db   string
	opts *RootOptions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "journal.db")
	return &testEnv{
		dir: dir,
		doc: filepath.Join(dir, "library.json"),
		db:  db,
		opts: &RootOptions{
			Format:   "json",
			Database: db,
			IDs:      tree.SequentialGenerator(32),
		},
	}
}

func (e *testEnv) run(newCmd func(*RootOptions) *cobra.Command, args ...string) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	cmd := newCmd(e.opts)
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

// mustRun runs a command that must succeed and decodes its JSON data into v.
func (e *testEnv) mustRun(t *testing.T, v any, newCmd func(*RootOptions) *cobra.Command, args ...string) {
	t.Helper()
	buf, err := e.run(newCmd, args...)
	require.NoError(t, err, "output: %s", buf.String())
	decodeData(t, buf, v)
}

func decodeData(t *testing.T, buf *bytes.Buffer, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	if v != nil {
		require.NoError(t, json.Unmarshal(resp.Data, v))
	}
}

// buildLibrary creates
//
//	Library (1)
//	  Intro (5)
//	  Sessions/ (2)
//	    Take 2 (4)
//	    Take 10 (3)
//
// journaling four added changes, seq 1 to 4.
func (e *testEnv) buildLibrary(t *testing.T) {
	t.Helper()
	e.mustRun(t, nil, NewInitCommand, e.doc, "--name", "Library")
	e.mustRun(t, nil, NewAddCommand, e.doc, id(1).String(), "Sessions", "--folder")
	e.mustRun(t, nil, NewAddCommand, e.doc, id(2).String(), "Take 10")
	e.mustRun(t, nil, NewAddCommand, e.doc, id(2).String(), "Take 2")
	e.mustRun(t, nil, NewAddCommand, e.doc, id(1).String(), "Intro")
}

func id(n int) uuid.UUID { return tree.SequentialID(n) }
