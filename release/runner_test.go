package release

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solsnap/version"
)

// fakeExporter stands in for the external solution CLI: Export drops a
// marker archive, Unpack materializes a fixture tree. The transient paths
// it was handed are recorded so tests can check they were cleaned up.
type fakeExporter struct {
	tree      map[string]string
	exportErr error
	unpackErr error

	gotArchive string
	gotDest    string
}

func (f *fakeExporter) Export(_ context.Context, _ string, _ bool, archivePath string) error {
	f.gotArchive = archivePath
	if f.exportErr != nil {
		return f.exportErr
	}
	return os.WriteFile(archivePath, []byte("zip"), 0644)
}

func (f *fakeExporter) Unpack(_ context.Context, _ string, destDir string) error {
	f.gotDest = destDir
	if f.unpackErr != nil {
		return f.unpackErr
	}
	for path, content := range f.tree {
		full := filepath.Join(destDir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

func solutionXML(versionText string) string {
	return "<ImportExportXml>\n  <SolutionManifest>\n    <Version>" + versionText + "</Version>\n  </SolutionManifest>\n</ImportExportXml>\n"
}

func writeWorkingTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
}

func newTestRunner(t *testing.T, workingDir string, exp Exporter, bump version.Kind) *Runner {
	t.Helper()
	runner, err := NewRunner(Config{
		Solution:      "DemoSolution",
		WorkingDir:    workingDir,
		Bump:          bump,
		NoisePatterns: []string{"*.msapp"},
	}, exp)
	require.NoError(t, err)
	return runner
}

func TestRunner_BumpAndSync(t *testing.T) {
	workingDir := t.TempDir()
	writeWorkingTree(t, workingDir, map[string]string{
		"Solution.xml":   solutionXML("1.4.2"),
		"Entities/a.xml": "old entity",
	})

	exp := &fakeExporter{tree: map[string]string{
		"Solution.xml":     solutionXML("1.4.2"),
		"Entities/a.xml":   "updated entity",
		"Entities/new.xml": "brand new",
	}}

	result, err := newTestRunner(t, workingDir, exp, version.Minor).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BumpAndSync, result.Decision)
	assert.Equal(t, "1.4.2", result.OldVersion.String())
	assert.Equal(t, "1.5.0", result.NewVersion.String())
	assert.Equal(t, "v1.5.0", result.Tag())
	assert.Equal(t, []string{"Entities/a.xml"}, result.Diff.Changed)
	assert.Equal(t, []string{"Entities/new.xml"}, result.Diff.Added)
	assert.Empty(t, result.Mirror.Failed)

	// The bumped version reached the working tree through the mirror.
	content, err := os.ReadFile(filepath.Join(workingDir, "Solution.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "<Version>1.5.0</Version>")

	content, err = os.ReadFile(filepath.Join(workingDir, "Entities", "new.xml"))
	require.NoError(t, err)
	assert.Equal(t, "brand new", string(content))
}

func TestRunner_NoOpLeavesWorkingTreeAlone(t *testing.T) {
	workingDir := t.TempDir()
	files := map[string]string{
		"Solution.xml":   solutionXML("1.4.2"),
		"Entities/a.xml": "entity",
	}
	writeWorkingTree(t, workingDir, files)

	exp := &fakeExporter{tree: files}

	result, err := newTestRunner(t, workingDir, exp, version.None).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, NoOp, result.Decision)
	assert.True(t, result.Diff.IsEmpty())
	assert.Equal(t, "1.4.2", result.NewVersion.String())
	assert.Zero(t, result.Mirror.Ops())

	content, err := os.ReadFile(filepath.Join(workingDir, "Solution.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "<Version>1.4.2</Version>")
}

// Export-tool noise must not trigger a release: an extra .msapp in the new
// export with otherwise identical content is a no-op.
func TestRunner_NoiseOnlyExportIsNoOp(t *testing.T) {
	workingDir := t.TempDir()
	writeWorkingTree(t, workingDir, map[string]string{
		"Solution.xml": solutionXML("1.4.2"),
		"a.txt":        "1",
	})

	exp := &fakeExporter{tree: map[string]string{
		"Solution.xml": solutionXML("1.4.2"),
		"a.txt":        "1",
		"b.msapp":      "X",
	}}

	result, err := newTestRunner(t, workingDir, exp, version.None).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, NoOp, result.Decision)
	assert.True(t, result.Diff.IsEmpty())
	_, err = os.Stat(filepath.Join(workingDir, "b.msapp"))
	assert.True(t, os.IsNotExist(err), "no-op must not mirror anything")
}

func TestRunner_FourSegmentPatchEscalation(t *testing.T) {
	workingDir := t.TempDir()
	writeWorkingTree(t, workingDir, map[string]string{
		"Solution.xml": solutionXML("2.0.1.9"),
		"a.xml":        "old",
	})

	exp := &fakeExporter{tree: map[string]string{
		"Solution.xml": solutionXML("2.0.1.9"),
		"a.xml":        "new",
	}}

	result, err := newTestRunner(t, workingDir, exp, version.None).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BumpAndSync, result.Decision)
	assert.Equal(t, version.Patch, result.Bumped)
	assert.Equal(t, "2.0.1.10", result.NewVersion.String())
}

func TestRunner_BumpOnlyForcedWithEmptyDiff(t *testing.T) {
	workingDir := t.TempDir()
	files := map[string]string{"Solution.xml": solutionXML("1.0.0")}
	writeWorkingTree(t, workingDir, files)

	exp := &fakeExporter{tree: files}

	result, err := newTestRunner(t, workingDir, exp, version.Major).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BumpOnly, result.Decision)
	assert.Equal(t, "2.0.0", result.NewVersion.String())
	// Only the rewritten manifest moves.
	assert.Equal(t, []string{"Solution.xml"}, result.Mirror.Copied)
	assert.Empty(t, result.Mirror.Deleted)

	content, err := os.ReadFile(filepath.Join(workingDir, "Solution.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "<Version>2.0.0</Version>")
}

func TestRunner_FirstRunImportsEverything(t *testing.T) {
	workingDir := filepath.Join(t.TempDir(), "fresh-working-tree")

	exp := &fakeExporter{tree: map[string]string{
		"Solution.xml": solutionXML("1.0.0"),
		"a.xml":        "content",
	}}

	runner, err := NewRunner(Config{
		Solution:   "DemoSolution",
		WorkingDir: workingDir,
	}, exp)
	require.NoError(t, err)

	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BumpAndSync, result.Decision)
	assert.Len(t, result.Diff.Added, 2)
	assert.Equal(t, "1.0.1", result.NewVersion.String())
	_, err = os.Stat(filepath.Join(workingDir, "a.xml"))
	assert.NoError(t, err)
}

func TestRunner_ExportFailureAborts(t *testing.T) {
	workingDir := t.TempDir()
	writeWorkingTree(t, workingDir, map[string]string{"Solution.xml": solutionXML("1.0.0")})

	wantErr := errors.New("exit status 1")
	exp := &fakeExporter{exportErr: wantErr}

	_, err := newTestRunner(t, workingDir, exp, version.None).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)

	// No partial state committed.
	content, err := os.ReadFile(filepath.Join(workingDir, "Solution.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "<Version>1.0.0</Version>")
}

// The transient archive and unpack directory must be released no matter
// where the run ends, on failure just as on success.
func TestRunner_TransientsRemovedOnEveryExitPath(t *testing.T) {
	cases := []struct {
		name    string
		exp     *fakeExporter
		bump    version.Kind
		wantErr bool
	}{
		{
			name:    "export failure",
			exp:     &fakeExporter{exportErr: errors.New("exit status 1")},
			wantErr: true,
		},
		{
			name:    "unpack failure",
			exp:     &fakeExporter{unpackErr: errors.New("corrupt archive")},
			wantErr: true,
		},
		{
			name:    "missing manifest",
			exp:     &fakeExporter{tree: map[string]string{"a.xml": "no manifest"}},
			wantErr: true,
		},
		{
			name: "no-op",
			exp:  &fakeExporter{tree: map[string]string{"Solution.xml": solutionXML("1.0.0")}},
		},
		{
			name: "bump and sync",
			exp: &fakeExporter{tree: map[string]string{
				"Solution.xml": solutionXML("1.0.0"),
				"a.xml":        "fresh",
			}},
			bump: version.Minor,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			workingDir := t.TempDir()
			writeWorkingTree(t, workingDir, map[string]string{"Solution.xml": solutionXML("1.0.0")})

			_, err := newTestRunner(t, workingDir, tc.exp, tc.bump).Run(context.Background())
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			require.NotEmpty(t, tc.exp.gotArchive, "exporter never saw an archive path")
			_, statErr := os.Stat(tc.exp.gotArchive)
			assert.True(t, os.IsNotExist(statErr), "archive %s not cleaned up", tc.exp.gotArchive)

			if tc.exp.gotDest != "" {
				_, statErr = os.Stat(tc.exp.gotDest)
				assert.True(t, os.IsNotExist(statErr), "unpack dir %s not cleaned up", tc.exp.gotDest)
			}
		})
	}
}

func TestRunner_InvalidManifestVersionAbortsBeforeMutation(t *testing.T) {
	workingDir := t.TempDir()
	writeWorkingTree(t, workingDir, map[string]string{"Solution.xml": solutionXML("1.0.0")})

	exp := &fakeExporter{tree: map[string]string{
		"Solution.xml": solutionXML("1.0"), // two segments
		"a.xml":        "would be a change",
	}}

	_, err := newTestRunner(t, workingDir, exp, version.None).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, version.ErrInvalid)

	_, err = os.Stat(filepath.Join(workingDir, "a.xml"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunner_MissingManifestFails(t *testing.T) {
	workingDir := t.TempDir()
	exp := &fakeExporter{tree: map[string]string{"a.xml": "no manifest here"}}

	_, err := newTestRunner(t, workingDir, exp, version.None).Run(context.Background())
	assert.Error(t, err)
}

func TestRunner_PreviewDoesNotMutate(t *testing.T) {
	workingDir := t.TempDir()
	writeWorkingTree(t, workingDir, map[string]string{
		"Solution.xml": solutionXML("1.4.2"),
		"a.xml":        "old",
	})

	exp := &fakeExporter{tree: map[string]string{
		"Solution.xml": solutionXML("1.4.2"),
		"a.xml":        "new",
	}}

	var sawUnpacked bool
	result, err := newTestRunner(t, workingDir, exp, version.None).Preview(context.Background(),
		func(res *Result, newRoot string) error {
			sawUnpacked = true
			_, statErr := os.Stat(filepath.Join(newRoot, "a.xml"))
			assert.NoError(t, statErr, "unpacked tree must still exist during preview")
			return nil
		})
	require.NoError(t, err)

	assert.True(t, sawUnpacked)
	assert.Equal(t, BumpAndSync, result.Decision)
	assert.Equal(t, "1.4.3", result.NewVersion.String())

	// Nothing moved: the working tree still has the old content and version.
	content, err := os.ReadFile(filepath.Join(workingDir, "a.xml"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(content))
	content, err = os.ReadFile(filepath.Join(workingDir, "Solution.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "<Version>1.4.2</Version>")
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(Config{WorkingDir: "x"}, &fakeExporter{})
	assert.Error(t, err)

	_, err = NewRunner(Config{Solution: "s"}, &fakeExporter{})
	assert.Error(t, err)
}
