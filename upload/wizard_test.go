package upload_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/testplan"
	"github.com/fwojciec/testplan/mock"
	"github.com/fwojciec/testplan/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var folders = []testplan.Folder{
	{ID: "1", Name: "Sprint 1", Path: "/Releases/Sprint 1"},
	{ID: "2", Name: "Hotfix", Path: "/Releases/Hotfix"},
	{ID: "3", Name: "Sprint 2", Path: "/Releases/Sprint 2"},
}

func folderClient(fs []testplan.Folder, err error) *mock.FolderClient {
	return &mock.FolderClient{
		ListFoldersFn: func(_ context.Context, project string, kind testplan.FolderKind) ([]testplan.Folder, error) {
			if project != "PLAT" || kind != testplan.FolderTestCycle {
				return nil, errors.New("unexpected query")
			}
			return fs, err
		},
	}
}

type cycleUploader struct {
	cycle, path string
	err         error
}

func (u *cycleUploader) UploadToCycle(_ context.Context, cases []testplan.TestCase, cycleName, folderPath string) (*upload.Summary, error) {
	u.cycle, u.path = cycleName, folderPath
	if u.err != nil {
		return nil, u.err
	}
	return &upload.Summary{Count: len(cases), FolderPath: folderPath}, nil
}

func oneCase() []testplan.TestCase {
	return []testplan.TestCase{{ID: "TC-PLAT-1-1", Title: "A"}}
}

func TestWizard_Defaults(t *testing.T) {
	t.Parallel()

	w := upload.NewWizard("PLAT-1", "", oneCase())
	require.NoError(t, w.LoadFolders(context.Background(), folderClient(folders, nil)))

	assert.Equal(t, "PLAT-1 – Test Cycle", w.CycleName())
	latest, ok := w.Latest()
	require.True(t, ok)
	assert.Equal(t, "3", latest.ID)
	assert.Equal(t, upload.FolderLatest, w.Option())
	assert.Equal(t, "3", w.SelectedFolderID())
	assert.Equal(t, "/Releases/Sprint 2", w.EffectivePath())
}

func TestWizard_LoadFailureDegradesToCreate(t *testing.T) {
	t.Parallel()

	w := upload.NewWizard("PLAT-1", "PLAT", oneCase())

	err := w.LoadFolders(context.Background(), folderClient(nil, errors.New("down")))

	require.Error(t, err)
	assert.Equal(t, upload.FolderLoadError, w.LoadError())
	assert.Equal(t, upload.FolderCreate, w.Option())
	assert.ErrorIs(t, w.SetOption(upload.FolderLatest), upload.ErrFolderUnavailable)
	assert.ErrorIs(t, w.SetOption(upload.FolderSelect), upload.ErrFolderUnavailable)

	w.SetCustomPath(" /New ")
	sum, err := w.Submit(context.Background(), &cycleUploader{})
	require.NoError(t, err)
	assert.Equal(t, "/New", sum.FolderPath)
}

func TestWizard_Filtered(t *testing.T) {
	t.Parallel()

	w := upload.NewWizard("PLAT-1", "", oneCase())
	require.NoError(t, w.LoadFolders(context.Background(), folderClient(folders, nil)))

	w.SetSearch("SPRINT")
	assert.Len(t, w.Filtered(), 2)

	w.SetSearch("releases/hot")
	got := w.Filtered()
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	w.SetSearch("  ")
	assert.Len(t, w.Filtered(), 3)
}

func TestWizard_SelectFolder(t *testing.T) {
	t.Parallel()

	w := upload.NewWizard("PLAT-1", "", oneCase())
	require.NoError(t, w.LoadFolders(context.Background(), folderClient(folders, nil)))

	require.NoError(t, w.SelectFolder("1"))
	assert.Equal(t, upload.FolderSelect, w.Option())
	assert.Equal(t, "/Releases/Sprint 1", w.EffectivePath())
	assert.ErrorIs(t, w.SelectFolder("missing"), upload.ErrFolderUnavailable)
}

func TestWizard_Validate(t *testing.T) {
	t.Parallel()

	t.Run("needs test cases", func(t *testing.T) {
		t.Parallel()
		w := upload.NewWizard("PLAT-1", "", nil)
		assert.ErrorIs(t, w.Validate(), upload.ErrNothingSelected)
	})

	t.Run("needs cycle name", func(t *testing.T) {
		t.Parallel()
		w := upload.NewWizard("PLAT-1", "", oneCase())
		w.SetCustomPath("/x")
		w.SetCycleName("  ")
		var verr testplan.ValidationError
		require.ErrorAs(t, w.Validate(), &verr)
		assert.Equal(t, "cycle name", verr.Field)
	})

	t.Run("create needs a path", func(t *testing.T) {
		t.Parallel()
		w := upload.NewWizard("PLAT-1", "", oneCase())
		var verr testplan.ValidationError
		require.ErrorAs(t, w.Validate(), &verr)
		assert.Equal(t, "folder path", verr.Field)
	})
}

func TestWizard_Submit(t *testing.T) {
	t.Parallel()

	t.Run("sends trimmed cycle name and effective path", func(t *testing.T) {
		t.Parallel()

		w := upload.NewWizard("PLAT-1", "", oneCase())
		require.NoError(t, w.LoadFolders(context.Background(), folderClient(folders, nil)))
		w.SetCycleName("  Nightly  ")
		up := &cycleUploader{}

		_, err := w.Submit(context.Background(), up)

		require.NoError(t, err)
		assert.Equal(t, "Nightly", up.cycle)
		assert.Equal(t, "/Releases/Sprint 2", up.path)
	})

	t.Run("keeps error for display", func(t *testing.T) {
		t.Parallel()

		w := upload.NewWizard("PLAT-1", "", oneCase())
		require.NoError(t, w.LoadFolders(context.Background(), folderClient(folders, nil)))

		_, err := w.Submit(context.Background(), &cycleUploader{err: errors.New("bad folder")})

		require.Error(t, err)
		assert.Equal(t, "bad folder", w.Err())
	})
}
