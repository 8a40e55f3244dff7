package upload

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/fwojciec/testplan"
)

// FolderLoadError is shown when cycle folders could not be listed.
const FolderLoadError = "Failed to load cycle folders. You can still create a new folder."

// ErrFolderUnavailable is returned when choosing a folder option that has
// no folders to offer.
var ErrFolderUnavailable = errors.New("folder option unavailable")

// FolderOption is how the wizard picks the cycle folder.
type FolderOption int

// Folder options.
const (
	FolderLatest FolderOption = iota
	FolderSelect
	FolderCreate
)

// CycleUploader is what a Wizard submits to. Coordinator implements it.
type CycleUploader interface {
	UploadToCycle(ctx context.Context, cases []testplan.TestCase, cycleName, folderPath string) (*Summary, error)
}

// Wizard is the two-step upload into a test cycle: pick a folder and a
// cycle name, then submit. Folder listing failures only limit the options
// to creating a new folder.
//
// Wizard is not safe for concurrent use.
type Wizard struct {
	issueKey   string
	projectKey string
	cases      []testplan.TestCase

	cycleName  string
	option     FolderOption
	folders    []testplan.Folder
	latest     *testplan.Folder
	selectedID string
	customPath string
	search     string
	loadErr    string
	err        string
}

// DefaultCycleName returns the cycle name proposed for issueKey.
func DefaultCycleName(issueKey string) string {
	return fmt.Sprintf("%s – Test Cycle", issueKey)
}

// NewWizard creates a Wizard for uploading cases from issueKey.
func NewWizard(issueKey, projectKey string, cases []testplan.TestCase) *Wizard {
	if projectKey == "" {
		projectKey = testplan.ProjectKey(issueKey)
	}
	return &Wizard{
		issueKey:   issueKey,
		projectKey: projectKey,
		cases:      testplan.CloneAll(cases),
		cycleName:  DefaultCycleName(issueKey),
		option:     FolderCreate,
	}
}

// LoadFolders lists the project's cycle folders. The last listed folder is
// treated as the latest and preselected. On failure the wizard falls back
// to creating a new folder and the error is kept for display.
func (w *Wizard) LoadFolders(ctx context.Context, client testplan.FolderClient) error {
	w.loadErr = ""
	folders, err := client.ListFolders(ctx, w.projectKey, testplan.FolderTestCycle)
	if err != nil {
		w.folders = nil
		w.latest = nil
		w.option = FolderCreate
		w.loadErr = FolderLoadError
		return err
	}
	w.folders = folders
	if len(folders) == 0 {
		w.latest = nil
		w.option = FolderCreate
		return nil
	}
	latest := folders[len(folders)-1]
	w.latest = &latest
	w.selectedID = latest.ID
	w.option = FolderLatest
	return nil
}

// Cases returns the test cases to upload.
func (w *Wizard) Cases() []testplan.TestCase { return testplan.CloneAll(w.cases) }

// Folders returns all listed folders.
func (w *Wizard) Folders() []testplan.Folder { return slices.Clone(w.folders) }

// Latest returns the latest folder, if any.
func (w *Wizard) Latest() (testplan.Folder, bool) {
	if w.latest == nil {
		return testplan.Folder{}, false
	}
	return *w.latest, true
}

// LoadError returns the folder listing error message, or "".
func (w *Wizard) LoadError() string { return w.loadErr }

// Err returns the last submit error message, or "".
func (w *Wizard) Err() string { return w.err }

// Option returns the current folder option.
func (w *Wizard) Option() FolderOption { return w.option }

// CycleName returns the cycle name.
func (w *Wizard) CycleName() string { return w.cycleName }

// SetCycleName sets the cycle name.
func (w *Wizard) SetCycleName(name string) { w.cycleName = name }

// SetCustomPath sets the path of the folder to create.
func (w *Wizard) SetCustomPath(path string) { w.customPath = path }

// SetSearch sets the folder filter.
func (w *Wizard) SetSearch(q string) { w.search = q }

// Filtered returns the folders whose name or path contains the search term,
// ignoring case. A blank search returns every folder.
func (w *Wizard) Filtered() []testplan.Folder {
	q := strings.ToLower(strings.TrimSpace(w.search))
	if q == "" {
		return slices.Clone(w.folders)
	}
	var out []testplan.Folder
	for _, f := range w.folders {
		if strings.Contains(strings.ToLower(f.Name), q) || strings.Contains(strings.ToLower(f.Path), q) {
			out = append(out, f)
		}
	}
	return out
}

// SetOption switches the folder option. Latest and Select need listed
// folders.
func (w *Wizard) SetOption(o FolderOption) error {
	switch o {
	case FolderLatest:
		if w.latest == nil {
			return ErrFolderUnavailable
		}
	case FolderSelect:
		if len(w.folders) == 0 {
			return ErrFolderUnavailable
		}
	}
	w.option = o
	return nil
}

// SelectFolder picks a listed folder by id and switches to FolderSelect.
func (w *Wizard) SelectFolder(id string) error {
	if !slices.ContainsFunc(w.folders, func(f testplan.Folder) bool { return f.ID == id }) {
		return ErrFolderUnavailable
	}
	w.selectedID = id
	w.option = FolderSelect
	return nil
}

// SelectedFolderID returns the id of the folder picked for FolderSelect.
func (w *Wizard) SelectedFolderID() string { return w.selectedID }

// EffectivePath returns the folder path the upload will target, or "" to
// let the server choose.
func (w *Wizard) EffectivePath() string {
	switch w.option {
	case FolderLatest:
		if w.latest != nil {
			return w.latest.Path
		}
	case FolderSelect:
		for _, f := range w.folders {
			if f.ID == w.selectedID {
				return f.Path
			}
		}
	case FolderCreate:
		return strings.TrimSpace(w.customPath)
	}
	return ""
}

// Validate checks the wizard can be submitted.
func (w *Wizard) Validate() error {
	if len(w.cases) == 0 {
		return ErrNothingSelected
	}
	if strings.TrimSpace(w.cycleName) == "" {
		return testplan.ValidationError{Field: "cycle name", Reason: testplan.ReasonRequired}
	}
	if w.option == FolderCreate && strings.TrimSpace(w.customPath) == "" {
		return testplan.ValidationError{Field: "folder path", Reason: testplan.ReasonRequired}
	}
	return nil
}

// Submit validates and uploads. Submit errors are kept for display.
func (w *Wizard) Submit(ctx context.Context, up CycleUploader) (*Summary, error) {
	w.err = ""
	if err := w.Validate(); err != nil {
		return nil, err
	}
	sum, err := up.UploadToCycle(ctx, w.cases, strings.TrimSpace(w.cycleName), w.EffectivePath())
	if err != nil {
		w.err = err.Error()
		return nil, err
	}
	return sum, nil
}
