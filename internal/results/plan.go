package results

import (
	"os"
	"path/filepath"

	"github.com/daryltucker/forest-bench/internal/model"
)

// PlannedCase is one test case and where its artifact lives.
type PlannedCase struct {
	Case   model.TestCase `json:"case"`
	Path   string         `json:"path"`
	Exists bool           `json:"exists"`
}

// Plan resolves each case against dir. An existing artifact can be reused;
// needsRun is true when at least one case has no artifact yet.
func Plan(dir string, cases []model.TestCase) (planned []PlannedCase, needsRun bool) {
	planned = make([]PlannedCase, 0, len(cases))
	for _, tc := range cases {
		path := filepath.Join(dir, tc.ArtifactName())
		info, err := os.Stat(path)
		exists := err == nil && !info.IsDir()
		if !exists {
			needsRun = true
		}
		planned = append(planned, PlannedCase{Case: tc, Path: path, Exists: exists})
	}
	return planned, needsRun
}
