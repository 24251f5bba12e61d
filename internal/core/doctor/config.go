package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hay-kot/ralph/internal/core/config"
)

// ConfigCheck verifies the saved configuration and settings for a working
// directory.
type ConfigCheck struct {
	workDir      string
	settingsPath string
}

// NewConfigCheck creates a new configuration check.
func NewConfigCheck(workDir, settingsPath string) *ConfigCheck {
	return &ConfigCheck{workDir: workDir, settingsPath: settingsPath}
}

func (c *ConfigCheck) Name() string {
	return "Configuration"
}

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if _, err := config.LoadSettings(c.settingsPath); err != nil {
		result.add("settings", StatusFail, err.Error())
	} else if _, err := os.Stat(c.settingsPath); err == nil {
		result.add("settings", StatusPass, c.settingsPath)
	} else {
		result.add("settings", StatusPass, "defaults")
	}

	path, ok := config.Discover(c.workDir)
	if !ok {
		result.add("config", StatusWarn, "no saved configuration (run 'ralph init')")
		return result
	}

	cfg, err := config.Load(path, c.workDir)
	if err != nil {
		result.add("config", StatusFail, err.Error())
		return result
	}
	result.add("config", StatusPass, path)

	if len(cfg.Refs) == 0 {
		result.add("refs", StatusPass, "none configured")
	}
	for _, dir := range cfg.Refs {
		result.Items = append(result.Items, dirItem(dir, StatusFail, "directory does not exist"))
	}

	result.Items = append(result.Items, dirItem(cfg.Output, StatusWarn, "will be created on first run"))

	return result
}

// dirItem stats dir; missing reports the status used when it does not exist.
func dirItem(dir string, missing Status, missingDetail string) CheckItem {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return CheckItem{Label: dir, Status: missing, Detail: missingDetail}
	case err != nil:
		return CheckItem{Label: dir, Status: StatusFail, Detail: fmt.Sprintf("inaccessible: %v", err)}
	case !info.IsDir():
		return CheckItem{Label: dir, Status: StatusFail, Detail: "path is not a directory"}
	default:
		return CheckItem{Label: dir, Status: StatusPass}
	}
}
