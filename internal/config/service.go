package config

import (
	"strings"

	"github.com/JonMunkholm/opsdesk/internal/core"
)

// ServiceConfig returns the import settings in the form core.NewService takes.
func (c *Config) ServiceConfig() core.Config {
	return core.Config{
		MaxFileSize:   c.Import.MaxFileSize,
		PreviewRows:   c.Import.PreviewRows,
		ReferenceMode: core.ReferenceMode(strings.ToLower(c.Import.ReferenceMode)),
		Atomic:        c.Import.Atomic,
		MaxConcurrent: c.Import.MaxConcurrent,
		MaxWaitTime:   c.Import.MaxWaitTime,
		SubmitTimeout: c.Import.SubmitTimeout,
	}
}
