// Command importctl generates templates and previews or imports CSV and XLSX
// files from the command line.
package main

import (
	_ "github.com/JonMunkholm/opsdesk/internal/core/entities" // Register all entities
)

func main() {
	Execute()
}
