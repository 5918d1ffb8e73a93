// Package guard flips the runtime test-mode flag as a side effect of being
// imported, before package-level init in the importer runs.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("WOLV_TEST_MODE") == "" {
			_ = os.Setenv("WOLV_TEST_MODE", "1")
		}
	})
}
