package testing

import (
	"os"
	"sync"
	stdtesting "testing"

	"github.com/wolv-invest/platform/internal/app"
	_ "github.com/wolv-invest/platform/internal/testing/guard"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("WOLV_TEST_MODE", "1")
		app.RefreshTestMode()
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
