package version

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStamp(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("both headers", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Stamp("v1", "2025.01")(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "v1", rr.Header().Get(APIVersionHeader))
		assert.Equal(t, "2025.01", rr.Header().Get(RegistryVersionHeader))
	})

	t.Run("no registry version", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Stamp("v1", "")(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "v1", rr.Header().Get(APIVersionHeader))
		_, present := rr.Header()[RegistryVersionHeader]
		assert.False(t, present)
	})
}
