// Package version stamps API and build versions onto responses.
package version

import "net/http"

const (
	// APIVersionHeader names the response header carrying the API version.
	APIVersionHeader = "X-API-Version"
	// RegistryVersionHeader names the response header carrying the loaded
	// registry snapshot version.
	RegistryVersionHeader = "X-Registry-Version"
)

// Stamp sets the API version header, and the registry version header when
// registryVersion is not empty, before the handler runs.
func Stamp(apiVersion, registryVersion string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(APIVersionHeader, apiVersion)
			if registryVersion != "" {
				w.Header().Set(RegistryVersionHeader, registryVersion)
			}
			next.ServeHTTP(w, r)
		})
	}
}
