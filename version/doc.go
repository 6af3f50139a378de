// Package version reports the abcompare build.
//
// Values are stamped at link time:
//
//	go build -ldflags "-X github.com/kbukum/abcompare/version.Version=1.2.0 \
//	    -X github.com/kbukum/abcompare/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/abcompare
//
// Unstamped builds fall back to the VCS settings recorded by the Go toolchain.
package version
