// Package version reports the build version of the binary. It is the
// default service version attached to exported telemetry.
//
// Version and GitCommit are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/monometrics/version.Version=1.2.0"
package version
