package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/mnemo/internal/dagger"
)

const buildinfoPkg = "github.com/papercomputeco/mnemo/pkg/buildinfo"

// mnemo links sqlite through cgo, so each architecture builds natively in
// its own container instead of cross compiling.
var buildPlatforms = []dagger.Platform{"linux/amd64", "linux/arm64"}

// Build returns a directory of mnemo binaries laid out as <os>/<arch>/mnemo.
func (m *Mnemo) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	out := dag.Directory()
	for _, platform := range buildPlatforms {
		dir := string(platform) + "/"
		bin := m.platformContainer(platform).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", dir + "mnemo", "./cli/mnemo"}).
			File(dir + "mnemo")
		out = out.WithFile(dir+"mnemo", bin)
	}
	return out
}

// BuildRelease stamps version, commit and build time into the binaries.
func (m *Mnemo) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	stamp := map[string]string{
		"Version": version,
		"Sha":     commit,
		"BuiltAt": time.Now().UTC().Format(time.RFC3339),
	}

	ldflags := []string{"-s", "-w"}
	for _, name := range []string{"Version", "Sha", "BuiltAt"} {
		ldflags = append(ldflags, fmt.Sprintf("-X '%s.%s=%s'", buildinfoPkg, name, stamp[name]))
	}
	return m.Build(ctx, strings.Join(ldflags, " "))
}
