// Mnemo CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/mnemo/internal/dagger"
)

// Mnemo is the main module for the mnemo CI/CD pipeline
type Mnemo struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", "build", "tmp", ".mnemo", "_examples"]
	source *dagger.Directory,
) *Mnemo {
	return &Mnemo{Source: source}
}

func (m *Mnemo) goContainer() *dagger.Container {
	return m.platformContainer("")
}

// platformContainer is a Debian Go image with cgo and the sqlite headers.
// An empty platform means the engine's own.
func (m *Mnemo) platformContainer(platform dagger.Platform) *dagger.Container {
	return dag.Container(dagger.ContainerOpts{Platform: platform}).
		From("golang:1.25-bookworm").
		WithExec([]string{"sh", "-c", "apt-get update && apt-get install -y gcc libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build-"+string(platform))).
		WithDirectory("/src", m.Source).
		WithWorkdir("/src")
}

// Test runs the unit tests. Driver specs that need a live service skip.
func (m *Mnemo) Test(ctx context.Context) (string, error) {
	return m.goContainer().
		WithExec([]string{"go", "test", "./..."}).
		Stdout(ctx)
}

// TestIntegration runs the postgres memory driver and qdrant vector driver
// specs against throwaway services.
func (m *Mnemo) TestIntegration(ctx context.Context) (string, error) {
	db := dag.Container().
		From("postgres:16-alpine").
		WithEnvVariable("POSTGRES_USER", "mnemo").
		WithEnvVariable("POSTGRES_PASSWORD", "mnemo").
		WithEnvVariable("POSTGRES_DB", "mnemo").
		WithExposedPort(5432).
		AsService()

	qdrant := dag.Container().
		From("qdrant/qdrant:v1.17.0").
		WithExposedPort(6334).
		AsService()

	return m.goContainer().
		WithServiceBinding("db", db).
		WithServiceBinding("qdrant", qdrant).
		WithEnvVariable("MNEMO_TEST_POSTGRES_DSN", "postgres://mnemo:mnemo@db:5432/mnemo?sslmode=disable").
		WithEnvVariable("MNEMO_TEST_QDRANT_TARGET", "qdrant:6334").
		WithExec([]string{"go", "test", "-v", "./pkg/memory/postgres/...", "./pkg/vector/qdrant/..."}).
		Stdout(ctx)
}
