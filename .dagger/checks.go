package main

import (
	"context"
	"errors"
	"fmt"

	"dagger/mnemo/internal/dagger"
)

const golangciLintVersion = "v2.8.0"

// CheckGoModTidy fails when "go mod tidy" would change go.mod or go.sum.
//
// +check
func (m *Mnemo) CheckGoModTidy(ctx context.Context) (string, error) {
	_, err := m.goContainer().
		WithExec([]string{"sh", "-c", "cp go.mod /tmp/go.mod && cp go.sum /tmp/go.sum"}).
		WithExec([]string{"go", "mod", "tidy"}).
		WithExec([]string{"sh", "-c", "diff -u /tmp/go.mod go.mod && diff -u /tmp/go.sum go.sum"}).
		Sync(ctx)

	var execErr *dagger.ExecError
	switch {
	case errors.As(err, &execErr):
		return "", fmt.Errorf("go.mod or go.sum need tidying, run 'go mod tidy':\n\n%s", execErr.Stdout)
	case err != nil:
		return "", err
	}
	return "go.mod and go.sum are tidy", nil
}

// CheckLint runs golangci-lint without fixing anything.
//
// +check
func (m *Mnemo) CheckLint(ctx context.Context) (string, error) {
	return m.linter().Check(ctx)
}

// FixLint runs golangci-lint --fix and returns the fixed source.
func (m *Mnemo) FixLint(ctx context.Context) *dagger.Directory {
	return m.linter().Lint()
}

// linter reuses goContainer so cgo and the sqlite headers are in place.
func (m *Mnemo) linter() *dagger.Golangcilint {
	base := m.goContainer().
		WithExec([]string{"go", "install", "github.com/golangci/golangci-lint/v2/cmd/golangci-lint@" + golangciLintVersion})

	return dag.Golangcilint(m.Source, dagger.GolangcilintOpts{
		BaseCtr: base,
		Config:  m.Source.File(".golangci.yml"),
	})
}
