package main

import (
	"fmt"
	"time"

	"github.com/mmcdole/verity/pkg/audit"
	"github.com/mmcdole/verity/pkg/authorization"
	"github.com/mmcdole/verity/pkg/directory"
	"github.com/mmcdole/verity/pkg/fingerprint"
	"github.com/mmcdole/verity/pkg/logging"
	"github.com/mmcdole/verity/pkg/permit"
	"github.com/mmcdole/verity/pkg/workflow"
	"github.com/spf13/afero"
)

// app is the set of components built from one Config
type app struct {
	config     *Config
	fs         afero.Fs
	directory  *directory.Directory
	registry   *directory.Registry
	hasher     *fingerprint.Hasher
	authorizer *authorization.Authorizer
	recorder   audit.Recorder
	store      *audit.SQLiteRecorder // nil unless audit_db_path is set
}

func newApp(config *Config, fs afero.Fs) (*app, error) {
	var source directory.Source = directory.DemoSource()
	if config.DirectoryPath != "" {
		source = directory.NewFileSource(fs, config.DirectoryPath)
	}
	dir, reg, err := source.Load()
	if err != nil {
		return nil, fmt.Errorf("loading directory: %w", err)
	}

	hasher, err := fingerprint.New(fingerprint.Algorithm(config.HashAlgorithm))
	if err != nil {
		return nil, err
	}

	ids, err := permit.NewGenerator(config.IDStrategy, config.PermitPrefix)
	if err != nil {
		return nil, err
	}

	authorizer, err := authorization.NewAuthorizer(dir, ids, nil)
	if err != nil {
		return nil, err
	}

	a := &app{
		config:     config,
		fs:         fs,
		directory:  dir,
		registry:   reg,
		hasher:     hasher,
		authorizer: authorizer,
	}

	recorders := audit.MultiRecorder{audit.NewLogRecorder(nil)}
	if config.AuditDBPath != "" {
		store, err := audit.OpenSQLite(config.AuditDBPath)
		if err != nil {
			return nil, err
		}
		a.store = store
		recorders = append(recorders, store)
	}
	a.recorder = recorders

	logging.App.Debug("Components ready",
		"directory", config.DirectoryPath,
		"identities", len(dir.Identities()),
		"printers", len(reg.List()),
		"hash_algorithm", hasher.Algorithm(),
		"id_strategy", config.IDStrategy)
	return a, nil
}

func (a *app) newSession(delay time.Duration) (*workflow.Session, error) {
	return workflow.NewSession(workflow.Config{
		Authorizer: a.authorizer,
		Registry:   a.registry,
		Hasher:     a.hasher,
		Fs:         a.fs,
		Delay:      delay,
		Recorder:   a.recorder,
		Logger:     logging.App,
	})
}

func (a *app) evaluationDelay() time.Duration {
	return time.Duration(*a.config.EvaluationDelayMs) * time.Millisecond
}

func (a *app) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
