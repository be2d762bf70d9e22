package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/custodia-labs/metapublish/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/metapublish/internal/core/domain"
	"github.com/custodia-labs/metapublish/internal/core/ports/driven"
	"github.com/custodia-labs/metapublish/internal/core/ports/driving"
	"github.com/custodia-labs/metapublish/internal/core/services"
	"github.com/custodia-labs/metapublish/internal/logger"
)

// mockPublisher implements driving.Publisher for testing.
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, loc domain.SourceLocation) (*driving.PublishResult, error) {
	args := m.Called(ctx, loc)
	result, _ := args.Get(0).(*driving.PublishResult)
	return result, args.Error(1)
}

func (m *mockPublisher) Subjects(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	subjects, _ := args.Get(0).([]string)
	return subjects, args.Error(1)
}

// testEnv captures what the commands asked the wiring for.
type testEnv struct {
	store     *memory.ConfigStore
	publisher *mockPublisher
	gotConfig domain.PublisherConfig
	gotOpts   PublisherOptions
	built     int
	released  int
	out       *bytes.Buffer
	errOut    *bytes.Buffer
}

func validStore(t *testing.T) *memory.ConfigStore {
	t.Helper()
	store := memory.NewConfigStore()
	store.Set(services.KeyProviderID, "P")
	store.Set(services.KeyIndexID, "idx-1")
	store.Set(services.KeyGlobusClientID, "client")
	store.Set(services.KeyGlobusClientSecret, "super-secret-value")
	store.Set(services.KeyGlobusScopes, "scope:all")
	return store
}

// setupCLITest installs fake wiring and restores all package state afterwards.
func setupCLITest(t *testing.T, store *memory.ConfigStore) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     store,
		publisher: &mockPublisher{},
		out:       new(bytes.Buffer),
		errOut:    new(bytes.Buffer),
	}

	oldWiring := wiring
	oldTerminal, oldRead, oldExit := stdinIsTerminal, readSecret, exitFunc
	SetWiring(Wiring{
		OpenConfig: func(string) (driven.ConfigStore, error) {
			return env.store, nil
		},
		NewPublisher: func(
			_ context.Context,
			_ driven.ConfigStore,
			cfg domain.PublisherConfig,
			opts PublisherOptions,
		) (driving.Publisher, func() error, error) {
			env.built++
			env.gotConfig = cfg
			env.gotOpts = opts
			return env.publisher, func() error { env.released++; return nil }, nil
		},
	})
	stdinIsTerminal = func() bool { return false }
	logger.SetOutput(io.Discard)

	rootCmd.SetOut(env.out)
	rootCmd.SetErr(env.errOut)

	t.Cleanup(func() {
		wiring = oldWiring
		stdinIsTerminal, readSecret, exitFunc = oldTerminal, oldRead, oldExit
		configStore = nil
		sourceFlag, dryRun, watchFlag = DefaultSource, false, false
		configPath, logLevel, verbose = "", "", false
		logger.SetVerbose(false)
		logger.SetLevel(logger.DefaultLevel)
		logger.SetOutput(os.Stderr)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return env
}

func (e *testEnv) run(args ...string) error {
	rootCmd.SetArgs(args)
	return Execute()
}

var errBoom = errors.New("boom")

// withoutKey copies store, leaving key unset.
func withoutKey(t *testing.T, store *memory.ConfigStore, key string) *memory.ConfigStore {
	t.Helper()
	out := memory.NewConfigStore()
	for _, k := range store.Keys() {
		if k == key {
			continue
		}
		v, _ := store.Get(k)
		out.Set(k, v)
	}
	return out
}
