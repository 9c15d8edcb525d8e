package factory

import (
	"time"

	"github.com/mcoot/rpgdash/internal/dependencies/mocks"
	"github.com/mcoot/rpgdash/internal/metrics"
	"github.com/mcoot/rpgdash/internal/services/shop"
	"github.com/mcoot/rpgdash/internal/storage/memory"
	"github.com/mcoot/rpgdash/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock    *mocks.MockClock
	MockRandom   *mocks.MockRandom
	MockProvider *mocks.MockProvider
	FlakyStorage *mocks.FlakyStorage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := mocks.NewFlakyStorage(memory.New())
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockProvider := mocks.NewMockProvider()

	app := newWithDependencies(
		store,
		mockClock,
		mockRandom,
		mockProvider,
		shop.DefaultCatalog(),
		metrics.NewManager(metrics.WithNamespace("rpgdash_test")),
		Config{},
		testutil.NopLogger(),
	)

	return &TestApp{
		App:          app,
		MockClock:    mockClock,
		MockRandom:   mockRandom,
		MockProvider: mockProvider,
		FlakyStorage: store,
	}
}
