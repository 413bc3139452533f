package service

import (
	"sync"
	"testing"

	"chartview/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSyncHandler is a testify mock of a synced chart
type MockSyncHandler struct {
	mock.Mock
}

func (m *MockSyncHandler) OnSyncedHover(ts int64) {
	m.Called(ts)
}

func (m *MockSyncHandler) OnSyncedHoverEnd() {
	m.Called()
}

// recordingHandler appends the chart id of every call to a shared log
type recordingHandler struct {
	id  string
	mu  *sync.Mutex
	log *[]string
}

func (h recordingHandler) OnSyncedHover(int64) {
	h.mu.Lock()
	*h.log = append(*h.log, h.id)
	h.mu.Unlock()
}

func (h recordingHandler) OnSyncedHoverEnd() {
	h.mu.Lock()
	*h.log = append(*h.log, h.id+":end")
	h.mu.Unlock()
}

// Test_SyncRegistry_Register tests registration validation
func Test_SyncRegistry_Register(t *testing.T) {
	tests := []struct {
		name        string
		chartID     string
		handler     SyncHandler
		expectError error
		description string
	}{
		{name: "Valid", chartID: "cpu", handler: &MockSyncHandler{}, description: "Should register the handler"},
		{name: "Empty id", chartID: "", handler: &MockSyncHandler{}, expectError: utils.ErrEmptyName, description: "Should reject an empty id"},
		{name: "Whitespace id", chartID: "cpu load", handler: &MockSyncHandler{}, expectError: utils.ErrInvalidName, description: "Should reject whitespace"},
		{name: "Nil handler", chartID: "cpu", handler: nil, expectError: ErrNilHandler, description: "Should reject a nil handler"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewSyncRegistry()
			err := r.Register(tt.chartID, tt.handler)
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError, tt.description)
				assert.False(t, r.Registered(tt.chartID))
				return
			}
			require.NoError(t, err, tt.description)
			assert.True(t, r.Registered(tt.chartID))
		})
	}
}

// Test_SyncRegistry_BroadcastHover tests that every chart but the originator is reached
func Test_SyncRegistry_BroadcastHover(t *testing.T) {
	r := NewSyncRegistry()
	a, b, c := &MockSyncHandler{}, &MockSyncHandler{}, &MockSyncHandler{}
	require.NoError(t, r.Register("a", a))
	require.NoError(t, r.Register("b", b))
	require.NoError(t, r.Register("c", c))

	a.On("OnSyncedHover", int64(1500)).Once()
	c.On("OnSyncedHover", int64(1500)).Once()

	assert.Equal(t, 2, r.BroadcastHover(1500, "b"))
	a.AssertExpectations(t)
	c.AssertExpectations(t)
	b.AssertNotCalled(t, "OnSyncedHover", mock.Anything)

	a.On("OnSyncedHoverEnd").Once()
	b.On("OnSyncedHoverEnd").Once()
	assert.Equal(t, 2, r.BroadcastHoverEnd("c"))
	a.AssertExpectations(t)
	b.AssertExpectations(t)
	c.AssertNotCalled(t, "OnSyncedHoverEnd")
}

// Test_SyncRegistry_Order tests that broadcasts run in chart-id order
func Test_SyncRegistry_Order(t *testing.T) {
	r := NewSyncRegistry()
	var mu sync.Mutex
	var calls []string
	for _, id := range []string{"delta", "alpha", "charlie", "bravo"} {
		require.NoError(t, r.Register(id, recordingHandler{id: id, mu: &mu, log: &calls}))
	}

	r.BroadcastHover(1, "charlie")
	r.BroadcastHoverEnd("")

	assert.Equal(t, []string{
		"alpha", "bravo", "delta",
		"alpha:end", "bravo:end", "charlie:end", "delta:end",
	}, calls)
}

// Test_SyncRegistry_Unregister tests removal
func Test_SyncRegistry_Unregister(t *testing.T) {
	r := NewSyncRegistry()
	h := &MockSyncHandler{}
	require.NoError(t, r.Register("a", h))

	assert.True(t, r.Unregister("a"))
	assert.False(t, r.Unregister("a"), "Second removal finds nothing")
	assert.False(t, r.Registered("a"))
	assert.Equal(t, 0, r.BroadcastHover(1, "x"))
	h.AssertNotCalled(t, "OnSyncedHover", mock.Anything)
}

// unregisteringHandler removes itself from the registry when called
type unregisteringHandler struct {
	r  *SyncRegistry
	id string
}

func (h unregisteringHandler) OnSyncedHover(int64) { h.r.Unregister(h.id) }
func (h unregisteringHandler) OnSyncedHoverEnd()   {}

// Test_SyncRegistry_Reentrant tests that handlers may change registrations
func Test_SyncRegistry_Reentrant(t *testing.T) {
	r := NewSyncRegistry()
	require.NoError(t, r.Register("a", unregisteringHandler{r: r, id: "a"}))

	assert.Equal(t, 1, r.BroadcastHover(1, "b"))
	assert.False(t, r.Registered("a"))
}
