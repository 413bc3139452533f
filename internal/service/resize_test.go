package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 20 * time.Millisecond

// countingResizer counts Resize calls
type countingResizer struct {
	id    string
	count atomic.Int32
}

func (r *countingResizer) ChartID() string { return r.id }
func (r *countingResizer) Resize()         { r.count.Add(1) }

// fakeScreen reports configurable window and screen heights
type fakeScreen struct {
	mu           sync.Mutex
	windowHeight int
	screenHeight int
}

func (s *fakeScreen) WindowSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 1920, s.windowHeight
}

func (s *fakeScreen) ScreenSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 1920, s.screenHeight
}

func (s *fakeScreen) set(window, screen int) {
	s.mu.Lock()
	s.windowHeight, s.screenHeight = window, screen
	s.mu.Unlock()
}

// Test_NewResizeCoordinator tests the default delay
func Test_NewResizeCoordinator(t *testing.T) {
	rc := NewResizeCoordinator(ResizeConfig{}, nil)
	require.NotNil(t, rc)
	assert.Equal(t, DefaultResizeDelay, rc.cfg.Delay)
	assert.Empty(t, rc.FullscreenID())
}

// Test_ResizeCoordinator_Register tests registration validation
func Test_ResizeCoordinator_Register(t *testing.T) {
	rc := NewResizeCoordinator(ResizeConfig{Delay: testDelay}, nil)
	assert.NoError(t, rc.Register(&countingResizer{id: "a"}))
	assert.Error(t, rc.Register(&countingResizer{id: ""}))
	assert.ErrorIs(t, rc.Register(nil), ErrNilHandler)

	assert.True(t, rc.Unregister("a"))
	assert.False(t, rc.Unregister("a"))
}

// Test_ResizeCoordinator_Debounce tests that a burst of notifications resizes once
func Test_ResizeCoordinator_Debounce(t *testing.T) {
	rc := NewResizeCoordinator(ResizeConfig{Delay: testDelay}, nil)
	a, b := &countingResizer{id: "a"}, &countingResizer{id: "b"}
	require.NoError(t, rc.Register(a))
	require.NoError(t, rc.Register(b))

	for i := 0; i < 5; i++ {
		rc.Notify()
	}

	require.Eventually(t, func() bool {
		return a.count.Load() == 1 && b.count.Load() == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(3 * testDelay)
	assert.Equal(t, int32(1), a.count.Load(), "Burst should fire exactly once")
	assert.Equal(t, int32(1), b.count.Load())
}

// Test_ResizeCoordinator_Fullscreen tests fullscreen targeting and exit detection
func Test_ResizeCoordinator_Fullscreen(t *testing.T) {
	screen := &fakeScreen{}
	screen.set(1080, 1080)
	rc := NewResizeCoordinator(ResizeConfig{Delay: testDelay}, screen)
	a, b := &countingResizer{id: "a"}, &countingResizer{id: "b"}
	require.NoError(t, rc.Register(a))
	require.NoError(t, rc.Register(b))

	rc.SetFullscreen("b")
	rc.Notify()
	require.Eventually(t, func() bool { return b.count.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), a.count.Load(), "Only the fullscreen chart is resized")
	assert.Equal(t, "b", rc.FullscreenID(), "Still fullscreen while heights match")

	screen.set(900, 1080)
	rc.Notify()
	require.Eventually(t, func() bool { return rc.FullscreenID() == "" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), b.count.Load(), "Fullscreen chart is resized on exit")
	assert.Equal(t, int32(0), a.count.Load())

	rc.Notify()
	require.Eventually(t, func() bool { return a.count.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), b.count.Load(), "Every chart is resized after exit")
}

// Test_ResizeCoordinator_UnregisterFullscreen tests that removing the fullscreen chart clears the flag
func Test_ResizeCoordinator_UnregisterFullscreen(t *testing.T) {
	rc := NewResizeCoordinator(ResizeConfig{Delay: testDelay}, nil)
	require.NoError(t, rc.Register(&countingResizer{id: "a"}))
	rc.SetFullscreen("a")
	rc.Unregister("a")
	assert.Empty(t, rc.FullscreenID())
}

// Test_ResizeCoordinator_Stop tests that a pending resize is cancelled until Start
func Test_ResizeCoordinator_Stop(t *testing.T) {
	rc := NewResizeCoordinator(ResizeConfig{Delay: testDelay}, nil)
	a := &countingResizer{id: "a"}
	require.NoError(t, rc.Register(a))

	rc.Notify()
	rc.Stop()
	rc.Notify()

	time.Sleep(3 * testDelay)
	assert.Equal(t, int32(0), a.count.Load())

	rc.Start()
	rc.Notify()
	require.Eventually(t, func() bool { return a.count.Load() == 1 }, time.Second, 5*time.Millisecond,
		"Started coordinator should accept notifications again")
}

// Test_ResizeCoordinator_Flush tests running a pending resize synchronously
func Test_ResizeCoordinator_Flush(t *testing.T) {
	rc := NewResizeCoordinator(ResizeConfig{Delay: time.Hour}, nil)
	a := &countingResizer{id: "a"}
	require.NoError(t, rc.Register(a))

	assert.False(t, rc.Flush(), "Nothing pending")

	rc.Notify()
	rc.Notify()
	assert.True(t, rc.Flush())
	assert.Equal(t, int32(1), a.count.Load())
	assert.False(t, rc.Flush(), "Flushed resize is no longer pending")

	rc.Notify()
	rc.Stop()
	assert.False(t, rc.Flush(), "Stopped coordinator never resizes")
	assert.Equal(t, int32(1), a.count.Load())
}
