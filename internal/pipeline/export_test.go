package pipeline

import "testing"

// setBeforeTransform installs fn to run inside each unit before its pixels
// are processed. The previous hook is restored when the test ends, after any
// deferred Close has drained the workers.
func setBeforeTransform(t *testing.T, fn func(Task)) {
	t.Helper()
	prev := testHookBeforeTransform
	testHookBeforeTransform = fn
	t.Cleanup(func() { testHookBeforeTransform = prev })
}
