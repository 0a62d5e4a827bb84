package capability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubSocial struct{}

func (stubSocial) Publish(context.Context, string) (Post, error) { return Post{ID: "1"}, nil }

func TestSet_EmptyHasNothingBound(t *testing.T) {
	s := NewSet()
	for _, k := range Kinds() {
		assert.False(t, s.Has(k))
	}
	assert.Empty(t, s.Bound())

	_, ok := s.Messaging()
	assert.False(t, ok)
	_, ok = s.Documents()
	assert.False(t, ok)
	_, ok = s.Social()
	assert.False(t, ok)
}

func TestSet_BindSubset(t *testing.T) {
	s := NewSet()
	s.BindSocial(stubSocial{})

	assert.True(t, s.Has(KindSocial))
	assert.False(t, s.Has(KindMessaging))
	assert.Equal(t, []Kind{KindSocial}, s.Bound())

	so, ok := s.Social()
	assert.True(t, ok)
	assert.NotNil(t, so)
}

func TestUnavailable(t *testing.T) {
	res := Unavailable("messaging")
	assert.False(t, res.Success)
	assert.Equal(t, "messaging", res.Tool)
	assert.Equal(t, "messaging not available", res.Err)
	assert.True(t, res.Unbound)
}

func TestResult_AdapterFailureIsNotUnbound(t *testing.T) {
	res := Result{Success: false, Tool: "messaging", Err: "post failed"}
	assert.False(t, res.Unbound)
}
