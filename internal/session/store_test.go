package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateGetDelete(t *testing.T) {
	st := NewStore(time.Hour)

	a := st.Create()
	b := st.Create()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, st.Len())

	got, ok := st.Get(a.ID())
	require.True(t, ok)
	assert.Same(t, a, got)

	st.Delete(a.ID())
	_, ok = st.Get(a.ID())
	assert.False(t, ok)
	assert.Equal(t, 1, st.Len())
}

func TestStore_Expiry(t *testing.T) {
	st := NewStore(20 * time.Millisecond)
	sess := st.Create()

	time.Sleep(50 * time.Millisecond)

	_, ok := st.Get(sess.ID())
	assert.False(t, ok)
}

func TestStore_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewStore(0).TTL())
}
