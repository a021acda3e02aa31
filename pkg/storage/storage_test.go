package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFallsBackFromInnerSetsToOuterDomains(t *testing.T) {
	s := New()
	s.Set("x", 1)
	s.AddDomain()
	v, ok := s.Get("x")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestSetWritesInnermostActiveSet(t *testing.T) {
	s := New()
	s.AddDomain()
	s.Set("x", 1)
	require.NoError(t, s.RemoveDomain())
	_, ok := s.Get("x")
	assert.False(t, ok, "x was scoped to the removed domain")
}

func TestRemoveDomainOnEmptyStackIsAnError(t *testing.T) {
	s := New()
	require.NoError(t, s.RemoveDomain())
	err := s.RemoveDomain()
	assert.Error(t, err)
}

func TestRemoveSetOnEmptyDomainSetStackIsAnError(t *testing.T) {
	s := New()
	require.NoError(t, s.RemoveSet())
	err := s.RemoveSet()
	assert.Error(t, err)
}

func TestAddSetWithNoDomainAddsADomain(t *testing.T) {
	s := &Store{global: make(map[string]any)}
	s.AddSet()
	require.NoError(t, s.RemoveDomain())
}

func TestCloseDropsAllDomains(t *testing.T) {
	s := New()
	s.Set("anything", 1)
	s.Close()
	_, ok := s.Get("anything")
	assert.False(t, ok)
}
