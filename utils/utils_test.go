package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFind(t *testing.T) {
	type entry struct {
		Name string
	}
	entries := []entry{{"dev"}, {"staging"}, {"prod"}}

	got := Find(entries, func(e *entry) bool { return e.Name == "staging" })
	assert.NotNil(t, got)
	assert.Equal(t, "staging", got.Name)

	assert.Nil(t, Find(entries, func(e *entry) bool { return e.Name == "qa" }))
	assert.Nil(t, Find(nil, func(e *entry) bool { return true }))
}

func TestPtr(t *testing.T) {
	v := Ptr(true)
	assert.True(t, *v)
}
