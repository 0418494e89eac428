package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerifyToken(t *testing.T) {
	t.Parallel()

	a, err := NewVerifyToken()
	require.NoError(t, err)
	b, err := NewVerifyToken()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^[A-Za-z0-9_-]+$`, a)
}

func TestNewUserID(t *testing.T) {
	t.Parallel()

	id, err := NewUserID("Alice@Example.com")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^u-alice-example-com-[0-9a-z]{6}$`), id)
}

func TestNewProductAndCategoryID(t *testing.T) {
	t.Parallel()

	p, err := NewProductID("Relógio Clássico")
	require.NoError(t, err)
	assert.Regexp(t, `^relogio-classico-[0-9a-z]{6}$`, p)

	c, err := NewCategoryID("  Calçados!! ")
	require.NoError(t, err)
	assert.Regexp(t, `^cat-calcados-[0-9a-z]{6}$`, c)

	c, err = NewCategoryID("***")
	require.NoError(t, err)
	assert.Regexp(t, `^cat-item-[0-9a-z]{6}$`, c)
}

func TestSlug(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tenis-esportivo", Slug("Tênis Esportivo", "item"))
	assert.Equal(t, "a-b", Slug("--A  b--", "item"))
	assert.Equal(t, "item", Slug("", "item"))
}
