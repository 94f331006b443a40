package brand

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "acme", NormalizeName("Acme, Inc."))
	assert.Equal(t, "acme", NormalizeName("ACME"))
	assert.Equal(t, "acme cloud", NormalizeName("Acme-Cloud LLC"))
	assert.Equal(t, "co", NormalizeName("Co"), "a lone suffix is kept")
}

func TestNormalizeURL(t *testing.T) {
	u, err := NormalizeURL("acme.com")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.com", u)

	u, err = NormalizeURL(" http://acme.com/about ")
	require.NoError(t, err)
	assert.Equal(t, "http://acme.com/about", u)

	_, err = NormalizeURL("")
	assert.Error(t, err)

	_, err = NormalizeURL("not a host")
	assert.Error(t, err)
}

func TestRegistrableDomain(t *testing.T) {
	assert.Equal(t, "acme.com", RegistrableDomain("https://www.acme.com/pricing"))
	assert.Equal(t, "acme.co.uk", RegistrableDomain("shop.acme.co.uk"))
	assert.Equal(t, "acme", DomainRoot("acme.co.uk"))
	assert.Equal(t, "acme", DomainRoot("acme.com"))
}

func TestStageIndexOrder(t *testing.T) {
	for i, s := range Stages {
		assert.Equal(t, i, s.Index())
	}
	assert.Equal(t, -1, Stage("bogus").Index())
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewError(KindScrape, "fetch failed", errors.New("404")))
	assert.True(t, IsKind(err, KindScrape))
	assert.Equal(t, KindScrape, KindOf(err))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("plain")))
	assert.Contains(t, err.Error(), "404")
}
