package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

func names(adapters []domain.Adapter) []string {
	out := []string{}
	for _, a := range adapters {
		out = append(out, a.Descriptor().Name)
	}
	return out
}

func TestRegistrySelectOrder(t *testing.T) {
	reg, err := NewRegistry(
		fake("style-a", domain.LangPython, domain.KindStyle, nil),
		fake("sec-a", domain.LangPython, domain.KindSecurity, nil),
		fake("sec-go", domain.LangGo, domain.KindSecurity, nil),
		fake("style-b", domain.LangPython, domain.KindStyle, nil),
		fake("sec-b", domain.LangPython, domain.KindSecurity, nil),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"sec-a", "sec-b", "style-a", "style-b"}, names(reg.Select(domain.LangPython)))
	assert.Equal(t, []string{"sec-go"}, names(reg.Select(domain.LangGo)))
	assert.Empty(t, reg.Select(domain.LangUnknown))
	assert.Empty(t, reg.Select(domain.LangJava))
	assert.Equal(t, 5, reg.Len())
	assert.Equal(t, "style-a", reg.Descriptors()[0].Name)
}

func TestRegistrySelectReturnsCopy(t *testing.T) {
	reg, err := NewRegistry(fake("a", domain.LangC, domain.KindSecurity, nil))
	require.NoError(t, err)

	got := reg.Select(domain.LangC)
	got[0] = nil
	assert.NotNil(t, reg.Select(domain.LangC)[0])
}

func TestRegistryRejectsInvalid(t *testing.T) {
	_, err := NewRegistry(
		fake("a", domain.LangC, domain.KindSecurity, nil),
		fake("a", domain.LangGo, domain.KindStyle, nil),
	)
	assert.ErrorContains(t, err, "duplicate")

	_, err = NewRegistry(fake("", domain.LangC, domain.KindSecurity, nil))
	assert.Error(t, err)

	_, err = NewRegistry(fake("x", domain.LangUnknown, domain.KindSecurity, nil))
	assert.Error(t, err)

	_, err = NewRegistry(fake("x", domain.LangC, "perf", nil))
	assert.Error(t, err)
}
