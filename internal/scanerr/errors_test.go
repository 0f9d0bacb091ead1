package scanerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"configuration", Configuration("resolve", base), KindConfiguration},
		{"connectivity", Connectivity("ping", base), KindConnectivity},
		{"query", Query("sample", "users", base), KindQuery},
		{"unexpected", Unexpected("fold", base), KindUnexpected},
		{"plain error", base, KindUnexpected},
		{"wrapped", fmt.Errorf("scan failed: %w", Query("sample", "users", base)), KindQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Query("sample query", "orders", errors.New("relation does not exist"))
	assert.Equal(t, `sample query "orders": relation does not exist`, err.Error())
	assert.ErrorIs(t, err, errors.Unwrap(err))

	err = Configurationf("unsupported db_type: %s", "db2")
	assert.Equal(t, "unsupported db_type: db2", err.Error())
	assert.True(t, Is(err, KindConfiguration))
	assert.False(t, Is(nil, KindConfiguration))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "configuration", KindConfiguration.String())
	assert.Equal(t, "connectivity", KindConnectivity.String())
	assert.Equal(t, "query", KindQuery.String())
	assert.Equal(t, "unexpected", KindUnexpected.String())
	assert.Equal(t, "unknown(42)", Kind(42).String())
}
