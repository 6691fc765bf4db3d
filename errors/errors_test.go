package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkClassifies(t *testing.T) {
	base := errors.New("connection refused")

	err := Mark(base, ErrDatabase, "postgres: ping")
	assert.True(t, IsDatabase(err))
	assert.False(t, IsValidation(err))
	assert.Contains(t, err.Error(), "postgres: ping")
	assert.Contains(t, err.Error(), "connection refused")

	assert.Nil(t, Mark(nil, ErrDatabase, "unused"))
}

func TestMalformed(t *testing.T) {
	err := Malformed(7, "totalRent", "Inf", errors.New("value is not finite"))

	assert.True(t, IsMalformedRow(err))
	assert.Contains(t, err.Error(), "line 7")
	assert.Contains(t, err.Error(), `"totalRent"`)
}

func TestValidationf(t *testing.T) {
	err := Validationf("unknown scope %q", "planet")

	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
	assert.False(t, IsSchema(err))
	assert.Equal(t, `unknown scope "planet"`, err.Error())
}
