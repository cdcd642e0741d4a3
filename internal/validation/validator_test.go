package validation_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/readinglists-server/internal/errors"
	"github.com/listenupapp/readinglists-server/internal/validation"
)

type bookRequest struct {
	Title  string `json:"title" validate:"required,max=10"`
	Author string `json:"author" validate:"required"`
	Genre  string `json:"genre,omitempty" validate:"required"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(bookRequest{Title: "Dune", Author: "Herbert", Genre: "SF"})
	assert.NoError(t, err)
}

func TestValidator_MissingRequired(t *testing.T) {
	v := validation.New()

	err := v.Validate(bookRequest{Title: "Dune", Author: "Herbert"})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
	assert.Equal(t, validation.MissingAttributes, domainErr.Message)

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["genre"])
}

func TestValidator_InvalidButPresent(t *testing.T) {
	v := validation.New()

	err := v.Validate(bookRequest{Title: "A very long title", Author: "Herbert", Genre: "SF"})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.NotEqual(t, validation.MissingAttributes, domainErr.Message)
	assert.Contains(t, domainErr.Details, "title")
}
