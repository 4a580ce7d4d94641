package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ratingPayload struct {
	StoreID string   `json:"store_id" validate:"required,uuid"`
	Rating  *int     `json:"rating" validate:"required,min=0,max=5"`
	Comment string   `json:"comment" validate:"max=20"`
	Photos  []string `json:"photos" validate:"max=2,dive,url"`
}

func intPtr(v int) *int { return &v }

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	p := ratingPayload{
		StoreID: "550e8400-e29b-41d4-a716-446655440000",
		Rating:  intPtr(0),
		Photos:  []string{"https://cdn.example.com/a.jpg"},
	}
	assert.NoError(t, Validate(p))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	err := Validate(ratingPayload{Rating: intPtr(3)})
	fields := fieldsOf(t, err)
	assert.Equal(t, "is required", fields["store_id"])
	assert.NotContains(t, fields, "StoreID")
}

func TestValidate_NumericBoundsHaveNoUnit(t *testing.T) {
	err := Validate(ratingPayload{StoreID: "550e8400-e29b-41d4-a716-446655440000", Rating: intPtr(6)})
	fields := fieldsOf(t, err)
	assert.Equal(t, "must be at most 5", fields["rating"])
}

func TestValidate_StringAndSliceUnits(t *testing.T) {
	err := Validate(ratingPayload{
		StoreID: "550e8400-e29b-41d4-a716-446655440000",
		Rating:  intPtr(4),
		Comment: strings.Repeat("x", 21),
		Photos:  []string{"https://a", "https://b", "https://c"},
	})
	fields := fieldsOf(t, err)
	assert.Equal(t, "must be at most 20 characters", fields["comment"])
	assert.Equal(t, "must be at most 2 items", fields["photos"])
}

func TestValidate_NestedDiveField(t *testing.T) {
	err := Validate(ratingPayload{
		StoreID: "550e8400-e29b-41d4-a716-446655440000",
		Rating:  intPtr(4),
		Photos:  []string{"https://ok.example.com/x.png", "not a url"},
	})
	fields := fieldsOf(t, err)
	assert.Equal(t, "must be a valid URL", fields["photos[1]"])
}

func TestValidate_RequiredPointerAcceptsZero(t *testing.T) {
	err := Validate(ratingPayload{StoreID: "550e8400-e29b-41d4-a716-446655440000"})
	fields := fieldsOf(t, err)
	assert.Equal(t, "is required", fields["rating"])
}

type roleStruct struct {
	Role string `json:"role" validate:"oneof=customer store_owner"`
}

func TestValidate_OneOf(t *testing.T) {
	fields := fieldsOf(t, Validate(roleStruct{Role: "admin"}))
	assert.Contains(t, fields["role"], "one of")
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(ratingPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store_id is required")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"store_id":"550e8400-e29b-41d4-a716-446655440000","rating":5,"comment":"great"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()

	var p ratingPayload
	require.NoError(t, DecodeAndValidate(rec, req, &p))
	require.NotNil(t, p.Rating)
	assert.Equal(t, 5, *p.Rating)
	assert.Equal(t, "great", p.Comment)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{invalid"))
	rec := httptest.NewRecorder()

	var p ratingPayload
	err := DecodeAndValidate(rec, req, &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	rec := httptest.NewRecorder()

	var p ratingPayload
	err := DecodeAndValidate(rec, req, &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty body")
}

func TestDecodeAndValidate_TooLarge(t *testing.T) {
	body := `{"comment":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()

	var p ratingPayload
	err := DecodeAndValidate(rec, req, &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
