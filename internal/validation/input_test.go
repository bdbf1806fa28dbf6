package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"user@example.com", false},
		{"  User.Name+tag@Example.org ", false},
		{"", true},
		{"no-at-sign", true},
		{"a@b@c.com", true},
		{"user@localhost", true},
		{"us er@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOptionalEmail_Empty(t *testing.T) {
	empty := "  "
	assert.NoError(t, ValidateOptionalEmail(nil))
	assert.NoError(t, ValidateOptionalEmail(&empty))
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("ссылка", "https://youtube.com/watch?v=1"))
	assert.Error(t, ValidateURL("ссылка", ""))
	assert.Error(t, ValidateURL("ссылка", "ftp://example.com/file"))
	assert.Error(t, ValidateURL("ссылка", "https://"))
}

func TestValidateEnumList(t *testing.T) {
	allowed := map[string]struct{}{"a": {}, "b": {}}

	assert.NoError(t, ValidateEnumList("тип", []string{"a", "b"}, allowed))
	assert.NoError(t, ValidateEnumList("тип", nil, allowed))

	err := ValidateEnumList("тип", []string{"a", "c"}, allowed)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `"c"`)
}

func TestValidateTags(t *testing.T) {
	assert.NoError(t, ValidateTags([]string{"welding", "AMR"}))
	assert.Error(t, ValidateTags([]string{"welding", "Welding"}))
	assert.Error(t, ValidateTags([]string{" "}))
}
