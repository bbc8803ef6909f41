package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"USER@foo.COM",
		"A_US-ER@foo.bar.org",
		"first.last@foo.jp",
		"alice+bob@baz.cn",
		"Foo@EX-AMPLE.com",
	}
	for _, email := range valid {
		assert.True(t, ValidEmail(email), "expected %q to be valid", email)
	}

	invalid := []string{
		"user@example,com",
		"user_at_foo.org",
		"user.name@example.",
		"foo@bar_baz.com",
		"foo@bar+baz.com",
		"foo@bar",
		"foo@bar..com",
	}
	for _, email := range invalid {
		assert.False(t, ValidEmail(email), "expected %q to be invalid", email)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "foo@ex-ample.com", NormalizeEmail("Foo@EX-AMPLE.com"))
	assert.Equal(t, "foo@bar.com", NormalizeEmail("  foo@bar.com "))
}

func TestValidatorEmailFormatTag(t *testing.T) {
	type form struct {
		Email string `validate:"required,email_format"`
	}

	v := GetValidator()
	assert.NoError(t, v.Validate.Struct(&form{Email: "user@example.com"}))
	assert.Error(t, v.Validate.Struct(&form{Email: "foo@bar"}))
	assert.Error(t, v.Validate.Struct(&form{Email: ""}))
}

func TestSanitizeData(t *testing.T) {
	type form struct {
		Name  string
		Count int
	}

	v := GetValidator()
	f := &form{Name: "<script>alert(1)</script>plain", Count: 3}
	assert.NoError(t, v.SanitizeData(f))
	assert.Equal(t, "plain", f.Name)
	assert.Equal(t, 3, f.Count)

	assert.Error(t, v.SanitizeData(form{}))
}

func TestFieldViolations(t *testing.T) {
	type form struct {
		Name  string `validate:"required,max=5"`
		Email string `validate:"required,email_format"`
	}

	v := GetValidator()
	err := v.Validate.Struct(&form{Name: "toolongname", Email: "nope"})
	assert.Error(t, err)

	fields := FieldViolations(err)
	assert.Equal(t, "max=5", fields["name"])
	assert.Equal(t, "email_format", fields["email"])
}
