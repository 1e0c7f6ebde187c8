package config

import (
	"testing"
)

func TestValidatorRequireNonEmpty(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{
			name:      "non-empty value",
			value:     "valid",
			wantError: false,
		},
		{
			name:      "empty value",
			value:     "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.RequireNonEmpty("test_field", tt.value)
			hasError := v.HasErrors()
			if hasError != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v", hasError, tt.wantError)
			}
		})
	}
}

func TestValidatorRequirePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{
			name:      "positive value",
			value:     10,
			wantError: false,
		},
		{
			name:      "zero value",
			value:     0,
			wantError: true,
		},
		{
			name:      "negative value",
			value:     -5,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.RequirePositive("test_field", tt.value)
			hasError := v.HasErrors()
			if hasError != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v", hasError, tt.wantError)
			}
		})
	}
}

func TestValidatorValidateRange(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		min       int
		max       int
		wantError bool
	}{
		{
			name:      "value in range",
			value:     50,
			min:       0,
			max:       100,
			wantError: false,
		},
		{
			name:      "value below minimum",
			value:     -1,
			min:       0,
			max:       100,
			wantError: true,
		},
		{
			name:      "value above maximum",
			value:     101,
			min:       0,
			max:       100,
			wantError: true,
		},
		{
			name:      "value at minimum boundary",
			value:     0,
			min:       0,
			max:       100,
			wantError: false,
		},
		{
			name:      "value at maximum boundary",
			value:     100,
			min:       0,
			max:       100,
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.ValidateRange("test_field", tt.value, tt.min, tt.max)
			hasError := v.HasErrors()
			if hasError != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v", hasError, tt.wantError)
			}
		})
	}
}

func TestValidatorValidateFloatRange(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		min       float64
		max       float64
		wantError bool
	}{
		{
			name:      "value in range",
			value:     0.7,
			min:       0.0,
			max:       2.0,
			wantError: false,
		},
		{
			name:      "value below minimum",
			value:     -0.1,
			min:       0.0,
			max:       2.0,
			wantError: true,
		},
		{
			name:      "value above maximum",
			value:     2.1,
			min:       0.0,
			max:       2.0,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.ValidateFloatRange("test_field", tt.value, tt.min, tt.max)
			hasError := v.HasErrors()
			if hasError != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v", hasError, tt.wantError)
			}
		})
	}
}

func TestValidatorValidateOneOf(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		allowed   []string
		wantError bool
	}{
		{
			name:      "value is allowed",
			value:     "disable",
			allowed:   []string{"disable", "require", "verify-ca"},
			wantError: false,
		},
		{
			name:      "value not allowed",
			value:     "invalid",
			allowed:   []string{"disable", "require", "verify-ca"},
			wantError: true,
		},
		{
			name:      "empty allowed list",
			value:     "any",
			allowed:   []string{},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.ValidateOneOf("field", tt.value, tt.allowed...)
			hasError := v.HasErrors()
			if hasError != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v", hasError, tt.wantError)
			}
		})
	}
}

func TestValidatorMultipleErrors(t *testing.T) {
	v := NewValidator()
	v.RequireNonEmpty("field1", "")
	v.RequirePositive("field2", 0)
	v.ValidateRange("field3", 99999, 1, 65535)

	if !v.HasErrors() {
		t.Errorf("HasErrors() = false, want true")
	}

	errs := v.Errors()
	if len(errs) != 3 {
		t.Errorf("Errors() count = %d, want 3", len(errs))
	}

	err := v.Error()
	if err == nil {
		t.Errorf("Error() = nil, want non-nil error")
	}
}

func TestValidatorRequireNonNegative(t *testing.T) {
	v := NewValidator()
	v.RequireNonNegative("zero", 0).RequireNonNegative("negative", -1)
	if len(v.Errors()) != 1 || v.Errors()[0].Field != "negative" {
		t.Errorf("Errors() = %v, want a single error for negative", v.Errors())
	}
}

func TestValidatorRequireLess(t *testing.T) {
	v := NewValidator()
	v.RequireLess("overlap", 100, 600)
	if v.HasErrors() {
		t.Errorf("100 < 600 should pass")
	}
	v.RequireLess("overlap", 600, 600)
	if !v.HasErrors() {
		t.Errorf("600 < 600 should fail")
	}
}

func TestValidatorRequireIf(t *testing.T) {
	v := NewValidator()
	v.RequireIf(false, "api_key", "", "for openai")
	if v.HasErrors() {
		t.Errorf("condition false should not add errors")
	}
	v.RequireIf(true, "api_key", "", "for openai")
	if !v.HasErrors() {
		t.Errorf("condition true with empty value should fail")
	}
}
