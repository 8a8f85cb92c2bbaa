package contact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      string
		wantError bool
	}{
		{"plain", "Hello there", "Hello there", false},
		{"trimmed", "   hi  \n", "hi", false},
		{"escaped", "<script>alert('x')</script>", "&lt;script&gt;alert(&#x27;x&#x27;)&lt;&#x2F;script&gt;", false},
		{"empty", "", "", true},
		{"whitespace only", " \t\n ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			m, errs := Validate(tt.raw)
			req.Equal(tt.want, m.Content)
			if !tt.wantError {
				req.Empty(errs)
				return
			}
			req.Len(errs, 1)
			req.Equal(ErrorDescriptor{
				Type:     "field",
				Value:    "",
				Msg:      DefaultErrorMsg,
				Path:     "message",
				Location: "body",
			}, errs[0])
		})
	}
}

func TestValidMessageHasNoMarkup(t *testing.T) {
	m, errs := Validate(`<img src=x onerror="alert(1)"> & more`)
	require.Nil(t, errs)
	require.NotContains(t, m.Content, "<")
	require.NotContains(t, m.Content, ">")
	require.NotContains(t, m.Content, `"`)
}
