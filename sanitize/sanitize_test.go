package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"script", "<script>alert(1)</script>hi", "alert(1)hi"},
		{"attributes", `<img src="x" onerror="alert(1)">ok`, "ok"},
		{"multiline tag", "a<div\nclass=\"x\">b</div>", "ab"},
		{"unterminated", "safe <script", "safe "},
		{"empty brackets", "<>x</>", "x"},
		{"lone closing bracket", "1 > 0", "1 > 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, StripTags(tt.in))
		})
	}
}

func TestStripTagsLeavesNoTags(t *testing.T) {
	inputs := []string{
		"<script>document.cookie</script>",
		"<<script>>nested<</script>>",
		"x<script src=//evil>y</script>z<b>bold</b>",
		strings.Repeat("<p>para</p>", 50),
	}
	for _, in := range inputs {
		out := StripTags(in)
		require.False(t, tagPattern.MatchString(out), "tag left in %q", out)
		require.NotContains(t, out, "<script")
	}
}

func TestEscape(t *testing.T) {
	req := require.New(t)
	req.Equal("&lt;b&gt;hi&lt;&#x2F;b&gt;", Escape("<b>hi</b>"))
	req.Equal("Tom &amp; Jerry&#x27;s &quot;show&quot;", Escape(`Tom & Jerry's "show"`))
	req.Equal("&#x5C;&#96;", Escape("\\`"))
	// already escaped input is escaped again, not left alone
	req.Equal("&amp;lt;", Escape("&lt;"))
	req.Equal("", Escape(""))
}

func TestTrim(t *testing.T) {
	req := require.New(t)
	req.Equal("hi there", Trim("  \t hi there \n"))
	req.Equal("", Trim("  \uFEFF "))
	req.Equal("x", Trim("x"))
}
