package htmltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvert(t *testing.T) {
	c := NewConverter()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "simple paragraphs",
			in:   "<html><body><p>Hello</p><p>World</p></body></html>",
			want: "Hello\nWorld",
		},
		{
			name: "scripts and styles dropped",
			in:   "<html><head><style>p{color:red}</style></head><body><script>alert(1)</script><p>Visible</p></body></html>",
			want: "Visible",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "plain text passes through",
			in:   "just some text",
			want: "just some text",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Convert(tc.in))
		})
	}
}

func TestConvertCollapsesWhitespace(t *testing.T) {
	c := NewConverter()
	got := c.Convert("<div>  a   lot​   of    space  </div>\n\n\n\n<div>next</div>")
	assert.Equal(t, "a lot of space\nnext", got)
}
