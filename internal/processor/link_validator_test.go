package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkValidatorStripsUnsuppliedLinks(t *testing.T) {
	v := NewLinkValidator(LinkPolicyStrip, []string{"https://go.dev/tour/"})
	in := "- [Tour of Go](https://go.dev/tour) basics\n- [Fake Course](https://fake.example.com/k8s) advanced\nSee https://made-up.example.org/x."

	out, rejected := v.Validate(in)
	assert.Equal(t, 2, rejected)
	assert.Contains(t, out, "[Tour of Go](https://go.dev/tour)")
	assert.Contains(t, out, "- Fake Course advanced")
	assert.NotContains(t, out, "fake.example.com")
	assert.NotContains(t, out, "made-up.example.org")
	assert.Contains(t, out, "See .")
}

func TestLinkValidatorFlagPolicy(t *testing.T) {
	v := NewLinkValidator(LinkPolicyFlag, nil)
	out, rejected := v.Validate("[Docs](https://docs.example.com), then https://other.example.com.")
	assert.Equal(t, 2, rejected)
	assert.Equal(t, "[Docs](https://docs.example.com) (unverified link), then https://other.example.com (unverified link).", out)
}

func TestLinkValidatorOffPolicyKeepsText(t *testing.T) {
	in := "[Anything](https://anything.example.com)"
	out, rejected := NewLinkValidator(LinkPolicyOff, nil).Validate(in)
	assert.Equal(t, in, out)
	assert.Zero(t, rejected)
}

func TestLinkValidatorUnknownPolicyDefaultsToStrip(t *testing.T) {
	out, rejected := NewLinkValidator("bogus", nil).Validate("[x](https://x.example.com)")
	assert.Equal(t, "x", out)
	assert.Equal(t, 1, rejected)
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, normalizeURL("HTTPS://Go.dev/tour/"), normalizeURL("https://go.dev/tour"))
	assert.Equal(t, normalizeURL("https://go.dev/doc#install"), normalizeURL("https://go.dev/doc"))
	assert.NotEqual(t, normalizeURL("https://go.dev/doc"), normalizeURL("https://go.dev/blog"))
}
