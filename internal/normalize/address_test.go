package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const segwitAddress = "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"

func TestMaskAddress(t *testing.T) {
	assert.Equal(t, "bc1qxy…hx0wlh", MaskAddress(segwitAddress))
	assert.Equal(t, "0x5290…5fcb73", MaskAddress("0x529084000985278860f7030069857d2e415fcb73"))
	assert.Equal(t, "bc1qxyz...", MaskAddress("bc1qxyz..."))
	assert.Equal(t, "", MaskAddress("  "))
}

func TestDetectNetwork(t *testing.T) {
	assert.Equal(t, "bitcoin", DetectNetwork(segwitAddress))
	assert.Equal(t, "ethereum", DetectNetwork("0x529084000985278860f7030069857d2e415fcb73"))
	assert.Equal(t, "", DetectNetwork("0x1234"))
	assert.Equal(t, "", DetectNetwork("not an address"))
	assert.Equal(t, "", DetectNetwork(""))
}
