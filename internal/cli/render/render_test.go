package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShare(t *testing.T) {
	max := uint64(300)
	assert.Equal(t, "33.33%", share(100, &max))
	assert.Equal(t, "100.00%", share(300, &max))
	assert.Equal(t, "0.00%", share(0, &max))
	assert.Equal(t, "-", share(10, nil))

	huge := ^uint64(0)
	assert.Equal(t, "100.00%", share(huge, &huge))
}
