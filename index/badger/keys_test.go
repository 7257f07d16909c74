package badger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeDocKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, makeDocKey("u1"), makeDocKey("u1"))
	})

	t.Run("fixed width regardless of id length", func(t *testing.T) {
		short := makeDocKey("u1")
		long := makeDocKey("u2_amalgamated_consolidated_holdings_international")
		assert.Len(t, short, len(docPrefix)+8)
		assert.Len(t, long, len(docPrefix)+8)
	})

	t.Run("carries the document prefix", func(t *testing.T) {
		key := makeDocKey("u1")
		assert.True(t, bytes.HasPrefix(key, []byte(docPrefix)))
	})

	t.Run("distinct ids produce distinct keys", func(t *testing.T) {
		assert.NotEqual(t, makeDocKey("u1"), makeDocKey("u1_apple"))
		assert.NotEqual(t, makeDocKey("u1_apple"), makeDocKey("u2_apple"))
	})
}
