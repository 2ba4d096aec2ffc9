package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInputBatchStripsMarkup(t *testing.T) {
	batch := NewInputBatch([]string{"<b>great</b> product", "<script>alert(1)</script>plain text"})
	assert.Equal(t, InputBatch{"great product", "plain text"}, batch)
}

func TestNewInputBatchDropsEmptyAfterSanitizing(t *testing.T) {
	batch := NewInputBatch([]string{"  ", "<div></div>", "real line"})
	assert.Equal(t, InputBatch{"real line"}, batch)
}
