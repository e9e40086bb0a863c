package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttachmentKeySanitizesName(t *testing.T) {
	key := AttachmentKey("order-1", "../../etc/My Invoice (final).pdf")
	assert.True(t, strings.HasPrefix(key, "complaints/order-1/"))
	assert.True(t, strings.HasSuffix(key, "_My_Invoice_final_.pdf"), key)
	assert.NotContains(t, key, "..")

	assert.True(t, strings.HasSuffix(AttachmentKey("o", "..."), "_file"))
}

func TestDisabledStore(t *testing.T) {
	var s ObjectStore = DisabledStore{}
	assert.ErrorIs(t, s.Put(context.Background(), "k", strings.NewReader("x"), 1, "text/plain"), ErrStorageDisabled)
	_, err := s.PresignGet(context.Background(), "k", time.Minute)
	assert.ErrorIs(t, err, ErrStorageDisabled)
}
