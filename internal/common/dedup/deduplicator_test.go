package dedup

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestDeduplicator_Key(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	d := NewDeduplicator(client, "", 0)
	assert.Equal(t, "dedup", d.prefix)
	assert.Equal(t, 30*24*time.Hour, d.defaultTTL)

	k1 := d.makeKey("topcv", "https://www.topcv.vn/viec-lam/a/1.html")
	k2 := d.makeKey("topcv", "https://www.topcv.vn/viec-lam/a/1.html")
	k3 := d.makeKey("topcv", "https://www.topcv.vn/viec-lam/b/2.html")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Len(t, k1, len("dedup:topcv:")+32)
}
