package btelem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainPacked_ByteExactPacket(t *testing.T) {
	ctx := newTestContext(t, 16)
	require.NoError(t, ctx.Register(&SchemaDescriptor{ID: 0, Name: "test", PayloadSize: 4}))
	clientID, err := ctx.OpenClient()
	require.NoError(t, err)

	_, err = Log(ctx, 0, uint32(0xDEADBEEF))
	require.NoError(t, err)
	_, err = Log(ctx, 0, uint32(0xCAFEBABE))
	require.NoError(t, err)

	buf := make([]byte, 4096)
	n, err := ctx.DrainPacked(clientID, buf)
	require.NoError(t, err)
	require.Equal(t, 56, n)

	entryCount := le16(buf[0:2])
	flags := le16(buf[2:4])
	payloadSize := le32(buf[4:8])
	dropped := le32(buf[8:12])
	assert.Equal(t, uint16(2), entryCount)
	assert.Equal(t, uint16(0), flags)
	assert.Equal(t, uint32(8), payloadSize)
	assert.Equal(t, uint32(0), dropped)

	// Entry headers.
	e0 := buf[16:32]
	e1 := buf[32:48]
	assert.Equal(t, uint16(0), le16(e0[0:2]))  // id
	assert.Equal(t, uint16(4), le16(e0[2:4]))  // payload_size
	assert.Equal(t, uint32(0), le32(e0[4:8]))  // payload_offset
	assert.Equal(t, uint16(0), le16(e1[0:2]))
	assert.Equal(t, uint16(4), le16(e1[2:4]))
	assert.Equal(t, uint32(4), le32(e1[4:8]))

	payload := buf[48:56]
	assert.Equal(t, []byte{0xEF, 0xBE, 0xAD, 0xDE, 0xBE, 0xBA, 0xFE, 0xCA}, payload)

	// Second drain returns 0.
	n, err = ctx.DrainPacked(clientID, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDrainPacked_WithDrops(t *testing.T) {
	ctx := newTestContext(t, 16)
	require.NoError(t, ctx.Register(&SchemaDescriptor{ID: 0, Name: "test", PayloadSize: 4}))
	clientID, err := ctx.OpenClient()
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		_, err := Log(ctx, 0, uint32(i))
		require.NoError(t, err)
	}

	buf := make([]byte, 4096)
	n, err := ctx.DrainPacked(clientID, buf)
	require.NoError(t, err)
	require.Greater(t, n, 0)
	assert.Equal(t, uint16(16), le16(buf[0:2]))
	assert.Equal(t, uint32(4), le32(buf[8:12]))

	_, err = Log(ctx, 0, uint32(999))
	require.NoError(t, err)

	n, err = ctx.DrainPacked(clientID, buf)
	require.NoError(t, err)
	require.Greater(t, n, 0)
	assert.Equal(t, uint16(1), le16(buf[0:2]))
	assert.Equal(t, uint32(0), le32(buf[8:12]))
}

func TestDrainPacked_BufferTooSmallForHeader(t *testing.T) {
	ctx := newTestContext(t, 16)
	require.NoError(t, ctx.Register(&SchemaDescriptor{ID: 0, Name: "test", PayloadSize: 4}))
	clientID, err := ctx.OpenClient()
	require.NoError(t, err)

	_, err = ctx.DrainPacked(clientID, make([]byte, 8))
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestDrainPacked_NoEntriesReturnsZero(t *testing.T) {
	ctx := newTestContext(t, 16)
	require.NoError(t, ctx.Register(&SchemaDescriptor{ID: 0, Name: "test", PayloadSize: 4}))
	clientID, err := ctx.OpenClient()
	require.NoError(t, err)

	n, err := ctx.DrainPacked(clientID, make([]byte, 64))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDrainPacked_SelfConsistency(t *testing.T) {
	// payload_size must equal the sum of entry sizes, with offsets
	// strictly increasing by entry size starting at 0.
	ctx := newTestContext(t, 64)
	require.NoError(t, ctx.Register(&SchemaDescriptor{ID: 0, Name: "test", PayloadSize: 4}))
	clientID, err := ctx.OpenClient()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := Log(ctx, 0, uint32(i))
		require.NoError(t, err)
	}

	buf := make([]byte, 4096)
	n, err := ctx.DrainPacked(clientID, buf)
	require.NoError(t, err)

	entryCount := le16(buf[0:2])
	payloadSize := le32(buf[4:8])

	var sum uint32
	var wantOffset uint32
	for i := 0; i < int(entryCount); i++ {
		off := 16 + i*16
		size := le16(buf[off+2 : off+4])
		offset := le32(buf[off+4 : off+8])
		assert.Equal(t, wantOffset, offset)
		wantOffset += uint32(size)
		sum += uint32(size)
	}
	assert.Equal(t, payloadSize, sum)
	assert.Equal(t, 16+int(entryCount)*16+int(payloadSize), n)
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
