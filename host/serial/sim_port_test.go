package serial

import (
	"io"
	"testing"
	"time"

	"bluepill/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimPortExchangesWithFirmware(t *testing.T) {
	sim := core.NewF103Sim()
	cfg := core.DefaultAppConfig()
	cfg.Banner = "hello"
	app := core.NewApp(sim, cfg)
	require.NoError(t, app.Boot())

	port := NewSimPort(sim, core.USART1, 10*time.Millisecond)
	buf := make([]byte, 64)
	n, err := port.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "\nhello\n\rUSART1_CR1: 200C\n\r", string(buf[:n]))

	_, err = port.Read(buf)
	assert.ErrorIs(t, err, io.EOF)

	n, err = port.Write([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	for i := 0; i < 2; i++ {
		_, err := app.Poll()
		require.NoError(t, err)
	}
	n, err = port.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(buf[:n]))

	require.NoError(t, port.Close())
	_, err = port.Write([]byte("x"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestSimPortFlush(t *testing.T) {
	sim := core.NewF103Sim()
	app := core.NewApp(sim, core.DefaultAppConfig())
	require.NoError(t, app.Boot())

	port := NewSimPort(sim, core.USART1, time.Millisecond)
	require.NoError(t, port.Flush())
	_, err := port.Read(make([]byte, 8))
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)

	_, err = Open(&Config{Device: "/dev/null", Baud: 0})
	assert.Error(t, err)
	assert.Equal(t, 115200, DefaultConfig("/dev/ttyUSB0").Baud)
}
