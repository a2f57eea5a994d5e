package engine

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saplyn/vibe/internal/models"
	"github.com/Saplyn/vibe/internal/store"
)

func TestEncodeFrame(t *testing.T) {
	frame, err := EncodeFrame(models.OscMessage{Path: "/n", Arg: models.FloatArg(60)})
	require.NoError(t, err)

	// "/n\0\0" ",f\0\0" and big-endian 60.0, as decimal bytes
	assert.Equal(t, "47 110 0 0 44 102 0 0 66 112 0 0;", string(frame))
}

func recvStatus(t *testing.T, sub <-chan bool, timeout time.Duration) (bool, bool) {
	t.Helper()
	select {
	case v := <-sub:
		return v, true
	case <-time.After(timeout):
		return false, false
	}
}

func waitStatus(t *testing.T, sub <-chan bool, want bool, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case v := <-sub:
			if v == want {
				return
			}
		case <-deadline:
			t.Fatalf("connection status never became %v", want)
		}
	}
}

func TestCommunicatorConnectSendReconnect(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()

	st := store.New(store.Defaults{Name: "test", Bpm: 120, TargetAddr: addr})
	comm := NewCommunicator(st, 32, 20*time.Millisecond)

	sub, unsub := comm.Status().Subscribe()
	defer unsub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go comm.Run(ctx)

	waitStatus(t, sub, true, time.Second)
	assert.True(t, comm.Connected())

	conn, err := listener.Accept()
	require.NoError(t, err)

	// a sent message arrives as one ';'-terminated decimal frame
	comm.SendMessage(models.OscMessage{Path: "/n", Arg: models.FloatArg(60)})
	conn.SetReadDeadline(time.Now().Add(time.Second))
	line, err := bufio.NewReader(conn).ReadString(';')
	require.NoError(t, err)
	assert.Equal(t, "47 110 0 0 44 102 0 0 66 112 0 0;", line)

	// closing the target drops the connection and triggers a reconnect
	conn.Close()
	waitStatus(t, sub, false, time.Second)

	waitStatus(t, sub, true, 2*time.Second)
	second, err := listener.Accept()
	require.NoError(t, err)
	second.Close()
	listener.Close()
}

func TestCommunicatorRetriesWhileTargetDown(t *testing.T) {
	// reserve an address nothing listens on
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := probe.Addr().String()
	probe.Close()

	st := store.New(store.Defaults{Name: "test", Bpm: 120, TargetAddr: addr})
	comm := NewCommunicator(st, 32, 20*time.Millisecond)

	sub, unsub := comm.Status().Subscribe()
	defer unsub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go comm.Run(ctx)

	// messages sent while down are dropped, not queued
	comm.SendMessage(models.OscMessage{Path: "/x", Arg: models.FloatArg(1)})
	assert.False(t, comm.Connected())

	// once the target appears, the communicator finds it
	listener, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	defer listener.Close()

	waitStatus(t, sub, true, 2*time.Second)
}

func TestCommunicatorChangeTargetAddr(t *testing.T) {
	first, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer first.Close()
	second, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer second.Close()

	st := store.New(store.Defaults{Name: "test", Bpm: 120, TargetAddr: first.Addr().String()})
	comm := NewCommunicator(st, 32, 20*time.Millisecond)

	sub, unsub := comm.Status().Subscribe()
	defer unsub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go comm.Run(ctx)

	waitStatus(t, sub, true, time.Second)

	comm.ChangeTargetAddr(second.Addr().String())
	waitStatus(t, sub, false, time.Second)
	waitStatus(t, sub, true, 2*time.Second)

	assert.Equal(t, second.Addr().String(), st.TargetAddr())

	_, err = second.Accept()
	require.NoError(t, err)
}
