package remote

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// fakeCommand is the scripted response to an exec request.
type fakeCommand struct {
	output string
	status uint32
	// drop closes the TCP connection instead of replying.
	drop bool
}

// testServer is an in-process SSH server that answers exec requests
// from a table of fake commands.
type testServer struct {
	listener net.Listener
	config   *ssh.ServerConfig
	hostKey  ssh.Signer

	clientKey ssh.Signer

	accepted int32
	stalled  int32

	mu       sync.Mutex
	commands map[string]fakeCommand
	seen     []string
}

func newSigner(t *testing.T) ssh.Signer {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(key)
	require.NoError(t, err)
	return signer
}

func newTestServer(t *testing.T, commands map[string]fakeCommand) *testServer {
	s := &testServer{
		hostKey:   newSigner(t),
		clientKey: newSigner(t),
		commands:  commands,
	}
	s.config = &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if string(key.Marshal()) == string(s.clientKey.PublicKey().Marshal()) {
				return nil, nil
			}
			return nil, ssh.ErrNoAuth
		},
	}
	s.config.AddHostKey(s.hostKey)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s.listener = l
	go s.serve()
	return s
}

func (s *testServer) Close() {
	_ = s.listener.Close()
}

func (s *testServer) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// ClientConfig returns a client config that trusts the server's host key.
func (s *testServer) ClientConfig() *ssh.ClientConfig {
	return &ssh.ClientConfig{
		User:            "tester",
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(s.clientKey)},
		HostKeyCallback: ssh.FixedHostKey(s.hostKey.PublicKey()),
	}
}

func (s *testServer) Accepted() int {
	return int(atomic.LoadInt32(&s.accepted))
}

// Stall makes the server stop answering session requests on every
// connection, like a peer that went away without closing the socket.
func (s *testServer) Stall(stall bool) {
	var v int32
	if stall {
		v = 1
	}
	atomic.StoreInt32(&s.stalled, v)
}

func (s *testServer) Seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func (s *testServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		atomic.AddInt32(&s.accepted, 1)
		go s.handle(conn)
	}
}

func (s *testServer) handle(conn net.Conn) {
	_, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		_ = conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)
	for nc := range chans {
		if atomic.LoadInt32(&s.stalled) == 1 {
			continue
		}
		if nc.ChannelType() != "session" {
			_ = nc.Reject(ssh.UnknownChannelType, "session only")
			continue
		}
		ch, requests, err := nc.Accept()
		if err != nil {
			continue
		}
		go s.session(conn, ch, requests)
	}
}

func (s *testServer) session(conn net.Conn, ch ssh.Channel, requests <-chan *ssh.Request) {
	defer ch.Close()
	for req := range requests {
		if req.Type != "exec" {
			_ = req.Reply(false, nil)
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			_ = req.Reply(false, nil)
			return
		}
		_ = req.Reply(true, nil)

		s.mu.Lock()
		s.seen = append(s.seen, payload.Command)
		cmd, ok := s.commands[payload.Command]
		s.mu.Unlock()
		if !ok {
			cmd = fakeCommand{output: "command not found\n", status: 127}
		}
		if cmd.drop {
			_ = conn.Close()
			return
		}
		_, _ = ch.Write([]byte(cmd.output))
		_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{cmd.status}))
		return
	}
}
