// Package remote runs commands on cluster hosts over SSH.
package remote

import (
	"io/ioutil"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/pkg/errors"              // Wrap errors with stacktrace.
	"golang.org/x/crypto/ssh"            // SSH client.
	"golang.org/x/crypto/ssh/agent"      // SSH agent protocol.
	"golang.org/x/crypto/ssh/knownhosts" // known_hosts parsing.
)

// DefaultPort is the SSH port used when none is configured.
const DefaultPort = 22

// Config describes how to connect to hosts.
type Config struct {
	// User to log in as. Defaults to the current user.
	User string

	// Port to connect to. Defaults to DefaultPort.
	Port int

	// KeyFiles are paths of private keys to authenticate with.
	KeyFiles []string

	// UseAgent adds the keys of the agent listening on SSH_AUTH_SOCK.
	UseAgent bool

	// KnownHostsFile verifies host keys. Defaults to ~/.ssh/known_hosts.
	KnownHostsFile string

	// InsecureIgnoreHostKey disables host key verification.
	InsecureIgnoreHostKey bool

	// Sudo runs every command through `sudo -n`.
	Sudo bool

	// DialTimeout bounds connecting and the SSH handshake.
	DialTimeout time.Duration

	// IdleTimeout is how long an unused connection is kept open.
	IdleTimeout time.Duration
}

func (c Config) port() int {
	if c.Port == 0 {
		return DefaultPort
	}
	return c.Port
}

func (c Config) user() (string, error) {
	if c.User != "" {
		return c.User, nil
	}
	u, err := user.Current()
	if err != nil {
		return "", errors.Wrap(err, "error looking up current user")
	}
	return u.Username, nil
}

// authMethods returns the configured authentication methods and
// a func to release any agent connection.
func (c Config) authMethods() ([]ssh.AuthMethod, func(), error) {
	var (
		methods []ssh.AuthMethod
		signers []ssh.Signer
		cleanup = func() {}
	)
	for _, path := range c.KeyFiles {
		pem, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, cleanup, errors.Wrapf(err, "error reading ssh key %s", path)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, cleanup, errors.Wrapf(err, "error parsing ssh key %s", path)
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}
	if c.UseAgent {
		sock := os.Getenv("SSH_AUTH_SOCK")
		if sock == "" {
			return nil, cleanup, errors.New("ssh agent requested but SSH_AUTH_SOCK isn't set")
		}
		conn, err := net.Dial("unix", sock)
		if err != nil {
			return nil, cleanup, errors.Wrap(err, "error connecting to ssh agent")
		}
		cleanup = func() { _ = conn.Close() }
		methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
	}
	if len(methods) == 0 {
		return nil, cleanup, errors.New("no ssh authentication method configured")
	}
	return methods, cleanup, nil
}

func (c Config) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if c.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil // nolint: gosec
	}
	path := c.KnownHostsFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "error finding home directory")
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading known hosts from %s", path)
	}
	return cb, nil
}

// clientConfig builds the ssh.ClientConfig shared by all connections.
func (c Config) clientConfig() (*ssh.ClientConfig, func(), error) {
	username, err := c.user()
	if err != nil {
		return nil, func() {}, err
	}
	hostKeys, err := c.hostKeyCallback()
	if err != nil {
		return nil, func() {}, err
	}
	auth, cleanup, err := c.authMethods()
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return &ssh.ClientConfig{
		User:            username,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         c.DialTimeout,
	}, cleanup, nil
}
