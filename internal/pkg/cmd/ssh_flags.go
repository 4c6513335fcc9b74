package cmd

import (
	"strconv"
	"time"

	"github.com/mintel/elasticsearch-rolling/internal/pkg/remote" // SSH command execution.
)

// SSHFlags represents the flags for running commands on hosts over SSH.
type SSHFlags struct {
	remote.Config
}

// NewSSHFlags returns a new SSHFlags.
func NewSSHFlags(app Flagger) *SSHFlags {
	var f SSHFlags

	app.Flag("ssh.user", "User to log in as. Defaults to the current user.").
		Envar("SSH_USER").
		StringVar(&f.User)

	app.Flag("ssh.port", "SSH port.").
		Default(strconv.Itoa(remote.DefaultPort)).
		IntVar(&f.Port)

	app.Flag("ssh.key", "Private key file to authenticate with. Repeatable.").
		PlaceHolder("PATH").
		ExistingFilesVar(&f.KeyFiles)

	app.Flag("ssh.agent", "Authenticate with the keys of the agent at SSH_AUTH_SOCK.").
		Default("true").
		BoolVar(&f.UseAgent)

	app.Flag("ssh.known-hosts", "known_hosts file used to verify host keys. Defaults to ~/.ssh/known_hosts.").
		PlaceHolder("PATH").
		StringVar(&f.KnownHostsFile)

	app.Flag("ssh.insecure-ignore-host-key", "Don't verify host keys.").
		BoolVar(&f.InsecureIgnoreHostKey)

	app.Flag("ssh.sudo", "Run commands with `sudo -n`.").
		Default("true").
		BoolVar(&f.Sudo)

	app.Flag("ssh.timeout", "Timeout for connecting to a host.").
		Default((10 * time.Second).String()).
		DurationVar(&f.DialTimeout)

	app.Flag("ssh.idle-timeout", "How long to keep an unused connection open.").
		Hidden().
		Default(remote.DefaultIdleTimeout.String()).
		DurationVar(&f.IdleTimeout)

	return &f
}

// NewExecutor returns a new remote.Executor configured by the flags.
func (f *SSHFlags) NewExecutor() (*remote.Executor, error) {
	return remote.NewExecutor(f.Config)
}
