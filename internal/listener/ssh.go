package listener

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/crypto/ssh"
)

type SshListener struct {
	port       uint16
	cm         *ConnectionManager
	hostKey    ssh.Signer
	authorized []ssh.PublicKey
}

// NewSshListener serves console sessions over ssh. When authorized is empty
// any client may connect; otherwise clients must present one of those keys.
func NewSshListener(port uint16, cm *ConnectionManager, hostKey ssh.Signer, authorized []ssh.PublicKey) *SshListener {
	return &SshListener{
		port:       port,
		cm:         cm,
		hostKey:    hostKey,
		authorized: authorized,
	}
}

func (l *SshListener) serverConfig() *ssh.ServerConfig {
	config := &ssh.ServerConfig{}
	if len(l.authorized) == 0 {
		config.NoClientAuth = true
	} else {
		config.PublicKeyCallback = l.checkKey
	}
	config.AddHostKey(l.hostKey)
	return config
}

func (l *SshListener) checkKey(meta ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
	marshaled := key.Marshal()
	for _, k := range l.authorized {
		if bytes.Equal(k.Marshal(), marshaled) {
			return &ssh.Permissions{}, nil
		}
	}
	return nil, fmt.Errorf("unknown public key for %s", meta.User())
}

func (l *SshListener) Start(ctx context.Context) error {
	config := l.serverConfig()

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", l.port, err)
	}

	slog.InfoContext(ctx, "listening for ssh", "port", l.port, "key_auth", len(l.authorized) > 0)

	connCtx, cancelConns := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				cancelConns()
				wg.Wait()
				return nil
			default:
			}
			slog.ErrorContext(ctx, "accepting ssh connection", "error", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			l.handleConnection(connCtx, conn, config)
		}()
	}
}

func (l *SshListener) handleConnection(ctx context.Context, conn net.Conn, config *ssh.ServerConfig) {
	defer conn.Close()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		slog.WarnContext(ctx, "ssh handshake", "remote", conn.RemoteAddr(), "error", err)
		return
	}
	defer sshConn.Close()

	slog.InfoContext(ctx, "ssh console connected", "remote", conn.RemoteAddr(), "user", sshConn.User())

	// Unblocks the channel loop below on shutdown.
	go func() {
		<-ctx.Done()
		_ = sshConn.Close()
	}()

	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			_ = newChan.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}

		ch, requests, err := newChan.Accept()
		if err != nil {
			slog.ErrorContext(ctx, "accepting ssh channel", "error", err)
			continue
		}

		if !waitForShell(ctx, requests) {
			_ = ch.Close()
			continue
		}

		l.cm.AcceptConnection(ctx, newCRLFReadWriter(ch))
		_ = ch.Close()
	}
}

// waitForShell answers channel requests until the client asks for a shell.
// Clients don't forward input before the shell reply. PTYs are refused so the
// client keeps local echo and line buffering.
func waitForShell(ctx context.Context, in <-chan *ssh.Request) bool {
	shellReady := make(chan struct{})
	go func() {
		var once sync.Once
		for req := range in {
			ok := req.Type == "shell"
			_ = req.Reply(ok, nil)
			if ok {
				once.Do(func() { close(shellReady) })
			}
		}
	}()

	select {
	case <-shellReady:
		return true
	case <-ctx.Done():
		return false
	}
}
