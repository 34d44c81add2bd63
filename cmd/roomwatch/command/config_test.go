package command

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pixil98/go-roomwatch/internal/room"
	"github.com/pixil98/go-testutil"
	"golang.org/x/crypto/ssh"
)

func TestConfig_Validate(t *testing.T) {
	tests := map[string]struct {
		cfg    Config
		expErr string
	}{
		"empty config uses defaults": {
			cfg: Config{},
		},
		"full config": {
			cfg: Config{
				TickInterval:  "30s",
				SubjectPrefix: "capture",
				Messages:      MessagesConfig{UsersInRoom: 100},
				Registry:      RegistryConfig{MaxConcurrentTasks: 4},
				Nats:          NatsConfig{Host: "0.0.0.0", Port: 4222, StartTimeout: "5s"},
				Listeners:     []ListenerConfig{{Protocol: ListenerTypeTelnet, Port: 4000}},
			},
		},
		"bad tick interval": {
			cfg:    Config{TickInterval: "soon"},
			expErr: "parsing tick_interval",
		},
		"tick interval too short": {
			cfg:    Config{TickInterval: "10ms"},
			expErr: "tick_interval must be at least 1 second",
		},
		"listener without port": {
			cfg:    Config{Listeners: []ListenerConfig{{Protocol: ListenerTypeTelnet}}},
			expErr: "listener 0: port must be set",
		},
		"telnet with host key": {
			cfg:    Config{Listeners: []ListenerConfig{{Protocol: ListenerTypeTelnet, Port: 1, HostKeyPath: "/tmp/key"}}},
			expErr: "only apply to ssh",
		},
		"colliding message ids": {
			cfg:    Config{Messages: MessagesConfig{Status: 28}},
			expErr: "users_in_room and status share id 28",
		},
		"negative task bound": {
			cfg:    Config{Registry: RegistryConfig{MaxConcurrentTasks: -2}},
			expErr: "max_concurrent_tasks must not be negative",
		},
		"bad nats timeout": {
			cfg:    Config{Nats: NatsConfig{StartTimeout: "x"}},
			expErr: "nats: parsing start_timeout",
		},
		"nats port out of range": {
			cfg:    Config{Nats: NatsConfig{Port: 70000}},
			expErr: "nats: port 70000 out of range",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			testutil.AssertEqual(t, "err", err, nil)
		})
	}
}

func TestMessagesConfig_ids(t *testing.T) {
	tests := map[string]struct {
		cfg MessagesConfig
		exp room.MessageIDs
	}{
		"defaults": {
			exp: room.DefaultMessageIDs,
		},
		"partial override": {
			cfg: MessagesConfig{Status: 99},
			exp: room.MessageIDs{UsersInRoom: 28, GetGuestRoom: 385, UserLoggedOut: 29, Status: 99},
		},
		"full override": {
			cfg: MessagesConfig{UsersInRoom: 1, GetGuestRoom: 2, UserLoggedOut: 3, Status: 4},
			exp: room.MessageIDs{UsersInRoom: 1, GetGuestRoom: 2, UserLoggedOut: 3, Status: 4},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "ids", tt.cfg.ids(), tt.exp)
		})
	}
}

func TestListenerType_UnmarshalText(t *testing.T) {
	var lt ListenerType

	testutil.AssertEqual(t, "ssh err", lt.UnmarshalText([]byte("ssh")), nil)
	testutil.AssertEqual(t, "ssh", lt, ListenerTypeSSH)

	testutil.AssertEqual(t, "telnet err", lt.UnmarshalText([]byte("telnet")), nil)
	testutil.AssertEqual(t, "telnet", lt, ListenerTypeTelnet)

	testutil.AssertErrorContains(t, lt.UnmarshalText([]byte("gopher")), "unknown listener type: gopher")
}

func TestListenerConfig_loadAuthorizedKeys(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("creating signer: %v", err)
	}
	line := ssh.MarshalAuthorizedKey(signer.PublicKey())

	dir := t.TempDir()
	good := filepath.Join(dir, "authorized_keys")
	if err := os.WriteFile(good, append(line, line...), 0600); err != nil {
		t.Fatalf("writing keys: %v", err)
	}
	bad := filepath.Join(dir, "garbage")
	if err := os.WriteFile(bad, []byte("not a key\n"), 0600); err != nil {
		t.Fatalf("writing keys: %v", err)
	}

	tests := map[string]struct {
		path     string
		expCount int
		expErr   string
	}{
		"no path":      {path: "", expCount: 0},
		"two keys":     {path: good, expCount: 2},
		"missing file": {path: filepath.Join(dir, "nope"), expErr: "reading"},
		"garbage":      {path: bad, expErr: "parsing"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cl := &ListenerConfig{Protocol: ListenerTypeSSH, Port: 2222, AuthorizedKeysPath: tt.path}
			keys, err := cl.loadAuthorizedKeys()
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			testutil.AssertEqual(t, "err", err, nil)
			testutil.AssertEqual(t, "count", len(keys), tt.expCount)
		})
	}
}

func TestBuildWorkers(t *testing.T) {
	cfg := &Config{
		TickInterval: "5s",
		Nats:         NatsConfig{Port: -1},
		Listeners: []ListenerConfig{
			{Protocol: ListenerTypeTelnet, Port: 4000},
			{Protocol: ListenerTypeSSH, Port: 4022},
		},
	}

	workers, err := BuildWorkers(cfg)
	testutil.AssertEqual(t, "err", err, nil)

	for _, name := range []string{"nats", "dispatcher", "registry", "driver", "listeners"} {
		if _, ok := workers[name]; !ok {
			t.Errorf("missing worker %q", name)
		}
	}

	_, err = BuildWorkers("not a config")
	testutil.AssertErrorContains(t, err, "unable to cast config")
}
