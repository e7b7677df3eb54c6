package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/99designs/keyring"
	"golang.org/x/term"
)

const (
	keyringServiceName  = "com.attestation.provision"
	keyringKeyService   = "deviceKey"
	keyringTokenService = "catoken"
	keyringDirectory    = "~/.provision_keys"
)

type backendType struct {
	config *Config
}

func (b backendType) String() string {
	if b.config == nil || len(b.config.Backend.AllowedBackends) == 0 {
		return string(keyring.InvalidBackend)
	}
	return string(b.config.Backend.AllowedBackends[0])
}

func (b backendType) Set(v string) error {
	value := keyring.BackendType(v)
	if b.config == nil {
		return fmt.Errorf("invalid backendType")
	}
	if v == "" {
		return nil
	}
	for _, name := range keyring.AvailableBackends() {
		if name == value {
			b.config.Backend.AllowedBackends = []keyring.BackendType{name}
			return nil
		}
	}
	return fmt.Errorf("unsupported credential storage")
}

func (c *Config) getPassword(prompt string) (string, error) {
	if c.password != nil && *c.password != "" {
		return *c.password, nil
	}

	var w io.Writer
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		fd = int(os.Stderr.Fd())
		if !term.IsTerminal(fd) {
			return "", fmt.Errorf("no terminal output available for password prompt")
		}
		w = os.Stderr
	} else {
		w = os.Stdout
	}

	fmt.Fprintf(w, "%s: ", prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(w)
	password := string(b)
	c.password = &password
	return password, nil
}

func (c *Config) openKeyring() (keyring.Keyring, error) {
	return keyring.Open(c.Backend)
}

// LoadTokenFromKeyring loads a CA bearer token from the system keyring.
//
// The name must match the value provided to SaveTokenToKeyring.
func (c *Config) LoadTokenFromKeyring() (string, error) {
	kr, err := c.openKeyring()
	if err != nil {
		return "", err
	}

	item, err := kr.Get(keyringTokenService + "." + c.KeyringTokenName)
	if err != nil {
		return "", fmt.Errorf("could not load token: %s", err)
	}
	return string(item.Data), nil
}

// SaveTokenToKeyring writes a CA bearer token to the system keyring.
func (c *Config) SaveTokenToKeyring(token string) error {
	kr, err := c.openKeyring()
	if err != nil {
		return err
	}

	if err := kr.Set(keyring.Item{
		Key:  keyringTokenService + "." + c.KeyringTokenName,
		Data: []byte(token),
	}); err != nil {
		return fmt.Errorf("failed to enroll token in keyring: %s", err)
	}
	return nil
}

func (c *Config) fullKeyName() string {
	return keyringKeyService + "." + c.KeyringKeyName
}

// LoadKeyFromKeyring reads a device private key from the system keyring. The
// stored blob is the form WithTestKey accepts: a raw X25519 scalar or a SEC1
// DER P-256 key.
func (c *Config) LoadKeyFromKeyring() ([]byte, error) {
	kr, err := c.openKeyring()
	if err != nil {
		return nil, err
	}
	item, err := kr.Get(c.fullKeyName())
	if err != nil {
		return nil, fmt.Errorf("could not load key: %s", err)
	}
	if len(item.Data) == 0 {
		return nil, fmt.Errorf("invalid private key")
	}
	return item.Data, nil
}

func (c *Config) saveKeyToKeyring(private []byte) error {
	kr, err := c.openKeyring()
	if err != nil {
		return err
	}
	if err := kr.Set(keyring.Item{
		Key:  c.fullKeyName(),
		Data: private,
	}); err != nil {
		return fmt.Errorf("failed to enroll key in keyring: %s", err)
	}
	return nil
}

// DeletePrivateKey removes the device private key from the system keyring.
func (c *Config) DeletePrivateKey() error {
	kr, err := c.openKeyring()
	if err != nil {
		return err
	}
	return kr.Remove(c.fullKeyName())
}
