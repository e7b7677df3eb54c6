/*
Package cli facilitates building command-line tools that talk to a
provisioning CA. It defines a [Config] type that registers common
command-line flags (using the Golang flag package) and environment variable
equivalents.

The package uses [keyring]'s platform-agnostic interface for storing
sensitive values (device private keys and CA bearer tokens) in an
OS-dependent credential store.

# Example

	config, err := cli.NewConfig(cli.FlagAll)
	if err != nil {
		panic(err)
	}
	config.RegisterCommandLineFlags() // Adds flags for keys, tokens, the CA URL.
	flag.Parse()
	config.ReadFromEnvironment() // Fills in missing fields from the environment.

	conn, err := config.Connect() // HTTP connection to the CA.
	if err != nil {
		panic(err)
	}
	defer conn.Close()
*/
package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/99designs/keyring"

	"github.com/attestation-tools/provision-command/internal/log"
	"github.com/attestation-tools/provision-command/pkg/connector/inet"
	"github.com/attestation-tools/provision-command/pkg/protocol"
)

var CurvesByName = map[string]protocol.Curve{
	"P256":   protocol.CurveP256,
	"X25519": protocol.CurveX25519,
}

var CurveNames = map[protocol.Curve]string{
	protocol.CurveP256:   "P256",
	protocol.CurveX25519: "X25519",
}

// CurveFlag translates a curve name provided at the command line into a
// native protocol.Curve value.
type CurveFlag struct {
	Curve protocol.Curve

	explicit bool
}

// Set updates a CurveFlag from a command-line argument.
func (f *CurveFlag) Set(value string) error {
	canonicalName := strings.ToUpper(strings.ReplaceAll(value, "-", ""))
	if curve, ok := CurvesByName[canonicalName]; ok {
		f.Curve = curve
		f.explicit = true
		return nil
	}
	return fmt.Errorf("unknown curve '%s'", value)
}

func (f *CurveFlag) String() string {
	if name, ok := CurveNames[f.Curve]; ok {
		return name
	}
	return ""
}

// Environment variable names used by [Config.ReadFromEnvironment] to set
// common parameters.
const (
	EnvKeyName      = "PROVISION_KEY_NAME"
	EnvKeyFile      = "PROVISION_KEY_FILE"
	EnvTokenName    = "PROVISION_TOKEN_NAME"
	EnvTokenFile    = "PROVISION_TOKEN_FILE"
	EnvCAURL        = "PROVISION_CA_URL"
	EnvCurve        = "PROVISION_CURVE"
	EnvKeyringType  = "PROVISION_KEYRING_TYPE"
	EnvKeyringPass  = "PROVISION_KEYRING_PASSWORD"
	EnvKeyringPath  = "PROVISION_KEYRING_PATH"
	EnvKeyringDebug = "PROVISION_KEYRING_DEBUG"
)

// Flag controls what options should be scanned from the command line and/or
// environment variables.
type Flag int

func (f Flag) isSet(other Flag) bool {
	return (f & other) == other
}

const (
	FlagCA         Flag = 1 // Enable CA URL and bearer token options.
	FlagPrivateKey Flag = 2 // Enable device private key options.
	FlagCurve      Flag = 4 // Enable the curve selection option.
	FlagAll        Flag = FlagCA | FlagPrivateKey | FlagCurve
)

var (
	ErrNoKeySpecified   = errors.New("private key location not provided")
	ErrNoTokenSpecified = errors.New("bearer token location not provided")
	ErrNoCASpecified    = errors.New("CA URL not provided")
	ErrKeyNotFound      = keyring.ErrKeyNotFound
)

// Config fields determine how a tool authenticates to the CA and where it
// keeps the device key.
type Config struct {
	Flags            Flag   // Controls which set of environment variables/CLI flags to use.
	KeyringKeyName   string // Name for the device private key in the system keyring.
	KeyringTokenName string // Name for the CA bearer token in the system keyring.
	KeyFilename      string
	TokenFilename    string
	CAURL            string
	Curve            CurveFlag
	UserAgent        string
	Backend          keyring.Config
	BackendType      backendType
	Debug            bool // Enable keyring debug messages.

	password   *string
	authToken  string
	privateKey []byte
}

func NewConfig(flags Flag) (*Config, error) {
	c := Config{
		Flags:     flags,
		Curve:     CurveFlag{Curve: protocol.CurveX25519},
		UserAgent: "attestation-provision",
		Backend: keyring.Config{
			ServiceName:              keyringServiceName,
			KeychainTrustApplication: true,
			KeyCtlScope:              "user",
		},
	}
	c.BackendType = backendType{&c}
	c.Backend.KeychainPasswordFunc = c.getPassword
	c.Backend.FilePasswordFunc = c.getPassword

	return &c, nil
}

func (c *Config) RegisterCommandLineFlags() {
	if c.Flags.isSet(FlagCurve) {
		flag.Var(&c.Curve, "curve", "ECDH `curve` (P256|X25519). Defaults to $PROVISION_CURVE, then X25519.")
	}
	if c.Flags.isSet(FlagPrivateKey) {
		flag.StringVar(&c.KeyringKeyName, "key-name", "", "System keyring `name` for the device private key. Defaults to $PROVISION_KEY_NAME.")
		flag.StringVar(&c.KeyFilename, "key-file", "", "A `file` containing the device private key. Defaults to $PROVISION_KEY_FILE.")
	}
	if c.Flags.isSet(FlagCA) {
		flag.StringVar(&c.CAURL, "ca", "", "CA provisioning endpoint `URL`. Defaults to $PROVISION_CA_URL.")
		flag.StringVar(&c.KeyringTokenName, "token-name", "", "System keyring `name` for the CA bearer token. Defaults to $PROVISION_TOKEN_NAME.")
		flag.StringVar(&c.TokenFilename, "token-file", "", "`File` containing a CA bearer token. Defaults to $PROVISION_TOKEN_FILE.")
	}
	if c.Flags.isSet(FlagCA) || c.Flags.isSet(FlagPrivateKey) {
		var names []string
		for _, name := range keyring.AvailableBackends() {
			names = append(names, string(name))
		}
		sort.Strings(names)
		flag.Var(&c.BackendType, "keyring-type", "Keyring `type` ("+strings.Join(names, "|")+"). Defaults to $PROVISION_KEYRING_TYPE.")
		flag.StringVar(&c.Backend.FileDir, "keyring-file-dir", keyringDirectory, "keyring `directory` for file-backed keyring types")
		flag.BoolVar(&c.Debug, "keyring-debug", false, "Enable keyring debug logging")
	}
}

// ReadFromEnvironment populates c using environment variables. Values that
// are already populated are not overwritten.
//
// Call ReadFromEnvironment after flag.Parse() so the environment cannot
// override explicit command-line parameters.
func (c *Config) ReadFromEnvironment() {
	if c.Flags.isSet(FlagCurve) && !c.Curve.explicit {
		if name := os.Getenv(EnvCurve); name != "" {
			if err := c.Curve.Set(name); err == nil {
				log.Debug("Set curve to '%s'", &c.Curve)
			}
		}
	}
	if c.Flags.isSet(FlagPrivateKey) {
		if c.KeyringKeyName == "" && c.KeyFilename == "" {
			c.KeyringKeyName = os.Getenv(EnvKeyName)
			log.Debug("Set key name to '%s'", c.KeyringKeyName)

			c.KeyFilename = os.Getenv(EnvKeyFile)
			log.Debug("Set key file to '%s'", c.KeyFilename)
		}
	}
	if c.Flags.isSet(FlagCA) {
		if c.CAURL == "" {
			c.CAURL = os.Getenv(EnvCAURL)
			log.Debug("Set CA URL to '%s'", c.CAURL)
		}
		if c.KeyringTokenName == "" && c.TokenFilename == "" {
			c.KeyringTokenName = os.Getenv(EnvTokenName)
			log.Debug("Set token name to '%s'", c.KeyringTokenName)

			c.TokenFilename = os.Getenv(EnvTokenFile)
			log.Debug("Set token file to '%s'", c.TokenFilename)
		}
	}
	if c.Flags.isSet(FlagCA) || c.Flags.isSet(FlagPrivateKey) {
		if c.BackendType.String() == string(keyring.InvalidBackend) {
			if err := c.BackendType.Set(os.Getenv(EnvKeyringType)); err == nil {
				log.Debug("Set keyring type to '%s'", c.BackendType)
			}
		}
		if c.password == nil {
			password := os.Getenv(EnvKeyringPass)
			c.password = &password
		}
		if c.Backend.FileDir == "" {
			c.Backend.FileDir = os.Getenv(EnvKeyringPath)
			log.Debug("Set keyring file path to '%s'", c.Backend.FileDir)
		}
		if !c.Debug {
			_, c.Debug = os.LookupEnv(EnvKeyringDebug)
		}
	}
}

// PrivateKey loads the device private key from the location specified in c,
// preferring a key file over the keyring. The key is cached after it is
// first loaded.
func (c *Config) PrivateKey() ([]byte, error) {
	if c.privateKey != nil {
		return c.privateKey, nil
	}
	if !c.Flags.isSet(FlagPrivateKey) {
		return nil, ErrNoKeySpecified
	}
	if c.KeyFilename == "" && c.KeyringKeyName == "" {
		return nil, ErrNoKeySpecified
	}
	var key []byte
	var err error
	if c.KeyFilename != "" {
		key, err = protocol.LoadPrivateKey(c.KeyFilename, c.Curve.Curve)
	}
	if key == nil && c.KeyringKeyName != "" {
		key, err = c.LoadKeyFromKeyring()
	}
	c.privateKey = key
	return key, err
}

// SavePrivateKey writes a key pair's private half to the system keyring or a
// file, depending on what options are configured. The method prefers the
// keyring if both options are available.
func (c *Config) SavePrivateKey(pair *protocol.KeyPair) error {
	if c.KeyringKeyName != "" {
		return c.saveKeyToKeyring(pair.Private)
	}
	if c.KeyFilename != "" {
		_, err := protocol.SavePrivateKey(pair, c.KeyFilename)
		return err
	}
	return ErrNoKeySpecified
}

func (c *Config) token() (string, error) {
	if c.authToken != "" {
		return c.authToken, nil
	}
	if c.TokenFilename == "" && c.KeyringTokenName == "" {
		return "", ErrNoTokenSpecified
	}
	if c.TokenFilename != "" {
		token, err := os.ReadFile(c.TokenFilename)
		if err == nil {
			c.authToken = strings.TrimSpace(string(token))
			return c.authToken, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		// Fall through to the system keyring.
	}
	var err error
	c.authToken, err = c.LoadTokenFromKeyring()
	return c.authToken, err
}

// Connect opens an HTTP connection to the configured CA. The bearer token is
// optional; without one the connection is unauthenticated.
func (c *Config) Connect() (*inet.Connection, error) {
	if !c.Flags.isSet(FlagCA) || c.CAURL == "" {
		return nil, ErrNoCASpecified
	}
	token, err := c.token()
	if err != nil && !errors.Is(err, ErrNoTokenSpecified) {
		return nil, err
	}
	if token != "" && !inet.ValidBearerToken(token) {
		log.Warning("Configured bearer token is expired or malformed")
	}
	return inet.NewConnection(c.CAURL, token, c.UserAgent), nil
}
