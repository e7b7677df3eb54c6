// Utility for generating, saving, and migrating device ECDH keys

package main

import (
	"encoding/hex"
	"encoding/pem"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/attestation-tools/provision-command/internal/log"
	"github.com/attestation-tools/provision-command/pkg/cli"
	"github.com/attestation-tools/provision-command/pkg/protocol"
)

func writeErr(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n")
}

const usageText = `
Creates or deletes a device ECDH private key and saves it in the system keyring, or migrates a key
from a plaintext file into the system keyring.

The program writes the public key to stdout in the hex-encoded 33-byte wire form (except when
deleting a key). When using the create option, the program will not overwrite an existing key
unless invoked with -f.

The type of keyring and name of the key inside that keyring are controlled by the command-line
options below, or through the corresponding environment variables.`

func cliUsage() {
	usage(flag.CommandLine.Output())
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s [OPTION...] create|delete|export|migrate\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(w, usageText)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "OPTIONS:")
	flag.PrintDefaults()
}

// keyPair rebuilds the full key pair from a stored private key blob.
func keyPair(private []byte, curve protocol.Curve) (*protocol.KeyPair, error) {
	return protocol.NewSuite(protocol.WithTestKey(private)).GenerateKeyPair(curve)
}

func printPublicKey(pair *protocol.KeyPair) {
	fmt.Println(hex.EncodeToString(pair.Public))
}

func printPrivateKey(pair *protocol.KeyPair) error {
	switch pair.Curve {
	case protocol.CurveX25519:
		fmt.Println(hex.EncodeToString(pair.Private))
	case protocol.CurveP256:
		if err := pem.Encode(os.Stdout, &pem.Block{Type: "EC PRIVATE KEY", Bytes: pair.Private}); err != nil {
			return err
		}
	default:
		return fmt.Errorf("key is not exportable")
	}
	return nil
}

func main() {
	var (
		overwrite bool
		pair      *protocol.KeyPair
	)
	status := 1
	defer func() {
		os.Exit(status)
	}()

	config, err := cli.NewConfig(cli.FlagPrivateKey | cli.FlagCurve)
	if err != nil {
		writeErr("Failed to load credential configuration: %s", err)
		return
	}
	config.RegisterCommandLineFlags()
	flag.Usage = cliUsage
	flag.BoolVar(&overwrite, "f", false, "Overwrite existing key if it exists")
	flag.Parse()
	if config.Debug {
		log.SetLevel(log.LevelDebug)
	}
	config.ReadFromEnvironment()
	curve := config.Curve.Curve

	if flag.NArg() != 1 {
		usage(os.Stderr)
		return
	}

	switch flag.Arg(0) {
	case "migrate":
		if config.KeyFilename == "" || config.KeyringKeyName == "" {
			writeErr("Must provide path of existing key (-key-file) and name of new key (-key-name)")
			return
		}
		private, err := protocol.LoadPrivateKey(config.KeyFilename, curve)
		if err != nil {
			writeErr("Unable to read key: %s", err)
			return
		}
		if pair, err = keyPair(private, curve); err != nil {
			writeErr("Unable to parse key: %s", err)
			return
		}
		config.KeyFilename = "" // Prevent key from being re-written to a file
	case "delete":
		if err := config.DeletePrivateKey(); err != nil {
			writeErr("Failed to delete key: %s", err)
		} else {
			status = 0
		}
		return
	case "create":
		if !overwrite {
			// Print key and exit if it already exists
			if private, err := config.PrivateKey(); err == nil {
				if pair, err = keyPair(private, curve); err != nil {
					writeErr("Failed to parse key. The keyring may be corrupted. Run with -f to generate a new key.")
					return
				}
				printPublicKey(pair)
				status = 0
				return
			}
		}
		pair, err = protocol.NewSuite().GenerateKeyPair(curve)
		if err != nil {
			writeErr("Failed to generate private key: %s", err)
			return
		}
	case "export":
		private, err := config.PrivateKey()
		if err == nil {
			if pair, err = keyPair(private, curve); err == nil {
				err = printPrivateKey(pair)
			}
		}
		if err != nil {
			writeErr("Failed to export private key: %s", err)
			return
		}
		status = 0
		return
	default:
		writeErr("Unrecognized command-line argument.")
		writeErr("")
		usage(os.Stderr)
		return
	}

	if err = config.SavePrivateKey(pair); err != nil {
		writeErr("Failed to save key: %s", err)
		return
	}

	printPublicKey(pair)
	status = 0
}
