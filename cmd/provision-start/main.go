// CA-side utility that stages an Operation Start message for a device.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/attestation-tools/provision-command/pkg/cli"
	"github.com/attestation-tools/provision-command/pkg/protocol"
)

var operationsByName = map[string]protocol.Operation{
	"issue":        protocol.OperationIssue,
	"issue-som":    protocol.OperationIssueSOMKey,
	"issue-somkey": protocol.OperationIssueSOMKey,
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: %s [OPTION...]\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(out, `
Builds the Operation Start message a CA stages on a device to open a provisioning exchange. The
CA's public key is read from -ca-key, which accepts PEM key files, raw curve points, or hex.`)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "OPTIONS:")
	flag.PrintDefaults()
}

func main() {
	var (
		caKeyFile string
		opName    string
		outFile   string
		curve     = cli.CurveFlag{Curve: protocol.CurveX25519}
	)
	status := 1
	defer func() {
		os.Exit(status)
	}()

	flag.Usage = usage
	flag.StringVar(&caKeyFile, "ca-key", "", "`File` containing the CA public key")
	flag.StringVar(&opName, "operation", "issue", "Provisioning `operation`: issue or issue-som")
	flag.StringVar(&outFile, "out", "operation_start.bin", "Write the message to `file` ('-' for stdout)")
	flag.Var(&curve, "curve", "ECDH `curve` (P256|X25519)")
	flag.Parse()

	op, ok := operationsByName[strings.ToLower(opName)]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown operation %q.\n", opName)
		usage()
		return
	}
	if caKeyFile == "" {
		fmt.Fprintln(os.Stderr, "Must provide -ca-key.")
		usage()
		return
	}

	caPublic, err := protocol.LoadCAPublicKey(caKeyFile, curve.Curve)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load CA public key: %s\n", err)
		return
	}
	msg, err := protocol.EncodeOperationStart(curve.Curve, op, caPublic)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to build message: %s\n", err)
		return
	}

	if outFile == "-" {
		if _, err := os.Stdout.Write(msg); err != nil {
			fmt.Fprintf(os.Stderr, "Unable to write message: %s\n", err)
			return
		}
	} else if err := os.WriteFile(outFile, msg, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to write message: %s\n", err)
		return
	}
	status = 0
}
