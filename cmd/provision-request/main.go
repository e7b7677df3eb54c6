// Utility that runs the device side of a provisioning exchange: it reads an
// Operation Start message, builds the encrypted CA request, and either saves
// the request to a file or delivers it to the CA and saves the issued
// payload.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/attestation-tools/provision-command/internal/log"
	"github.com/attestation-tools/provision-command/pkg/cli"
	"github.com/attestation-tools/provision-command/pkg/connector"
	"github.com/attestation-tools/provision-command/pkg/protocol"
)

const usageText = `
Runs the device side of one provisioning exchange.

The Operation Start message staged by the CA is read from -start. The product (or SOM) identifier
given with -id is hashed and sent in the encrypted request. With -ca (or $PROVISION_CA_URL) the
request is delivered over HTTPS and the decrypted response payload is written to -response-out;
otherwise the request envelope is written to -out for out-of-band delivery.

Third-party authentication material produced out of band can be attached with -auth-cert and
-auth-sig.`

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: %s [OPTION...]\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(out, usageText)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "OPTIONS:")
	flag.PrintDefaults()
}

func writeOutput(filename string, data []byte) error {
	if filename == "" || filename == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// deliver sends the request, retrying while the connector reports the
// failure as temporary.
func deliver(ctx context.Context, conn connector.Connector, request []byte) ([]byte, error) {
	for {
		response, err := conn.RoundTrip(ctx, request)
		if err == nil {
			return response, nil
		}
		if !connector.Temporary(err) {
			return nil, err
		}
		log.Warning("CA unavailable, retrying: %s", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(conn.RetryInterval()):
		}
	}
}

func main() {
	var (
		startFile    string
		id           string
		outFile      string
		responseFile string
		authCertFile string
		authSigFile  string
		logLevelName string
		timeout      time.Duration
	)
	status := 1
	defer func() {
		os.Exit(status)
	}()

	config, err := cli.NewConfig(cli.FlagCA)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load credential configuration: %s\n", err)
		return
	}
	config.RegisterCommandLineFlags()
	flag.Usage = usage
	flag.StringVar(&startFile, "start", "", "`File` containing the CA's Operation Start message")
	flag.StringVar(&id, "id", "", "Product or SOM `identifier` to request a key for")
	flag.StringVar(&outFile, "out", "", "Write the request envelope to `file` instead of sending it ('-' for stdout)")
	flag.StringVar(&responseFile, "response-out", "", "Write the issued payload to `file` ('-' for stdout)")
	flag.StringVar(&authCertFile, "auth-cert", "", "`File` containing an authentication certificate")
	flag.StringVar(&authSigFile, "auth-sig", "", "`File` containing a signature over the session challenge")
	flag.StringVar(&logLevelName, "log-level", "error", "Log `level`: none, error, warning, info, or debug")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for the exchange")
	flag.Parse()
	config.ReadFromEnvironment()

	logLevel, err := log.ParseLevel(logLevelName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return
	}
	log.SetLevel(logLevel)

	if startFile == "" || id == "" {
		fmt.Fprintln(os.Stderr, "Must provide -start and -id.")
		usage()
		return
	}

	startMsg, err := os.ReadFile(startFile)
	if err != nil {
		log.Error("Unable to read Operation Start message: %s", err)
		return
	}
	start, err := protocol.DecodeOperationStart(startMsg)
	if err != nil {
		log.Error("Invalid Operation Start message: %s", err)
		return
	}
	log.Info("CA requested %s over %s", start.Operation, start.Curve)

	var auth protocol.AuthProvider
	if authSigFile != "" {
		cert, err := os.ReadFile(authCertFile)
		if err != nil {
			log.Error("Unable to read authentication certificate: %s", err)
			return
		}
		sig, err := os.ReadFile(authSigFile)
		if err != nil {
			log.Error("Unable to read authentication signature: %s", err)
			return
		}
		auth = protocol.StaticAuth(&protocol.AuthAttachment{Certificate: cert, Signature: sig})
	}

	suite := protocol.NewSuite()
	exchange, err := protocol.NewExchange(suite, start)
	if err != nil {
		log.Error("Unable to open exchange: %s", err)
		return
	}
	request, err := exchange.BuildRequest(suite.SHA256([]byte(id)), auth)
	if err != nil {
		log.Error("Unable to build request: %s", err)
		return
	}

	if config.CAURL == "" {
		if err := writeOutput(outFile, request); err != nil {
			log.Error("Unable to write request envelope: %s", err)
			return
		}
		status = 0
		return
	}

	conn, err := config.Connect()
	if err != nil {
		log.Error("Unable to connect to CA: %s", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	response, err := deliver(ctx, conn, request)
	if err != nil {
		log.Error("Exchange failed: %s", err)
		return
	}
	payload, err := exchange.OpenResponse(response)
	if err != nil {
		log.Error("Unable to decrypt CA response: %s", err)
		return
	}
	log.Info("Received %d-byte issued payload", len(payload))
	if err := writeOutput(responseFile, payload); err != nil {
		log.Error("Unable to write issued payload: %s", err)
		return
	}
	status = 0
}
