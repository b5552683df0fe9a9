// Package cli implements the command-line application driving contract
// invocations and token creations, against a local sandbox by default or
// against an RPC server when one is given.
package cli

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"strings"

	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/stela/client"
	"go.dedis.ch/stela/contract"
	"go.dedis.ch/stela/crypto"
	"go.dedis.ch/stela/execution"
	"go.dedis.ch/stela/execution/native"
	"go.dedis.ch/stela/invoke"
	"go.dedis.ch/stela/token"
	"go.dedis.ch/stela/xdr"
	"golang.org/x/xerrors"
)

// defaultLedgerFile is the location of the sandbox snapshot.
const defaultLedgerFile = ".stela/ledger.db"

// App is the command-line application.
type App struct {
	inner *urfave.App

	// raw keeps the arguments of the run, so the invoke command can recover
	// the order of the interleaved argument flags.
	raw []string
}

// New returns the application with the invoke and token commands set up.
func New() *App {
	app := &App{}

	app.inner = &urfave.App{
		Name:  "stela",
		Usage: "invoke smart contract functions and create tokens",
		Commands: []*urfave.Command{
			{
				Name:   "invoke",
				Usage:  "invoke a function of a deployed contract",
				Flags:  invokeFlags(),
				Action: app.invokeAction,
			},
			{
				Name:  "token",
				Usage: "operate on the built-in token contract",
				Subcommands: []*urfave.Command{
					{
						Name:   "create",
						Usage:  "deploy and initialize a token instance",
						Flags:  tokenCreateFlags(),
						Action: app.tokenCreateAction,
					},
				},
			},
		},
	}

	return app
}

// SetOutput redirects the outputs of the application.
func (a *App) SetOutput(out, err io.Writer) {
	a.inner.Writer = out
	a.inner.ErrWriter = err
}

// Run runs the application with the arguments.
func (a *App) Run(args []string) error {
	a.raw = args

	return a.inner.Run(args)
}

func invokeFlags() []urfave.Flag {
	return append([]urfave.Flag{
		&urfave.StringFlag{
			Name:     "id",
			Usage:    "contract identifier in hexadecimal",
			Required: true,
		},
		&urfave.StringFlag{
			Name:     "fn",
			Usage:    "name of the function to invoke",
			Required: true,
		},
		&urfave.StringSliceFlag{
			Name:  "arg",
			Usage: "argument to pass to the function",
		},
		&urfave.StringSliceFlag{
			Name:  "arg-xdr",
			Usage: "argument to pass to the function, as base64-encoded XDR",
		},
		&urfave.StringFlag{
			Name:  "wasm",
			Usage: "file containing the contract bytecode",
		},
		&urfave.BoolFlag{
			Name:  "cost",
			Usage: "output the execution cost",
		},
		&urfave.StringFlag{
			Name:  "account",
			Usage: "account the sandbox invocation runs on behalf of",
		},
	}, commonFlags()...)
}

func tokenCreateFlags() []urfave.Flag {
	return append([]urfave.Flag{
		&urfave.StringFlag{
			Name:  "admin",
			Usage: "administrator account of the token",
		},
		&urfave.StringFlag{
			Name:     "name",
			Usage:    "long name of the token",
			Required: true,
		},
		&urfave.StringFlag{
			Name:     "symbol",
			Usage:    "short asset code of the token",
			Required: true,
		},
		&urfave.UintFlag{
			Name:  "decimal",
			Usage: "number of decimal places",
			Value: 7,
		},
		&urfave.StringFlag{
			Name:  "salt",
			Usage: "32-byte salt of the identifier derivation, in hexadecimal",
		},
	}, commonFlags()...)
}

func commonFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.StringFlag{
			Name:  "ledger-file",
			Usage: "file persisting the sandbox ledger",
			Value: defaultLedgerFile,
		},
		&urfave.StringFlag{
			Name:  "rpc-url",
			Usage: "RPC server endpoint, instead of the sandbox",
		},
		&urfave.StringFlag{
			Name:    "secret-key",
			Usage:   "secret key signing the transactions sent to the RPC server",
			EnvVars: []string{"STELA_SECRET_KEY"},
		},
		&urfave.StringFlag{
			Name:  "network-passphrase",
			Usage: "passphrase of the network the RPC server belongs to",
		},
		&urfave.UintFlag{
			Name:  "fee",
			Usage: "fee of the transactions sent to the RPC server",
		},
	}
}

func (a *App) invokeAction(c *urfave.Context) error {
	id, err := contract.ParseID(c.String("id"))
	if err != nil {
		return err
	}

	call := invoke.Call{
		Contract: id,
		Function: c.String("fn"),
		Args:     parseArguments(a.raw),
	}

	if path := c.String("wasm"); path != "" {
		call.Bytecode, err = ioutil.ReadFile(path)
		if err != nil {
			return xerrors.Errorf("couldn't read contract file: %v", err)
		}
	}

	if c.String("rpc-url") != "" {
		return a.invokeRemote(c, call)
	}

	return a.invokeSandbox(c, call)
}

func (a *App) invokeSandbox(c *urfave.Context, call invoke.Call) error {
	if address := c.String("account"); address != "" {
		source, err := crypto.DecodeAddress(address)
		if err != nil {
			return err
		}

		call.Source = xdr.AccountID(source)
	}

	sb := invoke.Sandbox{
		Path:  c.String("ledger-file"),
		Hosts: native.NewFactory(),
	}

	outcome, err := sb.Invoke(call)
	if err != nil {
		return err
	}

	res, err := contract.FormatValue(outcome.Value)
	if err != nil {
		return xerrors.Errorf("cannot print result: %v", err)
	}

	fmt.Fprintln(c.App.Writer, res)

	for i, event := range outcome.Events {
		fmt.Fprintf(c.App.ErrWriter, "#%d: %s\n", i, formatEvent(event))
	}

	if c.Bool("cost") {
		printCost(c.App.ErrWriter, outcome.Budget.CPUInstructions,
			outcome.Budget.MemoryBytes)
	}

	return nil
}

func (a *App) invokeRemote(c *urfave.Context, call invoke.Call) error {
	remote, err := makeRemote(c)
	if err != nil {
		return err
	}

	outcome, err := invoke.Remote{
		Endpoint:   remote.endpoint,
		KeyPair:    remote.keyPair,
		Passphrase: remote.passphrase,
		Fee:        remote.fee,
	}.Invoke(context.Background(), call)
	if err != nil {
		return err
	}

	if c.Bool("cost") {
		printCost(c.App.ErrWriter, outcome.Budget.CPUInstructions,
			outcome.Budget.MemoryBytes)
	}

	return nil
}

func (a *App) tokenCreateAction(c *urfave.Context) error {
	creation := token.Creation{
		Name:     c.String("name"),
		Symbol:   c.String("symbol"),
		Decimals: uint32(c.Uint("decimal")),
	}

	if s := c.String("salt"); s != "" {
		salt, err := contract.ParseSalt(s)
		if err != nil {
			return err
		}

		creation.Salt = salt
	}

	if address := c.String("admin"); address != "" {
		admin, err := crypto.DecodeAddress(address)
		if err != nil {
			return err
		}

		id := xdr.AccountID(admin)
		creation.Admin = &id
	}

	var id xdr.ContractID
	var err error

	if c.String("rpc-url") != "" {
		remote, rerr := makeRemote(c)
		if rerr != nil {
			return rerr
		}

		id, err = token.Remote{
			Endpoint:   remote.endpoint,
			KeyPair:    remote.keyPair,
			Passphrase: remote.passphrase,
			Fee:        remote.fee,
		}.Create(context.Background(), creation)
	} else {
		id, err = token.Sandbox{
			Path:  c.String("ledger-file"),
			Hosts: native.NewFactory(),
		}.Create(creation)
	}

	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "%x\n", id[:])

	return nil
}

// remoteConfig gathers the settings shared by the commands talking to an RPC
// server.
type remoteConfig struct {
	endpoint   invoke.Endpoint
	keyPair    *crypto.KeyPair
	passphrase string
	fee        uint32
}

func makeRemote(c *urfave.Context) (remoteConfig, error) {
	secret := c.String("secret-key")
	if secret == "" {
		return remoteConfig{}, xerrors.New("a secret key is required with an rpc server")
	}

	kp, err := crypto.KeyPairFromSecret(secret)
	if err != nil {
		return remoteConfig{}, err
	}

	passphrase := c.String("network-passphrase")
	if passphrase == "" {
		return remoteConfig{}, xerrors.New("a network passphrase is required with an rpc server")
	}

	return remoteConfig{
		endpoint:   client.New(c.String("rpc-url")),
		keyPair:    kp,
		passphrase: passphrase,
		fee:        uint32(c.Uint("fee")),
	}, nil
}

// parseArguments scans the raw command line for the two argument families and
// assigns each argument the position it was written at, so typed and
// xdr-encoded arguments can be interleaved freely.
func parseArguments(raw []string) []contract.Argument {
	args := []contract.Argument{}
	position := 0

	for i := 0; i < len(raw); i++ {
		switch {
		case raw[i] == "--arg" && i+1 < len(raw):
			args = append(args, contract.StringArg(position, raw[i+1]))
			position++
			i++
		case strings.HasPrefix(raw[i], "--arg="):
			args = append(args, contract.StringArg(position, raw[i][len("--arg="):]))
			position++
		case raw[i] == "--arg-xdr" && i+1 < len(raw):
			args = append(args, contract.XDRArg(position, raw[i+1]))
			position++
			i++
		case strings.HasPrefix(raw[i], "--arg-xdr="):
			args = append(args, contract.XDRArg(position, raw[i][len("--arg-xdr="):]))
			position++
		}
	}

	return args
}

// formatEvent renders a diagnostic event on a single line, falling back to
// the raw structure for values that have no text form.
func formatEvent(event execution.Event) string {
	parts := make([]string, len(event.Topics))
	for i, topic := range event.Topics {
		parts[i] = formatEventValue(topic)
	}

	return fmt.Sprintf("contract=%x topics=[%s] data=%s",
		event.Contract[:], strings.Join(parts, ","), formatEventValue(event.Data))
}

func formatEventValue(v xdr.Value) string {
	s, err := contract.FormatValue(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}

	return s
}

func printCost(w io.Writer, cpu, mem uint64) {
	fmt.Fprintf(w, "Cpu Insns: %d\n", cpu)
	fmt.Fprintf(w, "Mem Bytes: %d\n", mem)
}
