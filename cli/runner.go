package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/YasiruR/walletkit/config"
	"github.com/YasiruR/walletkit/domain"
	"github.com/YasiruR/walletkit/domain/container"
	"github.com/YasiruR/walletkit/domain/models"
	"github.com/spf13/pflag"
)

const usage = `usage: walletkit <command> [flags]

commands:
  jwe      pack an instance (--file) and print the envelope with its content link
  thin     pack a thin payload binding instances (--ids) to a user
  submit   pack an instance (--file) or instances (--ids) and submit the envelope to the gateway
  verify   verify a callback body (--body or --file) against a signature (--signature)
  serve    receive callback notifications and serve metrics
  get      fetch a model or an instance (--type --kind --id)
  list     list models or instances (--type --kind [--model] [--page-size])
  add      create a model or an instance (--type --kind --file)
  update   fully update a model or an instance (--type --kind --id --file)
  patch    partially update a model or an instance (--type --kind --id --file)
  message  add messages to a model or an instance (--type --kind --id --file)
  offers   update the linked offers of an instance (--type --kind --id --file)
`

var commands = map[string]bool{
	`jwe`: true, `thin`: true, `submit`: true, `verify`: true, `serve`: true, `get`: true,
	`list`: true, `add`: true, `update`: true, `patch`: true, `message`: true, `offers`: true,
}

// Options holds the command specific flags
type Options struct {
	Command   string
	File      string
	IDs       []string
	Body      string
	Signature string
	PassType  string
	Kind      string
	ID        string
	ModelID   string
	PageSize  int
}

func ParseArgs(argv []string) (*container.Args, Options, error) {
	fs := pflag.NewFlagSet(`walletkit`, pflag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage+"\nflags:\n"+fs.FlagUsages()) }

	args := &container.Args{}
	fs.StringVar(&args.ConfigFile, `config`, ``, `path of the yaml config file`)
	fs.BoolVarP(&args.Verbose, `verbose`, `v`, false, `enable logging`)
	fs.BoolVar(&args.Mocker, `mock`, false, `run against an in-process mock gateway`)
	fs.IntVar(&args.MockPort, `mock-port`, 9099, `port of the mock gateway`)

	var opts Options
	fs.StringVarP(&opts.File, `file`, `f`, ``, `json file used as payload or request body`)
	fs.StringSliceVar(&opts.IDs, `ids`, nil, `comma separated instance ids`)
	fs.StringVar(&opts.Body, `body`, ``, `callback body`)
	fs.StringVar(&opts.Signature, `signature`, ``, `callback signature (base64)`)
	fs.StringVar(&opts.PassType, `type`, domain.PassEventTicket, `pass type, eg: eventticket, flight, loyalty, offer, transit, giftcard, key_stdcar`)
	fs.StringVar(&opts.Kind, `kind`, domain.KindInstance, `model or instance`)
	fs.StringVar(&opts.ID, `id`, ``, `passStyleIdentifier of a model or serialNumber of an instance`)
	fs.StringVar(&opts.ModelID, `model`, ``, `model id used to filter instances`)
	fs.IntVar(&opts.PageSize, `page-size`, 0, `page size of list queries (0 queries once)`)

	if err := fs.Parse(argv); err != nil {
		return nil, Options{}, err
	}

	if fs.NArg() == 0 || !commands[fs.Arg(0)] {
		fs.Usage()
		return nil, Options{}, fmt.Errorf(`a valid command is required`)
	}
	opts.Command = fs.Arg(0)

	if opts.Kind != domain.KindModel && opts.Kind != domain.KindInstance {
		return nil, Options{}, fmt.Errorf(`invalid kind (%s)`, opts.Kind)
	}

	return args, opts, nil
}

// RequiredKeys returns the config values a command cannot run without
func RequiredKeys(cmd string) []string {
	switch cmd {
	case `jwe`, `thin`:
		return []string{config.KeySignPrivateKey, config.KeyAppID, config.KeyWalletWebsiteBaseURL}
	case `submit`:
		return []string{config.KeySignPrivateKey, config.KeyAppID, config.KeyAppSecret, config.KeyTokenURL, config.KeyWalletServerBaseURL}
	case `verify`, `serve`:
		return []string{config.KeyCallbackPublicKey}
	default:
		return []string{config.KeyAppID, config.KeyAppSecret, config.KeyTokenURL, config.KeyWalletServerBaseURL}
	}
}

type runner struct {
	c    *container.Container
	opts Options
	out  io.Writer
}

func Run(ctx context.Context, c *container.Container, opts Options, out io.Writer) error {
	r := runner{c: c, opts: opts, out: out}
	switch opts.Command {
	case `jwe`:
		return r.packInstance()
	case `thin`:
		return r.packThin()
	case `submit`:
		return r.submit(ctx)
	case `verify`:
		return r.verify()
	case `serve`:
		return r.serve(ctx)
	case `get`:
		return r.get(ctx)
	case `list`:
		return r.list(ctx)
	default:
		return r.write(ctx)
	}
}

func (r *runner) segment() string {
	return r.opts.PassType + `/` + r.opts.Kind
}

func (r *runner) packInstance() error {
	env, err := r.instanceEnvelope()
	if err != nil {
		return err
	}

	r.printEnvelope(env)
	return nil
}

func (r *runner) instanceEnvelope() (string, error) {
	data, err := r.readFile()
	if err != nil {
		return ``, err
	}

	var obj models.HwWalletObject
	if err = json.Unmarshal(data, &obj); err != nil {
		return ``, fmt.Errorf(`file is not a valid instance - %v`, err)
	}
	if err = r.c.Validator.ValidateInstance(obj); err != nil {
		return ``, err
	}

	payload, err := r.c.Linker.InstancePayload(data)
	if err != nil {
		return ``, err
	}

	return r.c.Packer.Pack(r.c.Cfg.JWE.SignPrivateKey, payload)
}

func (r *runner) packThin() error {
	env, err := r.thinEnvelope()
	if err != nil {
		return err
	}

	r.printEnvelope(env)
	return nil
}

func (r *runner) thinEnvelope() (string, error) {
	payload, err := r.c.Linker.ThinPayload(r.opts.IDs)
	if err != nil {
		return ``, err
	}

	return r.c.Packer.Pack(r.c.Cfg.JWE.SignPrivateKey, payload)
}

func (r *runner) printEnvelope(env string) {
	fmt.Fprintf(r.out, "-> Envelope: %s\n", env)
	fmt.Fprintf(r.out, "-> Content link: %s\n", r.c.Linker.ContentLink(env))
}

func (r *runner) submit(ctx context.Context) error {
	var env string
	var err error
	if len(r.opts.IDs) > 0 {
		env, err = r.thinEnvelope()
	} else {
		env, err = r.instanceEnvelope()
	}
	if err != nil {
		return err
	}

	res, err := r.c.Client.SubmitJwe(ctx, domain.InstanceSegment(r.opts.PassType), env)
	if err != nil {
		return fmt.Errorf(`submitting envelope failed - %w`, err)
	}

	fmt.Fprintf(r.out, "-> Envelope accepted: %s\n", res)
	return nil
}

func (r *runner) verify() error {
	body := []byte(r.opts.Body)
	if r.opts.File != `` {
		var err error
		if body, err = r.readFile(); err != nil {
			return err
		}
	}

	ok, err := r.c.Verifier.Verify(body, r.opts.Signature)
	if err != nil {
		return fmt.Errorf(`verifying callback failed - %w`, err)
	}

	if !ok {
		fmt.Fprintln(r.out, "-> Signature is invalid")
		return nil
	}

	notif, err := r.c.Verifier.Decode(body)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "-> Signature is valid (event: %s, pass: %s)\n", notif.EventType, notif.PassNumber)
	return nil
}

func (r *runner) serve(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() { errChan <- r.c.Server.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		select {
		case n := <-r.c.NotifChan:
			fmt.Fprintf(r.out, "-> Notification received: %s %s (pass: %s)\n", n.EventType, n.EventID, n.PassNumber)
		case err := <-errChan:
			return err
		case <-sigChan:
			return r.c.Stop()
		case <-ctx.Done():
			return r.c.Stop()
		}
	}
}

func (r *runner) get(ctx context.Context) error {
	obj, err := r.c.Client.Get(ctx, r.segment(), r.opts.ID)
	if err != nil {
		return err
	}
	return r.printJSON(obj)
}

func (r *runner) list(ctx context.Context) error {
	var objs []models.HwWalletObject
	var err error
	if r.opts.Kind == domain.KindModel {
		objs, err = r.c.Client.ListModels(ctx, r.segment(), r.opts.PageSize)
	} else {
		objs, err = r.c.Client.ListInstances(ctx, r.segment(), r.opts.ModelID, r.opts.PageSize)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "-> Total count: %d\n", len(objs))
	return r.printJSON(objs)
}

// write runs the commands sending a body read from --file
func (r *runner) write(ctx context.Context) error {
	data, err := r.readFile()
	if err != nil {
		return err
	}

	var res string
	switch r.opts.Command {
	case `add`:
		if err = r.validate(data); err != nil {
			return err
		}
		res, err = r.c.Client.Post(ctx, r.segment(), data)
	case `update`:
		if err = r.validate(data); err != nil {
			return err
		}
		res, err = r.c.Client.FullUpdate(ctx, r.segment(), r.opts.ID, data)
	case `patch`:
		res, err = r.c.Client.PartialUpdate(ctx, r.segment(), r.opts.ID, data)
	case `message`:
		res, err = r.c.Client.AddMessage(ctx, r.segment(), r.opts.ID, data)
	case `offers`:
		res, err = r.c.Client.UpdateLinkedOffers(ctx, r.segment(), r.opts.ID, data)
	default:
		return fmt.Errorf(`unknown command (%s)`, r.opts.Command)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "-> Response: %s\n", res)
	return nil
}

func (r *runner) validate(data []byte) error {
	var obj models.HwWalletObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf(`file is not a valid wallet object - %v`, err)
	}

	if r.opts.Kind == domain.KindModel {
		return r.c.Validator.ValidateModel(obj)
	}
	return r.c.Validator.ValidateInstance(obj)
}

func (r *runner) readFile() ([]byte, error) {
	if strings.TrimSpace(r.opts.File) == `` {
		return nil, fmt.Errorf(`--file is required for %s`, r.opts.Command)
	}

	data, err := os.ReadFile(r.opts.File)
	if err != nil {
		return nil, fmt.Errorf(`reading %s failed - %v`, r.opts.File, err)
	}
	return data, nil
}

func (r *runner) printJSON(v interface{}) error {
	byts, err := json.MarshalIndent(v, ``, `  `)
	if err != nil {
		return fmt.Errorf(`marshalling output failed - %v`, err)
	}

	fmt.Fprintln(r.out, string(byts))
	return nil
}
