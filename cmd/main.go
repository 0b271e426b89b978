package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/yungbote/langqc-backend/internal/app"
	"github.com/yungbote/langqc-backend/internal/http/response"
	"github.com/yungbote/langqc-backend/internal/identity"
	"github.com/yungbote/langqc-backend/internal/pkg/ctxutil"
	"github.com/yungbote/langqc-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/langqc-backend/internal/pkg/errors"
	"github.com/yungbote/langqc-backend/internal/services"
)

const usage = `usage: langqc <command> [flags]

commands:
  migrate        create the QC schema and seed reference data
  register-user  register or reactivate a QC user
  claim          claim a product for QC
  assign         assign a QC state to a claimed product
  state          show the current QC state of a product
  history        show replaced QC states of a product, oldest first
  wells          list wells in a QC flow status
  run            list wells of one or more runs
  statuses       list QC flow statuses and the QC dictionary
  serve          run the ops server (/health, /metrics)
`

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

// productFlags selects a product by checksum or by well coordinates.
type productFlags struct {
	id    string
	run   string
	well  string
	plate int
}

func (p *productFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&p.id, "id", "", "product id (64 hex characters)")
	fs.StringVar(&p.run, "run", "", "run name, used with -well when -id is not given")
	fs.StringVar(&p.well, "well", "", "well label")
	fs.IntVar(&p.plate, "plate", 0, "plate number, 0 when the run has none")
}

func (p *productFlags) productID() (string, error) {
	if strings.TrimSpace(p.id) != "" {
		return p.id, nil
	}
	c := identity.Coordinates{RunName: p.run, WellLabel: p.well}
	if p.plate != 0 {
		plate := p.plate
		c.PlateNumber = &plate
	}
	id, err := identity.NewPacBioResolver().ProductID(c)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type command struct {
	migrate bool
	run     func(ctx context.Context, a *app.App, args []string, out io.Writer) error
}

var commands = map[string]command{
	"migrate":       {migrate: true, run: runMigrate},
	"register-user": {run: runRegisterUser},
	"claim":         {run: runClaim},
	"assign":        {run: runAssign},
	"state":         {run: runState},
	"history":       {run: runHistory},
	"wells":         {run: runWells},
	"run":           {run: runRun},
	"statuses":      {run: runStatuses},
	"serve":         {run: runServe},
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	name := os.Args[1]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", name, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = ctxutil.WithRequestID(ctx, "")

	a, err := app.New(ctx, app.Options{Migrate: cmd.migrate})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := cmd.run(ctx, a, os.Args[2:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		a.Log.Debug("command failed", "command", name, "request_id", ctxutil.RequestID(ctx), "error", err)
		writeError(os.Stderr, err)
		a.Close()
		os.Exit(1)
	}
}

func writeError(w io.Writer, err error) {
	apiErr := response.APIError{Message: err.Error(), Code: string(apperrors.KindOf(err))}
	if apiErr.Code == "" {
		apiErr.Code = "internal"
	}
	_ = writeJSON(w, response.ErrorEnvelope{Error: apiErr})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func pageFlags(fs *flag.FlagSet) *services.Page {
	p := &services.Page{}
	fs.IntVar(&p.PageSize, "page-size", 20, "items per page")
	fs.IntVar(&p.PageNumber, "page", 1, "1-based page number")
	return p
}

func runMigrate(_ context.Context, a *app.App, _ []string, out io.Writer) error {
	return writeJSON(out, map[string]string{"status": "ok"})
}

func runRegisterUser(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("register-user")
	user := fs.String("user", "", "username")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, err := a.Services.QcState.RegisterUser(dbctx.Context{Ctx: ctx}, *user)
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{"user": u.Username, "iscurrent": u.IsCurrent})
}

func runClaim(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("claim")
	var p productFlags
	p.register(fs)
	qcType := fs.String("type", services.QcTypeSequencing, "QC type")
	user := fs.String("user", "", "acting user")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := p.productID()
	if err != nil {
		return err
	}
	v, err := a.Services.QcState.Claim(dbctx.Context{Ctx: ctx}, services.ClaimRequest{ProductID: id, QcType: *qcType, User: *user})
	if err != nil {
		return err
	}
	return writeJSON(out, v)
}

func runAssign(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("assign")
	var p productFlags
	p.register(fs)
	qcType := fs.String("type", services.QcTypeSequencing, "QC type")
	state := fs.String("state", "", "QC state")
	preliminary := fs.Bool("preliminary", false, "mark the outcome preliminary")
	user := fs.String("user", "", "acting user")
	qcContext := fs.String("context", "", "recorded as created_by, defaults to the application name")
	date := fs.String("date", "", "RFC3339 timestamp recorded as date_updated, for backfills")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := p.productID()
	if err != nil {
		return err
	}
	req := services.AssignRequest{
		ProductID:     id,
		QcType:        *qcType,
		QcState:       *state,
		IsPreliminary: *preliminary,
		User:          *user,
		Context:       *qcContext,
	}
	if *date != "" {
		t, err := time.Parse(time.RFC3339, *date)
		if err != nil {
			return apperrors.InvalidArgument("date", *date, "must be an RFC3339 timestamp")
		}
		req.DateUpdated = &t
	}
	v, err := a.Services.QcState.Assign(dbctx.Context{Ctx: ctx}, req)
	if err != nil {
		return err
	}
	return writeJSON(out, v)
}

func runState(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("state")
	var p productFlags
	p.register(fs)
	qcType := fs.String("type", services.QcTypeSequencing, "QC type")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := p.productID()
	if err != nil {
		return err
	}
	v, err := a.Services.QcState.CurrentState(dbctx.Context{Ctx: ctx}, id, *qcType)
	if err != nil {
		return err
	}
	if v == nil {
		return apperrors.NotFound("no QC state of type '%s' for product %s", *qcType, id)
	}
	return writeJSON(out, v)
}

func runHistory(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("history")
	var p productFlags
	p.register(fs)
	qcType := fs.String("type", services.QcTypeSequencing, "QC type")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := p.productID()
	if err != nil {
		return err
	}
	rows, err := a.Services.QcState.History(dbctx.Context{Ctx: ctx}, id, *qcType)
	if err != nil {
		return err
	}
	return writeJSON(out, rows)
}

func runWells(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("wells")
	status := fs.String("status", string(services.FlowInbox), "QC flow status")
	page := pageFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := services.ParseFlowStatus(*status)
	if err != nil {
		return err
	}
	res, err := a.Services.Wells.ListByStatus(ctx, f, *page)
	if err != nil {
		return err
	}
	return writeJSON(out, res)
}

func runRun(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("run")
	var runs stringList
	fs.Var(&runs, "name", "run name (repeatable)")
	page := pageFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	runs = append(runs, fs.Args()...)

	var (
		res *services.PagedWells
		err error
	)
	if len(runs) == 1 {
		res, err = a.Services.Wells.WellsForRun(ctx, runs[0], *page)
	} else {
		res, err = a.Services.Wells.WellsForRuns(ctx, runs, *page)
	}
	if err != nil {
		return err
	}
	return writeJSON(out, res)
}

func runStatuses(_ context.Context, a *app.App, _ []string, out io.Writer) error {
	dict := a.Services.Dictionary
	return writeJSON(out, map[string]any{
		"qc_flow_statuses": services.FlowStatuses(),
		"qc_states":        dict.QcStates(),
		"qc_types":         dict.QcTypes(),
	})
}

func runServe(ctx context.Context, a *app.App, _ []string, _ io.Writer) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.Serve() }()
	select {
	case <-ctx.Done():
		a.Log.Info("shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}
