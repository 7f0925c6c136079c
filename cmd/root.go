package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"cloudeng.io/logging/ctxlog"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tarrence/linode-cli/internal/catalog"
	"github.com/tarrence/linode-cli/internal/clierr"
	"github.com/tarrence/linode-cli/internal/cligen"
	"github.com/tarrence/linode-cli/internal/config"
	"github.com/tarrence/linode-cli/internal/linodehttp"
	"github.com/tarrence/linode-cli/internal/output"
	"github.com/tarrence/linode-cli/internal/version"
	"github.com/tarrence/linode-cli/specs"
)

type rootOptions struct {
	Text         bool
	Delimiter    string
	JSON         bool
	Pretty       bool
	Markdown     bool
	ASCIITable   bool
	NoHeaders    bool
	AllColumns   bool
	All          bool
	Format       string
	NoTruncation bool
	ColumnWidth  int
	SingleTable  bool
	Tables       []string
	NoColor      bool

	SuppressWarnings bool
	Debug            bool
	Trace            bool

	AsUser     string
	ConfigFile string
	Catalog    string

	Token              string
	BaseURL            string
	Timeout            time.Duration
	RetryNonIdempotent bool

	NoDefaults bool
	Page       int
	PageSize   int
}

type appState struct {
	cat     *catalog.Catalog
	opts    rootOptions
	cfg     *config.Config
	client  *linodehttp.Client
	printer *output.Printer
	logger  *slog.Logger
}

func (a *appState) printerOptions() (output.Options, error) {
	o := a.opts
	modes := 0
	for _, set := range []bool{o.Text, o.JSON || o.Pretty, o.Markdown, o.ASCIITable} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return output.Options{}, clierr.Argumentf("only one of --text, --json, --markdown and --ascii-table may be given")
	}
	opts := output.Options{
		Mode:             output.ModeTable,
		AllColumns:       o.AllColumns || o.All,
		Headers:          !o.NoHeaders,
		Delimiter:        o.Delimiter,
		NoTruncation:     o.NoTruncation,
		ColumnWidth:      o.ColumnWidth,
		SingleTable:      o.SingleTable,
		Tables:           o.Tables,
		NoColor:          o.NoColor,
		SuppressWarnings: o.SuppressWarnings,
	}
	switch {
	case o.Text:
		opts.Mode = output.ModeDelimited
	case o.JSON || o.Pretty:
		opts.Mode = output.ModeJSON
		opts.AllColumns = true
		opts.Pretty = o.Pretty
	case o.Markdown:
		opts.Mode = output.ModeMarkdown
	case o.ASCIITable:
		opts.Mode = output.ModeASCII
	}
	for _, c := range strings.Split(o.Format, ",") {
		if c = strings.TrimSpace(c); c != "" {
			opts.Columns = append(opts.Columns, c)
		}
	}
	if o.ColumnWidth < 0 {
		return output.Options{}, clierr.Argumentf("--column-width must not be negative")
	}
	if o.Page < 0 {
		return output.Options{}, clierr.Argumentf("--page must be positive")
	}
	return opts, nil
}

func (a *appState) initFromFlags(cmd *cobra.Command) error {
	popts, err := a.printerOptions()
	if err != nil {
		return err
	}
	a.printer = output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), popts)
	if a.opts.All {
		a.printer.Warnf("--all is deprecated; use --all-columns")
	}

	level := slog.LevelWarn
	if a.opts.Debug || a.opts.Trace {
		level = slog.LevelDebug
	}
	a.logger = newLogger(cmd.ErrOrStderr(), level)

	cfg, err := config.Load(a.opts.ConfigFile, a.opts.AsUser)
	if err != nil {
		return err
	}
	a.cfg = cfg

	timeout := cfg.Timeout()
	if cmd.Flags().Changed("timeout") {
		timeout = a.opts.Timeout
	}
	a.client, err = linodehttp.NewClient(linodehttp.ClientOptions{
		Timeout:            timeout,
		Debug:              a.opts.Debug,
		Trace:              a.opts.Trace,
		RetryNonIdempotent: a.opts.RetryNonIdempotent,
		UserAgent:          version.UserAgent(a.cat.APIVersion),
		Out:                cmd.ErrOrStderr(),
	})
	return err
}

func (a *appState) runtime() *cligen.Runtime {
	token := a.cfg.Token()
	if a.opts.Token != "" {
		token = a.opts.Token
	}
	baseURL := a.cfg.BaseURL()
	if a.opts.BaseURL != "" {
		baseURL = strings.TrimRight(a.opts.BaseURL, "/")
	}
	return &cligen.Runtime{
		BaseURL:    baseURL,
		Token:      token,
		Client:     a.client,
		Printer:    a.printer,
		Defaults:   a.cfg.Defaults(),
		NoDefaults: a.opts.NoDefaults,
		Page:       a.opts.Page,
		PageSize:   a.opts.PageSize,
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("invocation", uuid.NewString())
}

type settings struct {
	catalog     *catalog.Catalog
	catalogFile string
}

type Option func(*settings)

// WithCatalog builds the command tree from cat instead of the embedded
// catalog.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(s *settings) { s.catalog = cat }
}

// WithCatalogFile loads the baked catalog at path. An empty path is ignored.
func WithCatalogFile(path string) Option {
	return func(s *settings) { s.catalogFile = path }
}

// CatalogFlag returns the value of --catalog in args without parsing
// anything else; the command tree depends on it.
func CatalogFlag(args []string) string {
	fs := pflag.NewFlagSet("catalog", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	file := fs.String("catalog", "", "")
	fs.BoolP("help", "h", false, "")
	_ = fs.Parse(args)
	return *file
}

func loadCatalog(s settings) (*catalog.Catalog, error) {
	switch {
	case s.catalog != nil:
		return s.catalog, nil
	case s.catalogFile != "":
		cat, err := catalog.LoadFile(s.catalogFile)
		if err != nil {
			return nil, clierr.New(clierr.FileIO, err)
		}
		return cat, nil
	}
	return specs.Catalog()
}

func NewRootCmd(options ...Option) (*cobra.Command, error) {
	var s settings
	for _, o := range options {
		o(&s)
	}
	cat, err := loadCatalog(s)
	if err != nil {
		return nil, err
	}

	app := &appState{
		cat: cat,
		opts: rootOptions{
			Timeout: 30 * time.Second,
		},
	}

	root := &cobra.Command{
		Use:   "linode",
		Short: "Linode API command-line interface",
		Long: "Linode API command-line interface.\n\n" +
			"Every API operation is available as `linode <command> <action>`, generated\n" +
			"from the Linode OpenAPI specification.\n\n" +
			"Authentication:\n" +
			"  export LINODE_CLI_TOKEN=\"...\"\n" +
			"  linode regions list\n\n" +
			"Examples:\n" +
			"  linode linodes create --type g6-nanode-1 --region us-east --image linode/debian12\n" +
			"  linode vpcs list --text --format id,label\n" +
			"  linode regions list --country us --order-by id --json\n",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.initFromFlags(cmd); err != nil {
				return err
			}
			ctx := ctxlog.WithLogger(cmd.Context(), app.logger)
			ctx = cligen.WithRuntime(ctx, app.runtime())
			cmd.SetContext(ctx)
			ctxlog.Debug(ctx, "starting", "command", cmd.CommandPath(), "user", app.cfg.User(), "config", app.cfg.File())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return cligen.Unrecognized(cmd, args[0])
		},
	}
	root.FParseErrWhitelist.UnknownFlags = true
	root.SetFlagErrorFunc(cligen.FlagError)

	pf := root.PersistentFlags()
	pf.SortFlags = false
	pf.BoolVar(&app.opts.Text, "text", false, "Display delimited text output")
	pf.StringVar(&app.opts.Delimiter, "delimiter", "", "Field delimiter for --text (default tab)")
	pf.BoolVar(&app.opts.JSON, "json", false, "Display JSON output (all columns)")
	pf.BoolVar(&app.opts.Pretty, "pretty", false, "Display pretty-printed JSON output (implies --json)")
	pf.BoolVar(&app.opts.Markdown, "markdown", false, "Display a Markdown table")
	pf.BoolVar(&app.opts.ASCIITable, "ascii-table", false, "Draw tables with ASCII borders")
	pf.BoolVar(&app.opts.NoHeaders, "no-headers", false, "Omit column headers")
	pf.BoolVar(&app.opts.AllColumns, "all-columns", false, "Show every column")
	pf.BoolVar(&app.opts.All, "all", false, "Deprecated alias for --all-columns")
	_ = pf.MarkHidden("all")
	pf.StringVar(&app.opts.Format, "format", "", "Comma-separated list of columns to show")
	pf.BoolVar(&app.opts.NoTruncation, "no-truncation", false, "Do not truncate long values")
	pf.IntVar(&app.opts.ColumnWidth, "column-width", 0, "Maximum column width")
	pf.BoolVar(&app.opts.SingleTable, "single-table", false, "Print one table; nested lists are not split out")
	pf.StringArrayVar(&app.opts.Tables, "table", nil, "Only print this table (repeatable; \"root\" is the main table)")
	pf.BoolVar(&app.opts.NoColor, "no-color", false, "Disable colored output (also NO_COLOR)")
	pf.BoolVar(&app.opts.SuppressWarnings, "suppress-warnings", false, "Do not print warnings")
	pf.BoolVar(&app.opts.Debug, "debug", false, "Log request and response metadata to stderr (redacts auth)")
	pf.BoolVar(&app.opts.Trace, "trace", false, "Log full request and response bodies to stderr (redacts auth)")
	pf.StringVar(&app.opts.AsUser, "as-user", "", "Use this configured user instead of the default")
	pf.StringVar(&app.opts.ConfigFile, "config", "", "Config file (default "+config.DefaultPath()+")")
	pf.StringVar(&app.opts.Catalog, "catalog", "", "Load this baked catalog instead of the built-in one")
	_ = pf.MarkHidden("catalog")
	pf.StringVar(&app.opts.Token, "token", "", "API token (or set LINODE_CLI_TOKEN)")
	pf.StringVar(&app.opts.BaseURL, "base-url", "", "Override the API base URL (or set LINODE_CLI_API_URL)")
	pf.DurationVar(&app.opts.Timeout, "timeout", app.opts.Timeout, "Per-request timeout (or set LINODE_CLI_TIMEOUT)")
	pf.BoolVar(&app.opts.RetryNonIdempotent, "retry-non-idempotent", false, "Also retry POST requests on 5xx and transport errors")
	pf.BoolVar(&app.opts.NoDefaults, "no-defaults", false, "Do not fill create arguments from the user's configured defaults")
	pf.IntVar(&app.opts.Page, "page", 0, "Fetch only this page of a list")
	pf.IntVar(&app.opts.PageSize, "page-size", 0, "Items per page for lists (25-500)")

	root.SetVersionTemplate("{{.Version}}\n")
	root.Version = version.Version()

	root.AddCommand(newCatalogCmd(cat))
	root.AddCommand(newConfigureCmd())
	root.AddCommand(newVersionCmd(cat))

	if err := cligen.AddCatalogCommands(root, cat); err != nil {
		return nil, fmt.Errorf("building commands: %w", err)
	}
	return root, nil
}

// Execute runs root with ctx and returns the process exit status, printing
// any error to stderr.
func Execute(ctx context.Context, root *cobra.Command) int {
	err := root.ExecuteContext(ctx)
	if err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(root.ErrOrStderr(), msg)
		}
	}
	return clierr.ExitCode(err)
}
