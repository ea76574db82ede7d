package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/formreq/packages/capture"
	"github.com/abdul-hamid-achik/formreq/packages/core/config"
	"github.com/abdul-hamid-achik/formreq/packages/files"
	"github.com/abdul-hamid-achik/formreq/packages/log"
	"github.com/abdul-hamid-achik/formreq/packages/output"
	"github.com/abdul-hamid-achik/formreq/packages/request"
	"github.com/abdul-hamid-achik/formreq/packages/transport"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <GET|POST> <url>",
	Short: "Send one form request",
	Long: `Send a single GET or POST form request and report its progress.

GET requests carry their fields in the query string; POST requests send
them as multipart/form-data, together with an optional file.

Examples:
  formreq send GET http://localhost:8080/search -F q=widgets -F page=2
  formreq send POST http://localhost:8080/upload -F title=report -f doc=./report.pdf
  formreq send POST http://localhost:8080/upload -f doc=./report.pdf --watch
  formreq send GET http://localhost:8080/user/1 --select data.name --schema user.schema.json
  formreq send POST http://localhost:8080/slow --max-time 5000 -o json`,
	Args: cobra.ExactArgs(2),
	RunE: sendCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond

	// fileInputID is the id the attached file is registered under
	fileInputID = "file"
)

// sendOptions holds the send command's flags
type sendOptions struct {
	fields        []string
	file          string
	delay         int // milliseconds, -1 keeps the configured value
	timeout       int // milliseconds, -1 keeps the configured value
	successStatus int
	headers       []string
	selectPath    string
	schema        string
	output        string
	config        string
	watch         bool
	logLevel      string
	noColor       bool
	insecure      bool
	proxy         string
	maxTime       int // milliseconds, 0 waits forever
	baseDir       string
}

var sendOpts sendOptions

func init() {
	// Form flags
	sendCmd.Flags().StringArrayVarP(&sendOpts.fields, "field", "F", nil, "Form field as name=value (repeatable)")
	sendCmd.Flags().StringVarP(&sendOpts.file, "file", "f", "", "Attach a file as name=path (POST only)")
	sendCmd.Flags().StringVar(&sendOpts.baseDir, "base-dir", getEnvString("FORMREQ_BASE_DIR", ""), "Only allow attaching files inside this directory (env: FORMREQ_BASE_DIR)")
	sendCmd.Flags().StringArrayVarP(&sendOpts.headers, "header", "H", nil, "Extra request header as key:value (repeatable)")

	// Timing flags
	sendCmd.Flags().IntVar(&sendOpts.delay, "delay", getEnvInt("FORMREQ_DELAY", -1), "Pause between start and send in ms (default from config: 1000) (env: FORMREQ_DELAY)")
	sendCmd.Flags().IntVar(&sendOpts.timeout, "timeout", getEnvInt("FORMREQ_TIMEOUT", -1), "Request timeout in ms (default from config: 30000) (env: FORMREQ_TIMEOUT)")
	sendCmd.Flags().IntVar(&sendOpts.maxTime, "max-time", getEnvInt("FORMREQ_MAX_TIME", 0), "Stop the request after this many ms (env: FORMREQ_MAX_TIME)")
	sendCmd.Flags().IntVar(&sendOpts.successStatus, "success-status", getEnvInt("FORMREQ_SUCCESS_STATUS", 0), "Status code treated as success (default from config: 200) (env: FORMREQ_SUCCESS_STATUS)")

	// Response flags
	sendCmd.Flags().StringVarP(&sendOpts.selectPath, "select", "s", "", "Print only the value at this JSON path (gjson syntax)")
	sendCmd.Flags().StringVar(&sendOpts.schema, "schema", "", "Validate the response body against a JSON Schema file")

	// Output flags
	sendCmd.Flags().StringVarP(&sendOpts.output, "output", "o", getEnvString("FORMREQ_OUTPUT", ""), "Output format: console, json (env: FORMREQ_OUTPUT)")
	sendCmd.Flags().BoolVar(&sendOpts.noColor, "no-color", getEnvBool("FORMREQ_NO_COLOR", false), "Disable colored output (env: FORMREQ_NO_COLOR)")
	sendCmd.Flags().StringVar(&sendOpts.logLevel, "log-level", getEnvString("FORMREQ_LOG_LEVEL", ""), "Log level: debug, info, warn, error (env: FORMREQ_LOG_LEVEL)")
	sendCmd.Flags().StringVar(&sendOpts.config, "config", getEnvString("FORMREQ_CONFIG", ""), "Path to config file (env: FORMREQ_CONFIG)")
	sendCmd.Flags().BoolVarP(&sendOpts.watch, "watch", "w", false, "Re-send whenever the attached file changes")

	// Network flags
	sendCmd.Flags().StringVar(&sendOpts.proxy, "proxy", getEnvString("FORMREQ_PROXY", ""), "Proxy URL for HTTP requests (env: FORMREQ_PROXY)")
	sendCmd.Flags().BoolVarP(&sendOpts.insecure, "insecure", "k", getEnvBool("FORMREQ_INSECURE", false), "Disable SSL certificate validation (env: FORMREQ_INSECURE)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func sendCommand(cmd *cobra.Command, args []string) error {
	method, rawURL := args[0], args[1]
	if request.ParseMethod(method) == request.MethodNone {
		return withExitCode(ExitUsageError, fmt.Errorf("unsupported method %q (expected GET or POST)", method))
	}
	if err := transport.ValidateURL(rawURL); err != nil {
		return withExitCode(ExitUsageError, err)
	}

	fields, err := parseFields(sendOpts.fields)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	headers, err := parseHeaders(sendOpts.headers)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	if sendOpts.watch && sendOpts.file == "" {
		return withExitCode(ExitUsageError, fmt.Errorf("--watch needs a file to watch (--file)"))
	}

	cfg, err := resolveConfig(&sendOpts, headers)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	s, err := newSender(cfg, &sendOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if sendOpts.watch {
		return s.watch(ctx, method, rawURL, fields)
	}

	code, err := s.send(ctx, method, rawURL, fields)
	if err != nil || code != ExitSuccess {
		return withExitCode(code, err)
	}
	return nil
}

// resolveConfig loads the config file and lets flags override it
func resolveConfig(opts *sendOptions, headers map[string]string) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.config)
	if err != nil {
		return nil, err
	}

	cfg = cfg.Merge(&config.Config{
		Timeout:       opts.timeout,
		SuccessStatus: opts.successStatus,
		Proxy:         opts.proxy,
		LogLevel:      opts.logLevel,
		Output:        opts.output,
		Headers:       headers,
	})
	// 0 is a valid delay, so it cannot go through Merge
	if opts.delay >= 0 {
		cfg.PreDelay = opts.delay
	}
	if opts.insecure {
		cfg.ValidateSSL = config.BoolPtr(false)
	}
	if opts.noColor {
		cfg.NoColor = config.BoolPtr(true)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseFields(raw []string) ([]request.Field, error) {
	fields := make([]request.Field, 0, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid field %q (expected name=value)", kv)
		}
		fields = append(fields, request.Field{Name: name, Value: value})
	}
	return fields, nil
}

func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q (expected key:value)", kv)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}

// trackingFactory hands out HTTP transports and remembers the last one so
// a network failure can be told apart from an error status.
type trackingFactory struct {
	factory *transport.HTTPFactory

	mu   sync.Mutex
	last *transport.HTTPTransport
}

func (f *trackingFactory) NewTransport() transport.Transport {
	tr := f.factory.New()
	f.mu.Lock()
	f.last = tr
	f.mu.Unlock()
	return tr
}

func (f *trackingFactory) networkError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return nil
	}
	return f.last.Err()
}

// sender issues requests for the send command
type sender struct {
	cfg     *config.Config
	opts    *sendOptions
	logger  *logrus.Logger
	factory *transport.HTTPFactory
	out     io.Writer

	// serializes watch re-sends
	mu sync.Mutex
}

func newSender(cfg *config.Config, opts *sendOptions, out, errOut io.Writer) (*sender, error) {
	logger, err := log.New(cfg.LogLevel, errOut)
	if err != nil {
		return nil, err
	}

	factory := transport.NewHTTPFactory(
		transport.WithTimeout(cfg.TimeoutDuration()),
		transport.WithFollowRedirects(cfg.GetFollowRedirects()),
		transport.WithMaxRedirects(cfg.MaxRedirects),
		transport.WithValidateSSL(cfg.GetValidateSSL()),
		transport.WithProxy(cfg.Proxy),
		transport.WithDefaultHeaders(cfg.Headers),
		transport.WithProgressInterval(cfg.ProgressIntervalDuration()),
	)

	return &sender{
		cfg:     cfg,
		opts:    opts,
		logger:  logger,
		factory: factory,
		out:     out,
	}, nil
}

// send issues one request, waits for it to finish and returns the exit code
func (s *sender) send(ctx context.Context, method, rawURL string, fields []request.Field) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	formatter, err := output.New(s.cfg.Output, s.out, s.cfg.GetNoColor())
	if err != nil {
		return ExitConfigError, err
	}

	tracker := &trackingFactory{factory: s.factory}
	recorder := output.NewRecorder(formatter)
	registry := files.NewRegistry()

	req := request.New(method, rawURL,
		request.WithTransportFactory(tracker),
		request.WithFileResolver(registry),
		request.WithLogger(s.logger),
		request.WithPreDelay(s.cfg.PreDelayDuration()),
		request.WithSuccessStatus(s.cfg.SuccessStatus),
		request.WithHandlers(recorder.Handlers()),
	)

	for _, field := range fields {
		if err := req.AddField(field.Name, field.Value); err != nil {
			return ExitUsageError, err
		}
	}

	if s.opts.file != "" {
		name, path, ok := strings.Cut(s.opts.file, "=")
		if !ok || name == "" || path == "" {
			return ExitUsageError, fmt.Errorf("invalid file %q (expected name=path)", s.opts.file)
		}
		f, err := files.NewOSFile(path, s.opts.baseDir)
		if err != nil {
			return ExitUsageError, fmt.Errorf("cannot attach %s: %w", path, err)
		}
		registry.Register(files.NewFileInput(fileInputID, f))
		if err := req.AttachFile(name, fileInputID); err != nil {
			return ExitUsageError, err
		}
	}

	formatter.FormatHeader(version)
	formatter.FormatStart(method, rawURL)

	if err := req.Start(); err != nil {
		return ExitUsageError, err
	}

	waitCtx := ctx
	if s.opts.maxTime > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, time.Duration(s.opts.maxTime)*time.Millisecond)
		defer cancel()
	}

	if err := req.Wait(waitCtx); err != nil {
		// Stop loses the race when the request finished meanwhile
		if req.Stop() == nil {
			recorder.MarkStopped()
		}
		<-req.Done()
	}

	res := recorder.Result(req)
	code := s.inspect(res, tracker)
	formatter.FormatResult(res)
	if j, ok := formatter.(*output.JSONFormatter); ok {
		if err := j.Flush(); err != nil {
			return code, fmt.Errorf("error writing output: %w", err)
		}
	}
	return code, nil
}

// inspect applies --select and --schema to a finished result and picks the exit code
func (s *sender) inspect(res *output.Result, tracker *trackingFactory) int {
	switch res.Outcome {
	case output.OutcomeSuccess:
	case output.OutcomeStopped:
		return ExitStopped
	case output.OutcomeError:
		if err := tracker.networkError(); err != nil {
			s.logger.WithError(err).Debug("request failed before a response arrived")
			return ExitNetworkError
		}
		return ExitRequestError
	default:
		return ExitRequestError
	}

	code := ExitSuccess
	if s.opts.selectPath != "" {
		res.SelectPath = s.opts.selectPath
		value, ok := capture.SelectString(res.Body, s.opts.selectPath)
		if !ok {
			s.logger.WithField("path", s.opts.selectPath).Warn("path not found in response body")
			code = ExitRequestError
		}
		res.Selected = value
	}
	if s.opts.schema != "" {
		if err := capture.ValidateSchema(res.Body, s.opts.schema); err != nil {
			res.SchemaError = err
			code = ExitRequestError
		}
	}
	return code
}

// watch sends once, then again every time the attached file is written, until ctx ends
func (s *sender) watch(ctx context.Context, method, rawURL string, fields []request.Field) error {
	_, path, _ := strings.Cut(s.opts.file, "=")
	if s.opts.baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.opts.baseDir, path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	if _, err := s.send(ctx, method, rawURL, fields); err != nil {
		return withExitCode(ExitUsageError, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save, so watch the directory
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	fmt.Fprintf(s.out, "\nWatching %s for changes... (press Ctrl+C to stop)\n\n", path)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if name, err := filepath.Abs(event.Name); err != nil || name != absPath {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(s.out, "\n\nFile changed: %s\nRe-sending...\n\n", event.Name)
				if _, err := s.send(ctx, method, rawURL, fields); err != nil {
					s.logger.WithError(err).Error("re-send failed")
				}
				fmt.Fprintf(s.out, "\nWatching %s for changes... (press Ctrl+C to stop)\n", path)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.WithError(err).Warn("watcher error")
		}
	}
}
