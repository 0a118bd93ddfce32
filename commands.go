package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/chronicleprotocol/go-lib/errutil"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/NamanBalaji/urlconf/internal/common"
	urlerrors "github.com/NamanBalaji/urlconf/internal/errors"
	"github.com/NamanBalaji/urlconf/internal/fetch"
	"github.com/NamanBalaji/urlconf/internal/logger"
	"github.com/NamanBalaji/urlconf/internal/retry"
	"github.com/NamanBalaji/urlconf/internal/status"
	"github.com/NamanBalaji/urlconf/internal/uri"
	"github.com/NamanBalaji/urlconf/internal/vfs"
)

func newCommandFlags(name string) *pflag.FlagSet {
	return pflag.NewFlagSet(name, pflag.ContinueOnError)
}

func parseCommand(flagSet *pflag.FlagSet, args []string) ([]string, error) {
	if err := flagSet.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errUsage, flagSet.Name(), err)
	}

	if flagSet.NArg() == 0 {
		return nil, fmt.Errorf("%w: %s: at least one URL is required", errUsage, flagSet.Name())
	}

	return flagSet.Args(), nil
}

func (a *app) cat(ctx context.Context, args []string) error {
	flagSet := newCommandFlags("cat")
	retries := flagSet.Int("retries", a.cfg.Retry.Attempts, "retry transport failures this many times")
	delay := flagSet.Duration("retry-delay", a.cfg.Retry.Delay, "base delay between retries")

	urls, err := parseCommand(flagSet, args)
	if err != nil {
		return err
	}

	hooks, release, err := a.newHooks()
	if err != nil {
		return err
	}
	defer release()

	buf := make([]byte, vfs.BlockSize)

	for _, raw := range urls {
		var fd int

		err := retry.Do(ctx, *retries, *delay, func(ctx context.Context) error {
			var err error
			fd, err = hooks.Open(ctx, raw)
			return err
		})
		if errors.Is(err, vfs.ErrNotHandled) {
			return fmt.Errorf("%s: not a supported URL", raw)
		}
		if err != nil {
			return err
		}

		for {
			n, err := hooks.Read(fd, buf)
			if err != nil || n == 0 {
				break
			}

			if _, err := a.stdout.Write(buf[:n]); err != nil {
				closeDescriptor(hooks, fd)
				return err
			}
		}

		if err := hooks.Close(fd); err != nil {
			return err
		}
	}

	return nil
}

func (a *app) stat(ctx context.Context, args []string) error {
	flagSet := newCommandFlags("stat")
	open := flagSet.Bool("open", false, "fetch the URL to report its size")

	urls, err := parseCommand(flagSet, args)
	if err != nil {
		return err
	}

	hooks, release, err := a.newHooks()
	if err != nil {
		return err
	}
	defer release()

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODE\tSIZE\tBLOCKSIZE\tURL")

	for _, raw := range urls {
		if !*open {
			info, err := hooks.Stat(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", raw, err)
			}

			sys := info.Sys().(*vfs.Sys)
			fmt.Fprintf(w, "%s\t%s\t-\t%d\t%s\n", info.Name(), info.Mode(), sys.BlockSize, raw)

			continue
		}

		fd, err := hooks.Open(ctx, raw)
		if err != nil {
			return fmt.Errorf("%s: %w", raw, err)
		}

		info, err := hooks.Fstat(fd)
		closeDescriptor(hooks, fd)

		if err != nil {
			return err
		}

		sys := info.Sys().(*vfs.Sys)
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", info.Name(), info.Mode(), info.Size(), sys.BlockSize, raw)
	}

	return w.Flush()
}

func (a *app) parse(args []string) error {
	flagSet := newCommandFlags("parse")

	urls, err := parseCommand(flagSet, args)
	if err != nil {
		return err
	}

	var errs error

	for i, raw := range urls {
		if i > 0 {
			fmt.Fprintln(a.stdout)
		}

		u, err := uri.Parse(raw)
		if err != nil {
			fmt.Fprintf(a.stdout, "url:      %s\nerror:    %v\n", raw, err)
			errs = errutil.Append(errs, err)

			continue
		}

		fmt.Fprintf(a.stdout, "url:      %s\n", raw)
		fmt.Fprintf(a.stdout, "scheme:   %s\n", u.Scheme)
		fmt.Fprintf(a.stdout, "host:     %s\n", u.Host)

		if u.IsLocalPath() {
			fmt.Fprintln(a.stdout, "local:    true")
		}

		if u.HasPort() {
			fmt.Fprintf(a.stdout, "port:     %d\n", u.Port)
		}

		if u.Path != "" {
			fmt.Fprintf(a.stdout, "path:     %s\n", u.Path)
		}

		if u.User != nil {
			fmt.Fprintf(a.stdout, "username: %s\n", u.User.Username)
			if u.User.PasswordSet {
				fmt.Fprintf(a.stdout, "password: %s\n", strings.Repeat("*", len(u.User.Password)))
			}
		}

		for _, k := range u.Query.Keys() {
			v, _ := u.Query.Get(k)
			fmt.Fprintf(a.stdout, "param:    %s=%s\n", k, v)
		}

		fmt.Fprintf(a.stdout, "target:   %s\n", fetch.Rewrite(raw, u))
	}

	return errs
}

type checkResult struct {
	url     string
	code    int
	size    int
	elapsed time.Duration
	err     error
}

// check fetches URLs concurrently. Every URL gets its own engine, so workers
// never share a transport context.
func (a *app) check(ctx context.Context, args []string) error {
	flagSet := newCommandFlags("check")
	parallel := flagSet.Int("parallel", a.cfg.Retry.Parallel, "number of concurrent fetches")

	urls, err := parseCommand(flagSet, args)
	if err != nil {
		return err
	}

	results := make([]checkResult, len(urls))

	var (
		mu   sync.Mutex
		errs error
	)

	g, gctx := errgroup.WithContext(ctx)
	if *parallel > 0 {
		g.SetLimit(*parallel)
	}

	for i, raw := range urls {
		g.Go(func() error {
			res := a.checkOne(gctx, raw)
			results[i] = res

			if res.err != nil {
				mu.Lock()
				errs = errutil.Append(errs, fmt.Errorf("%s: %w", raw, res.err))
				mu.Unlock()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RESULT\tCODE\tSIZE\tTIME\tURL")

	for _, res := range results {
		outcome := "ok"
		if res.err != nil {
			outcome = strings.ToLower(kindLabel(res.err))
		}

		code := "-"
		if res.code != 0 {
			code = fmt.Sprint(res.code)
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", outcome, code, res.size, res.elapsed.Round(time.Millisecond), res.url)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	return errs
}

func (a *app) checkOne(ctx context.Context, raw string) checkResult {
	res := checkResult{url: raw}

	if a.cfg.DisableTLS {
		if scheme, ok := uri.MatchScheme(raw); ok && scheme.Secure() {
			res.err = vfs.ErrNotHandled
			return res
		}
	}

	f, release, err := a.newFetcher()
	if err != nil {
		res.err = err
		return res
	}
	defer release()

	start := time.Now()
	h, err := f.Open(ctx, raw)
	res.elapsed = time.Since(start)

	if err != nil {
		res.err = err
		res.code, _ = urlerrors.GetStatusCode(err)

		return res
	}
	defer h.Close()

	res.code = h.Result().StatusCode
	res.size = h.Size()

	return res
}

func (a *app) history(args []string) error {
	flagSet := newCommandFlags("history")
	limit := flagSet.Int("limit", 20, "show at most this many records, newest last")
	clearAll := flagSet.Bool("clear", false, "delete every record")

	if err := flagSet.Parse(args); err != nil {
		return fmt.Errorf("%w: history: %v", errUsage, err)
	}

	if a.journal == nil {
		return errors.New("journal is disabled or unavailable")
	}

	if *clearAll {
		return a.journal.Clear()
	}

	records, err := a.journal.FindAll()
	if err != nil {
		return err
	}

	stats := common.Summarize(records)

	if *limit > 0 && len(records) > *limit {
		records = records[len(records)-*limit:]
	}

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSTATUS\tCODE\tSIZE\tURL\tERROR")

	for _, r := range records {
		code := "-"
		if r.StatusCode != 0 {
			code = fmt.Sprint(r.StatusCode)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime), status.String(r.Status), code, r.Size, r.URL, r.Error)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "\n%d fetches: %d ok, %d failed (parse %d, transport %d, response %d), %d bytes\n",
		stats.Total, stats.Succeeded, stats.Failed,
		stats.ParseErrors, stats.TransportErrors, stats.ResponseErrors, stats.BytesFetched)

	return nil
}

func closeDescriptor(hooks *vfs.Hooks, fd int) {
	if err := hooks.Close(fd); err != nil {
		logger.Warnf("Failed to close descriptor %d: %v", fd, err)
	}
}

// kindLabel names the error kind of err for tabular output.
func kindLabel(err error) string {
	var urlErr *urlerrors.URLError
	if !errors.As(err, &urlErr) {
		return "error"
	}

	return strings.ReplaceAll(urlErr.Kind.Error(), " ", "-")
}
