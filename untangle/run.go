package untangle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"mqsplit/config"
	"mqsplit/css"
	"mqsplit/less"
	"mqsplit/search"
	"mqsplit/state"
)

// Run is the untangle subcommand: expand the input stylesheet, flatten its
// media rules, attribute every unit to an origin file and print the
// regrouped per-file fragments.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("untangle")

	input := cmd.Args().Get(0)
	if len(input) == 0 {
		return errors.New("no input stylesheet has been specified")
	}
	if fi, err := os.Stat(input); err != nil {
		return fmt.Errorf("unable to access input stylesheet %q: %w", input, err)
	} else if !fi.Mode().IsRegular() {
		return fmt.Errorf("input stylesheet is not a regular file: %s", input)
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	log.Info("Processing starting", zap.String("input", input))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	expanded, err := less.Expand(ctx, env.Cfg.Untangle.Preprocessor, input, log)
	if err != nil {
		return fmt.Errorf("unable to expand stylesheet %q: %w", input, err)
	}
	if env.Rpt != nil {
		env.Rpt.StoreData("expanded.css", expanded)
	}

	sheet := css.NewParser(env.Log).Parse(expanded, input)
	units := Flatten(sheet)
	log.Info("Flattened media rules", zap.Int("media_blocks", len(sheet.MediaBlocks())), zap.Int("units", len(units)))

	provider, err := search.NewTreeProvider(search.TreeOptions{
		Root:               env.Cfg.Untangle.SearchRoot,
		ExcludeDirectories: env.Cfg.Untangle.ExcludeDirectories,
		CacheSize:          env.Cfg.Untangle.CacheSize,
	}, env.Log)
	if err != nil {
		return fmt.Errorf("unable to prepare search provider: %w", err)
	}

	// the provider reports matches relative to the search root, so rebase
	// caller supplied paths onto it; both spellings go into the ignore set
	ignore := slices.Clone(cmd.StringSlice("ignore"))
	for _, p := range append(cmd.StringSlice("ignore"), input) {
		if rel, ok := rootRelative(env.Cfg.Untangle.SearchRoot, p); ok {
			ignore = append(ignore, rel)
		}
	}

	resolver := NewResolver(provider, ResolverOptions{
		Glob:        cmd.String("root-glob"),
		Ignore:      ignore,
		Self:        input,
		Extension:   env.Cfg.Untangle.SourceExtension,
		Concurrency: env.Cfg.Untangle.Concurrency,
	}, env.Log)

	// single consumer of the completion stream, see Aggregator
	agg := NewAggregator()
	for o := range resolver.ResolveAll(ctx, units) {
		agg.Add(o)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rep := agg.Assemble()

	pr := NewPrinter(os.Stdout, config.EnableColorOutput(os.Stdout))
	if cmd.Bool("print-queries") {
		pr.Queries(rep)
	} else {
		pr.Files(rep)
	}
	if cmd.Bool("show-unmatched") {
		pr.Unmatched(rep)
	}
	pr.Summary(rep)

	if env.Rpt != nil {
		env.Rpt.StoreData("report.txt", reportText(rep))
	}
	return nil
}

// rootRelative rebases a caller supplied path onto the search root. Reports
// false for paths outside the root, which cannot appear in provider matches.
func rootRelative(root, p string) (string, bool) {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// reportText renders the complete report for the debug archive.
func reportText(rep *Report) []byte {
	var sb strings.Builder
	p := NewPrinter(&sb, false)
	p.Queries(rep)
	p.Unmatched(rep)
	p.Summary(rep)
	return []byte(sb.String())
}
