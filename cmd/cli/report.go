package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/dvloznov/treasury/internal/app"
	"github.com/dvloznov/treasury/internal/gcsuploader"
	"github.com/dvloznov/treasury/internal/report"
	"github.com/dvloznov/treasury/internal/treasury"
)

type reportCmd struct {
	g          *globals
	period     periodFlags
	projection projectionFlags
	n          int
	briefing   bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print every treasury view for a period" }
func (*reportCmd) Usage() string {
	return `report [period flags] [projection flags] [-n count] [-briefing]

  Prints KPIs, breakdowns, time series, rankings and the liquidity risk in a
  single document. With -briefing, a Gemini model summarizes the report.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.period.register(f)
	c.projection.register(f)
	f.IntVar(&c.n, "n", treasury.DefaultTopN, "number of providers and clients to show")
	f.BoolVar(&c.briefing, "briefing", false, "append a narrative briefing generated by Gemini")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, rep, status := buildReport(ctx, c.g, c.period, c.projection, c.n)
	if rep == nil {
		return status
	}

	md := report.Markdown(rep)
	if c.briefing {
		narrator := app.NewNarrator(ctx, c.g.cfg, c.g.log)
		if narrator == nil {
			fmt.Fprintln(os.Stderr, "Error: briefing unavailable, check the Gemini credentials")
			return subcommands.ExitFailure
		}
		text, err := narrator.Briefing(ctx, rep)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		md += "\n## Briefing\n\n" + text + "\n"
	}

	if err := c.g.print(rep, md); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type exportCmd struct {
	g          *globals
	period     periodFlags
	projection projectionFlags
	n          int
	out        string
	upload     bool
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the treasury report as an Excel workbook" }
func (*exportCmd) Usage() string {
	return `export [period flags] [projection flags] [-o file.xlsx] [-upload]

  Writes the report as a workbook with one sheet per view. With -upload, the
  workbook is stored in export.bucket under export.prefix.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.period.register(f)
	c.projection.register(f)
	f.IntVar(&c.n, "n", treasury.DefaultTopN, "number of providers and clients to include")
	f.StringVar(&c.out, "o", "", "write the workbook to this file")
	f.BoolVar(&c.upload, "upload", false, "upload the workbook to the export bucket")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.out == "" && !c.upload {
		fmt.Fprintln(os.Stderr, "Error: -o or -upload is required")
		return subcommands.ExitUsageError
	}
	ctx, rep, status := buildReport(ctx, c.g, c.period, c.projection, c.n)
	if rep == nil {
		return status
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, rep); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.out != "" {
		if err := os.WriteFile(c.out, buf.Bytes(), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Workbook written to %s\n", c.out)
	}

	if c.upload {
		bucket := c.g.cfg.Export.Bucket
		if bucket == "" {
			fmt.Fprintln(os.Stderr, "Error: export.bucket (GCS_BUCKET) is not configured")
			return subcommands.ExitUsageError
		}
		object := gcsuploader.ObjectName(c.g.cfg.Export.Prefix, rep.Period.String(), rep.GeneratedAt, "xlsx")
		uri, err := gcsuploader.NewGCSStorageService().UploadBytes(ctx, bucket, object, report.XLSXContentType, buf.Bytes())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		c.g.log.Info().Str("uri", uri).Int("bytes", buf.Len()).Msg("Workbook uploaded")
		fmt.Printf("Workbook uploaded to %s\n", uri)
	}
	return subcommands.ExitSuccess
}

// buildReport opens the service and builds the report. On failure it
// returns a nil report and the exit status to use.
func buildReport(ctx context.Context, g *globals, pf periodFlags, jf projectionFlags, n int) (context.Context, *report.Report, subcommands.ExitStatus) {
	ctx, svc, err := g.service(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ctx, nil, subcommands.ExitFailure
	}
	p, err := pf.period()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ctx, nil, subcommands.ExitUsageError
	}
	params, err := jf.params(g.cfg.Risk.DefaultHorizonDays)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ctx, nil, subcommands.ExitUsageError
	}

	rep, err := report.Build(ctx, svc, report.Options{
		Period:     p,
		Currency:   pf.currency,
		TopN:       n,
		Projection: params,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ctx, nil, subcommands.ExitFailure
	}
	return ctx, rep, subcommands.ExitSuccess
}
